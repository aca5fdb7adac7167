package domain

import (
	"context"
	"time"
)

// JobStore keeps scan jobs for the duration of a poll cycle
type JobStore interface {
	Save(ctx context.Context, job *ScanJob, ttl time.Duration) error
	Get(ctx context.Context, id string) (*ScanJob, error)
}

// JobSweeper is implemented by job stores that must evict expired jobs themselves
type JobSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// LabelAnalyzer sends a label photo to a vision model and returns its raw answer
type LabelAnalyzer interface {
	AnalyzeLabel(ctx context.Context, image *LabelImage) (string, error)
}

// ProductRepository persists product records
type ProductRepository interface {
	Save(ctx context.Context, record ProductRecord) (*SavedProduct, error)
	GetByID(ctx context.Context, id int64) (*SavedProduct, error)
	List(ctx context.Context, page ProductPage) ([]SavedProduct, error)
}

// ImageStore archives the photo behind a scan job and returns where it can be fetched
type ImageStore interface {
	Put(ctx context.Context, jobID string, image *LabelImage) (string, error)
}
