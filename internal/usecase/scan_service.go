package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labelscan/backend/internal/domain"
	"golang.org/x/sync/semaphore"
)

// ErrShuttingDown is returned by Submit and ScanNow once Shutdown has been called
var ErrShuttingDown = errors.New("scan service is shutting down")

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	JobTTL             time.Duration
	Workers            int
	AnalysisTimeout    time.Duration
	EnableDebugLogging bool
}

// ScanService runs label analyses and tracks them as pollable jobs
type ScanService struct {
	jobs       domain.JobStore
	analyzer   domain.LabelAnalyzer
	products   domain.ProductRepository
	images     domain.ImageStore // nil when archiving is disabled
	normalizer *LabelNormalizer

	jobTTL          time.Duration
	analysisTimeout time.Duration
	workers         *semaphore.Weighted

	newID func() string
	now   func() time.Time

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
	baseCtx  context.Context
	cancel   context.CancelFunc
}

// NewScanService creates a new scan service with dependencies.
// images may be nil.
func NewScanService(
	jobs domain.JobStore,
	analyzer domain.LabelAnalyzer,
	products domain.ProductRepository,
	images domain.ImageStore,
	config ScanServiceConfig,
) *ScanService {
	jobTTL := config.JobTTL
	if jobTTL == 0 {
		jobTTL = time.Hour
	}
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	analysisTimeout := config.AnalysisTimeout
	if analysisTimeout == 0 {
		analysisTimeout = 3 * time.Minute
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &ScanService{
		jobs:            jobs,
		analyzer:        analyzer,
		products:        products,
		images:          images,
		normalizer:      NewLabelNormalizer(config.EnableDebugLogging),
		jobTTL:          jobTTL,
		analysisTimeout: analysisTimeout,
		workers:         semaphore.NewWeighted(int64(workers)),
		newID:           uuid.NewString,
		now:             time.Now,
		baseCtx:         baseCtx,
		cancel:          cancel,
	}
}

// Submit registers a processing job for the image and analyses it in the background
func (s *ScanService) Submit(ctx context.Context, image *domain.LabelImage) (*domain.ScanJob, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	now := s.now()
	job := &domain.ScanJob{
		ID:        s.newID(),
		Status:    domain.ScanStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrShuttingDown
	}

	if err := s.jobs.Save(ctx, job, s.jobTTL); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.inflight.Add(1)
	go s.run(*job, image)

	log.Printf("[Scan] Job %s submitted (%d bytes, %s)", job.ID, len(image.Data), image.ContentType)
	return job, nil
}

// ScanNow analyses the image inline without creating a job
func (s *ScanService) ScanNow(ctx context.Context, image *domain.LabelImage) (*domain.ScanResult, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	// Shutdown cancels inline scans the same way it cancels background jobs
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.baseCtx, cancel)
	defer stop()

	if err := s.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.workers.Release(1)

	return s.analyze(ctx, s.newID(), image)
}

// Status returns the current state of a job
func (s *ScanService) Status(ctx context.Context, id string) (*domain.ScanJob, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.jobs.Get(ctx, id)
}

// ListProducts returns saved products, newest first
func (s *ScanService) ListProducts(ctx context.Context, page domain.ProductPage) ([]domain.SavedProduct, error) {
	return s.products.List(ctx, page.Normalize())
}

// GetProduct returns one saved product
func (s *ScanService) GetProduct(ctx context.Context, id int64) (*domain.SavedProduct, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidRequest
	}
	return s.products.GetByID(ctx, id)
}

// Shutdown stops accepting jobs and inline scans and waits for running
// analyses. When ctx expires first, running analyses are cancelled and left
// as failed.
func (s *ScanService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// run analyses one job and stores its terminal state
func (s *ScanService) run(job domain.ScanJob, image *domain.LabelImage) {
	defer s.inflight.Done()

	if err := s.workers.Acquire(s.baseCtx, 1); err != nil {
		s.finish(job, nil, err)
		return
	}
	defer s.workers.Release(1)

	ctx, cancel := context.WithTimeout(s.baseCtx, s.analysisTimeout)
	defer cancel()

	result, err := s.analyze(ctx, job.ID, image)
	s.finish(job, result, err)
}

// finish records the outcome of a job; the store write uses its own context
// so a cancelled analysis is still reported as failed
func (s *ScanService) finish(job domain.ScanJob, result *domain.ScanResult, err error) {
	job.UpdatedAt = s.now()
	if err != nil {
		job.Status = domain.ScanStatusFailed
		job.Error = fmt.Sprintf("Failed to process image: %v", err)
		log.Printf("[Scan] Job %s failed: %v", job.ID, err)
	} else {
		job.Status = domain.ScanStatusCompleted
		job.ScannedData = result.ScannedData
		job.SavedData = result.SavedData
		job.ImageURL = result.ImageURL
		if result.DBError != nil {
			job.DBError = *result.DBError
		}
		log.Printf("[Scan] Job %s completed: %q", job.ID, result.ScannedData.Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.jobs.Save(ctx, &job, s.jobTTL); err != nil {
		log.Printf("[Scan] Job %s: storing final state failed: %v", job.ID, err)
	}
}

// analyze runs archive -> model -> parse -> normalize -> persist.
// Archive and persistence failures do not fail the analysis.
func (s *ScanService) analyze(ctx context.Context, id string, image *domain.LabelImage) (*domain.ScanResult, error) {
	result := &domain.ScanResult{}

	if s.images != nil {
		url, err := s.images.Put(ctx, id, image)
		if err != nil {
			log.Printf("[Scan] %s: archiving image failed: %v", id, err)
		} else {
			result.ImageURL = url
		}
	}

	content, err := s.analyzer.AnalyzeLabel(ctx, image)
	if err != nil {
		return nil, err
	}

	record, err := ParseProductRecord(content)
	if err != nil {
		log.Printf("[Scan] %s: unusable model response: %v", id, err)
		return nil, err
	}
	record = s.normalizer.Normalize(record)
	result.ScannedData = &record

	saved, err := s.products.Save(ctx, record)
	if err != nil {
		log.Printf("[Scan] %s: saving product failed: %v", id, err)
		msg := err.Error()
		result.DBError = &msg
	} else {
		result.SavedData = saved
	}

	return result, nil
}
