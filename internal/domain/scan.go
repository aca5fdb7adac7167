package domain

import "time"

// ScanStatus is the lifecycle state of a ScanJob
type ScanStatus string

const (
	ScanStatusProcessing ScanStatus = "processing"
	ScanStatusCompleted  ScanStatus = "completed"
	ScanStatusFailed     ScanStatus = "failed"
)

// IsTerminal reports whether no further transitions can happen
func (s ScanStatus) IsTerminal() bool {
	return s == ScanStatusCompleted || s == ScanStatusFailed
}

// ScanJob tracks one asynchronous label analysis
type ScanJob struct {
	ID          string         `json:"id"`
	Status      ScanStatus     `json:"status"`
	ScannedData *ProductRecord `json:"scannedData,omitempty"`
	SavedData   *SavedProduct  `json:"savedData,omitempty"`
	DBError     string         `json:"dbError,omitempty"`
	Error       string         `json:"error,omitempty"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ScanResult is what one analysis produces, whether run inline or as a job
type ScanResult struct {
	ScannedData *ProductRecord `json:"scannedData"`
	SavedData   *SavedProduct  `json:"savedData"`
	DBError     *string        `json:"dbError"`
	ImageURL    string         `json:"imageUrl,omitempty"`
}

// LabelImage is an uploaded label photo
type LabelImage struct {
	Data        []byte
	ContentType string
	Filename    string
}
