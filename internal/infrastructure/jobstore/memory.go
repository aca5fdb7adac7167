// Package jobstore keeps scan jobs between submission and the client's last poll.
package jobstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/labelscan/backend/internal/domain"
)

// jobItem holds one serialized job with its expiration
type jobItem struct {
	Value      []byte
	Expiration time.Time
}

// MemoryStore is a thread-safe in-process job store with TTL support.
// Jobs are lost on restart.
type MemoryStore struct {
	data  map[string]jobItem
	mutex sync.RWMutex
	now   func() time.Time
}

// NewMemoryStore creates a new in-memory job store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]jobItem),
		now:  time.Now,
	}
}

// Save stores a snapshot of the job, replacing any previous one, for ttl
func (s *MemoryStore) Save(ctx context.Context, job *domain.ScanJob, ttl time.Duration) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidRequest
	}

	// Serialize so callers never share memory with the store, as with Redis
	jsonData, err := json.Marshal(job)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[job.ID] = jobItem{
		Value:      jsonData,
		Expiration: s.now().Add(ttl),
	}

	return nil
}

// Get returns a copy of the job
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.ScanJob, error) {
	s.mutex.RLock()
	item, exists := s.data[id]
	s.mutex.RUnlock()

	if !exists || s.now().After(item.Expiration) {
		return nil, domain.ErrJobNotFound
	}

	var job domain.ScanJob
	if err := json.Unmarshal(item.Value, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Sweep removes expired jobs and returns how many were dropped
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for id, item := range s.data {
		if now.After(item.Expiration) {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}
