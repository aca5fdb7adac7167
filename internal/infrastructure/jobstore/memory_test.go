package jobstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/labelscan/backend/internal/domain"
)

func newJob(id string) *domain.ScanJob {
	return &domain.ScanJob{
		ID:        id,
		Status:    domain.ScanStatusProcessing,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	price := 4.99
	job := newJob("job-1")
	job.Status = domain.ScanStatusCompleted
	job.ScannedData = &domain.ProductRecord{
		Name:        "Mleko",
		Price:       &price,
		Ingredients: []string{"mleko"},
		Macronutrients: domain.Macronutrients{
			Calories: 64, Protein: 3.2, Carbohydrates: 4.7, Fat: 3.5,
		},
	}

	if err := store.Save(ctx, job, time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.ScanStatusCompleted {
		t.Errorf("Status = %v, want completed", got.Status)
	}
	if got.ScannedData == nil || got.ScannedData.Name != "Mleko" {
		t.Fatalf("ScannedData = %+v, want Mleko", got.ScannedData)
	}
	if got.ScannedData.Price == nil || *got.ScannedData.Price != 4.99 {
		t.Errorf("Price = %v, want 4.99", got.ScannedData.Price)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job := newJob("job-copy")
	if err := store.Save(ctx, job, time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the caller's value must not reach the store
	job.Status = domain.ScanStatusFailed

	got, _ := store.Get(ctx, "job-copy")
	if got.Status != domain.ScanStatusProcessing {
		t.Errorf("Status = %v, want processing", got.Status)
	}

	got.Status = domain.ScanStatusCompleted
	again, _ := store.Get(ctx, "job-copy")
	if again.Status != domain.ScanStatusProcessing {
		t.Errorf("Status after mutating returned copy = %v, want processing", again.Status)
	}
}

func TestMemoryStore_SaveRejectsInvalidJob(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, nil, time.Minute); err != domain.ErrInvalidRequest {
		t.Errorf("Save(nil) error = %v, want %v", err, domain.ErrInvalidRequest)
	}
	if err := store.Save(ctx, &domain.ScanJob{}, time.Minute); err != domain.ErrInvalidRequest {
		t.Errorf("Save(no id) error = %v, want %v", err, domain.ErrInvalidRequest)
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "non-existent-key")
	if err != domain.ErrJobNotFound {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

func TestMemoryStore_Expiration(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Save(ctx, newJob("short"), time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := store.Get(ctx, "short"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	now = now.Add(2 * time.Minute)

	if _, err := store.Get(ctx, "short"); err != domain.ErrJobNotFound {
		t.Errorf("Get() after expiry error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

// stored counts jobs held by the store, expired ones included until swept
func stored(store *MemoryStore) int {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return len(store.data)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Save(ctx, newJob("old-1"), time.Minute)
	store.Save(ctx, newJob("old-2"), time.Minute)
	store.Save(ctx, newJob("fresh"), time.Hour)

	now = now.Add(5 * time.Minute)

	removed, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Sweep() removed = %d, want 2", removed)
	}
	if size := stored(store); size != 1 {
		t.Errorf("stored = %d, want 1 after sweep", size)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("Get(fresh) error = %v", err)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("job-%d", id)
			if err := store.Save(ctx, newJob(key), time.Minute); err != nil {
				t.Errorf("Concurrent Save() error = %v", err)
			}
			if _, err := store.Get(ctx, key); err != nil {
				t.Errorf("Concurrent Get() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if size := stored(store); size != 10 {
		t.Errorf("stored = %d, want 10", size)
	}
}
