// Package scheduler runs periodic maintenance for scan jobs.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/labelscan/backend/internal/domain"
	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and evicts expired scan jobs
type Scheduler struct {
	cron    *cron.Cron
	sweeper domain.JobSweeper
	spec    string // cron spec, e.g. "@every 10m"
}

// New creates a Scheduler that sweeps on the given cron spec
func New(sweeper domain.JobSweeper, spec string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		sweeper: sweeper,
		spec:    spec,
	}
}

// Start registers the sweep and starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[Scheduler] Cron started, spec: %s", s.spec)
	return nil
}

// Stop shuts down the scheduler and waits for a running sweep
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Scheduler] Cron stopped")
}

func (s *Scheduler) sweep(ctx context.Context) {
	removed, err := s.sweeper.Sweep(ctx)
	if err != nil {
		log.Printf("[Scheduler] Sweep error: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Scheduler] Removed %d expired scan job(s)", removed)
	}
}
