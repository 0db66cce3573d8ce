// Package scheduler re-renders the deadline table periodically.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

//go:generate moq -out mocks/renderer.go -pkg mocks -skip-ensure -fmt goimports . Renderer

// Renderer rebuilds the deadline table
type Renderer interface {
	RenderAll(ctx context.Context) error
}

// Scheduler manages periodic full re-renders of the table
type Scheduler struct {
	renderer       Renderer
	updateInterval time.Duration
	immediate      bool
	wg             sync.WaitGroup
	cancel         context.CancelFunc
}

// Config holds scheduler configuration
type Config struct {
	UpdateInterval time.Duration
	Immediate      bool // render on start, before the first interval passes
}

// NewScheduler creates a new scheduler instance
func NewScheduler(renderer Renderer, cfg Config) *Scheduler {
	if cfg.UpdateInterval == 0 {
		cfg.UpdateInterval = time.Hour
	}

	return &Scheduler{
		renderer:       renderer,
		updateInterval: cfg.UpdateInterval,
		immediate:      cfg.Immediate,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.updateWorker(ctx)

	lgr.Printf("[INFO] scheduler started with update interval %v", s.updateInterval)
}

// Stop gracefully stops the scheduler, waiting for a running render to finish
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// updateWorker periodically re-renders the table
func (s *Scheduler) updateWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	if s.immediate {
		s.update(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.update(ctx)
		}
	}
}

func (s *Scheduler) update(ctx context.Context) {
	lgr.Printf("[DEBUG] scheduled render")
	if err := s.renderer.RenderAll(ctx); err != nil {
		lgr.Printf("[WARN] scheduled render failed: %v", err)
	}
}
