package worker

import (
	"context"
	"log"
	"time"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

// StaleClaimWorker periodically returns leads stuck in MATCHING back to NEW.
// A claim goes stale when a dispatch call was abandoned mid-flight (caller
// cancellation, crash); re-dispatching such a lead is always safe.
type StaleClaimWorker struct {
	leads        entity.LeadRepositoryInterface
	window       time.Duration
	tickInterval time.Duration
}

func NewStaleClaimWorker(leads entity.LeadRepositoryInterface, window, tickInterval time.Duration) *StaleClaimWorker {
	if window <= 0 {
		window = 5 * time.Minute
	}
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &StaleClaimWorker{
		leads:        leads,
		window:       window,
		tickInterval: tickInterval,
	}
}

func (w *StaleClaimWorker) Start(ctx context.Context) {
	log.Printf("[sweeper] stale claim worker started (%s window)", w.window)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[sweeper] stale claim worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *StaleClaimWorker) sweep(ctx context.Context) {
	released, err := w.leads.ReleaseStale(ctx, w.window)
	if err != nil {
		log.Printf("[sweeper] release failed: %v", err)
		return
	}

	if released > 0 {
		log.Printf("[sweeper] released %d stale claim(s) back to NEW", released)
	}
}
