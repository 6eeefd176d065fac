// Package sweeper contains the periodic background tasks that advance trip
// and vehicle lifecycle state and collect expired seat holds. Each sweeper
// exposes RunOnce so tests can drive ticks directly; Run loops on a ticker
// and never overlaps one tick with the next.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Sweeper is one periodic background task.
type Sweeper interface {
	// Name identifies the sweeper in logs and APM traces.
	Name() string

	// RunOnce processes all currently due records. A failure on one record
	// is logged and does not abort the rest of the batch; RunOnce only
	// returns an error when the batch itself cannot be read.
	RunOnce(ctx context.Context) error
}

// Runner drives a sweeper on a fixed tick.
type Runner struct {
	sweeper  Sweeper
	interval time.Duration
	nrApp    *newrelic.Application
}

// NewRunner creates a runner for the given sweeper.
func NewRunner(sweeper Sweeper, interval time.Duration, nrApp *newrelic.Application) *Runner {
	return &Runner{
		sweeper:  sweeper,
		interval: interval,
		nrApp:    nrApp,
	}
}

// Run loops until ctx is cancelled. Ticks are serial: a slow sweep delays
// the next tick rather than overlapping it.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("sweeper %s: running every %s", r.sweeper.Name(), r.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper %s: stopped", r.sweeper.Name())
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if r.nrApp != nil {
		txn := r.nrApp.StartTransaction("sweep/" + r.sweeper.Name())
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	if err := r.sweeper.RunOnce(ctx); err != nil {
		log.Printf("sweeper %s: %v", r.sweeper.Name(), err)
	}
}
