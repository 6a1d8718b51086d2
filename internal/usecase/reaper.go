package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsDistributor/internal/ports"
)

// Reaper resets news rows stuck in the processing status. A crash between the
// processing-start write and the final status write leaves a row spinning
// forever on the dashboard; the sweep flips over-age rows back to pending so
// they read as retryable. Per-platform link and shared columns are untouched.
type Reaper struct {
	driver     ports.Scheduler
	repository ports.NewsRepository
	maxAge     time.Duration
	logger     *slog.Logger
}

// NewReaper wires the cron-like driver with the sweep.
func NewReaper(driver ports.Scheduler, repository ports.NewsRepository, maxAge time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{driver: driver, repository: repository, maxAge: maxAge, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (r *Reaper) Start(ctx context.Context) error {
	if r.driver == nil || r.repository == nil {
		return nil
	}

	job := func(trigger time.Time) {
		r.Sweep(ctx, trigger)
	}

	return r.driver.Start(ctx, job)
}

// Sweep resets every row that entered processing before now-maxAge. One
// statement finds and resets, so the logged ids are exactly the rows changed.
func (r *Reaper) Sweep(ctx context.Context, now time.Time) {
	cutoff := now.Add(-r.maxAge)

	reset, err := r.repository.ResetStuck(ctx, cutoff)
	if err != nil {
		r.error("reset stuck rows", "error", err)
		return
	}
	if len(reset) == 0 {
		return
	}

	r.warn("reset stuck distributions", "news_ids", reset, "count", len(reset))
}

// Stop gracefully tears down the underlying scheduler.
func (r *Reaper) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}

	return r.driver.Stop(ctx)
}

func (r *Reaper) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Reaper) error(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
