// Package schedule fires the batch sweeps once per UTC day. The handlers are
// idempotent and keep no state between runs, so a missed tick is harmless.
package schedule

import (
	"context"
	"log/slog"
	"time"

	batchsvc "github.com/fercon997/accountable-challenge/service/batch"
)

type Scheduler struct {
	batch batchsvc.Service
	log   *slog.Logger
}

func New(batch batchsvc.Service, log *slog.Logger) *Scheduler {
	return &Scheduler{batch: batch, log: log}
}

// Start launches one goroutine per job; they stop when ctx is canceled.
// Late fees accrue at midnight, both return notices go out at noon.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runDaily(ctx, 0, "late-fees", s.batch.HandleLateReservations)
	go s.runDaily(ctx, 12, "close-to-return", s.batch.HandleCloseToReturn)
	go s.runDaily(ctx, 12, "seven-days-late", s.batch.Handle7DaysLate)
}

func (s *Scheduler) runDaily(ctx context.Context, hour int, name string, job func(context.Context) error) {
	for {
		next := nextRun(time.Now().UTC(), hour)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.log.Info("running batch job", "job", name)
		if err := job(ctx); err != nil {
			s.log.Error("batch job failed", "job", name, "err", err)
		}
	}
}

// nextRun returns the next occurrence of the given UTC hour strictly after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
