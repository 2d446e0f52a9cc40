package reminderqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/riverqueue/river"
)

// SweepWorker runs the dispatcher when River executes a SweepArgs job.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]
	dispatcher *Dispatcher
	timeout    time.Duration
	logger     *slog.Logger
}

// NewSweepWorker creates a SweepWorker. timeout bounds a single sweep.
func NewSweepWorker(dispatcher *Dispatcher, timeout time.Duration, logger *slog.Logger) *SweepWorker {
	return &SweepWorker{dispatcher: dispatcher, timeout: timeout, logger: logger}
}

// Timeout overrides River's default job timeout.
func (w *SweepWorker) Timeout(*river.Job[SweepArgs]) time.Duration {
	return w.timeout
}

// Work executes one sweep.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	stats, err := w.dispatcher.Sweep(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Reminder sweep failed",
			attr.Int64("job_id", job.ID),
			attr.Int("scanned", stats.Scanned),
			attr.Error(err),
		)
		return err
	}
	return nil
}
