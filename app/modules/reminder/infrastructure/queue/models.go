package reminderqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueName is the River queue the sweep job runs on.
const QueueName = "reminder"

// SweepArgs triggers one pass of the due-reminder dispatcher.
type SweepArgs struct{}

// Kind returns the job type identifier for River
func (SweepArgs) Kind() string { return "reminder_sweep" }

// InsertOpts routes sweeps to the reminder queue. A failed sweep is not
// retried by River; the next periodic run picks up the same rows.
func (SweepArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueName, MaxAttempts: 1}
}

// SweepStats summarises one dispatcher pass.
type SweepStats struct {
	Scanned   int
	Claimed   int
	Published int
	Finalized int
	Duration  time.Duration
}
