// Package reminder runs the periodic due-digest job. It lives outside the
// scheduling engine: it is an ordinary caller that supplies the current time
// to the engine's due query, so the engine itself owns no timers.
package reminder

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/recall/internal/config"
	"github.com/example/recall/internal/engine"
)

// Notifier delivers a due reminder to a user. Implementations belong to the
// presentation layer (chat bot, email, push).
type Notifier interface {
	SendDueReminder(userID string, dueCount int) error
}

// Reminder periodically checks every user's due queue and notifies users who
// have items waiting, within the configured hours of the day.
type Reminder struct {
	scheduler *gocron.Scheduler
	engine    *engine.Engine
	notifier  Notifier
	cfg       config.Reminder
	log       *zap.Logger
}

// New creates a reminder job runner.
func New(eng *engine.Engine, notifier Notifier, cfg config.Reminder, log *zap.Logger) *Reminder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reminder{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    eng,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

// Start schedules the hourly digest and returns immediately.
func (r *Reminder) Start() {
	r.scheduler.Every(1).Hour().Do(r.runDigest)
	r.scheduler.StartAsync()
}

// Stop halts the scheduled job.
func (r *Reminder) Stop() {
	r.scheduler.Stop()
}

// runDigest is one tick of the digest job.
func (r *Reminder) runDigest() {
	r.RunOnce(context.Background(), time.Now())
}

// RunOnce performs a single digest pass as of the given time. Exposed so the
// CLI and tests can trigger a pass without waiting for the schedule.
func (r *Reminder) RunOnce(ctx context.Context, asOf time.Time) {
	hour := asOf.Hour()
	if hour < r.cfg.StartHour || hour > r.cfg.EndHour {
		r.log.Debug("outside notification hours, skipping digest",
			zap.Int("hour", hour),
			zap.Int("start", r.cfg.StartHour),
			zap.Int("end", r.cfg.EndHour))
		return
	}

	users, err := r.engine.Users(ctx)
	if err != nil {
		r.log.Error("failed to list users for digest", zap.Error(err))
		return
	}

	for _, userID := range users {
		due, err := r.engine.GetDueQueue(ctx, userID, asOf, r.cfg.DueLimit)
		if err != nil {
			r.log.Error("failed to query due queue",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if len(due) == 0 {
			continue
		}
		if err := r.notifier.SendDueReminder(userID, len(due)); err != nil {
			r.log.Error("failed to send reminder",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
}
