// Package engine wires the scheduler, the record store and the queue
// selector into the scheduling API consumed by the presentation layer and
// the content catalog.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/queue"
	"github.com/example/recall/internal/sm2"
	"github.com/example/recall/pkg/models"
)

// Defaults for the contended-upsert retry loop.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 10 * time.Millisecond
)

// Engine is the scheduling facade. It is safe for concurrent use; per-record
// serialization happens in the store via version checks, so reviews of
// different items never block each other.
type Engine struct {
	store *database.RecordStore
	sched *sm2.Scheduler
	sel   *queue.Selector
	log   *zap.Logger

	retryAttempts int
	retryBackoff  time.Duration
	now           func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRetry sets the attempt budget and initial backoff for contended
// upserts. The backoff doubles per attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(e *Engine) {
		if attempts > 0 {
			e.retryAttempts = attempts
		}
		if backoff > 0 {
			e.retryBackoff = backoff
		}
	}
}

// WithClock overrides the review timestamp source. Tests use this; the
// engine itself never schedules anything against the clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine over its three collaborators. All dependencies are
// explicit; the engine keeps no global state.
func New(store *database.RecordStore, sched *sm2.Scheduler, sel *queue.Selector, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store:         store,
		sched:         sched,
		sel:           sel,
		log:           log,
		retryAttempts: DefaultRetryAttempts,
		retryBackoff:  DefaultRetryBackoff,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// QualityFromCorrect maps a bare pass/fail signal onto the 0-5 recall scale.
// This is caller policy fixed at the engine boundary: a correct answer is
// treated as a perfect recall, a wrong one lands at 2 so the ease penalty
// stays moderate. Callers able to grade recall should pass quality directly.
func QualityFromCorrect(correct bool) int {
	if correct {
		return 5
	}
	return 2
}

// SubmitReview records one review of an item and returns the committed
// mastery summary. An item with no prior history gets a fresh record; this
// is the creation path, not an error. Concurrent reviews of the same item
// are serialized via a bounded read-modify-write retry; when the budget runs
// out the caller gets ErrConflict and may retry idempotently.
func (e *Engine) SubmitReview(ctx context.Context, userID, itemID string, kind models.ItemKind, quality int) (*models.MasterySummary, error) {
	if err := validateKey(userID, itemID, kind); err != nil {
		return nil, err
	}
	if quality < sm2.MinQuality || quality > sm2.MaxQuality {
		return nil, fmt.Errorf("%w: quality %d out of range [0,5]", ErrValidation, quality)
	}

	var lastErr error
	for attempt := 0; attempt < e.retryAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, e.retryBackoff<<(attempt-1)); err != nil {
				return nil, err
			}
		}

		rec, err := e.store.Get(ctx, userID, itemID, kind)
		switch {
		case errors.Is(err, ErrNotFound):
			rec = models.NewLearningRecord(userID, itemID, kind)
		case err != nil:
			return nil, err
		case rec.Retired:
			return nil, fmt.Errorf("%w: item retired: user=%s item=%s", ErrNotFound, userID, itemID)
		}

		updated, err := e.sched.Review(*rec, quality, e.now())
		if err != nil {
			// Unreachable after the range check above, but the scheduler's
			// verdict wins.
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}

		if err := e.store.Upsert(ctx, &updated); err != nil {
			if errors.Is(err, ErrConflict) {
				lastErr = err
				e.log.Debug("review upsert contended, retrying",
					zap.String("user_id", userID),
					zap.String("item_id", itemID),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, err
		}

		return &models.MasterySummary{
			UserID:         updated.UserID,
			ItemID:         updated.ItemID,
			ItemKind:       updated.ItemKind,
			MasteryLevel:   updated.MasteryLevel,
			EasinessFactor: updated.EasinessFactor,
			IntervalDays:   updated.IntervalDays,
			NextDueAt:      updated.NextDueAt,
			AttemptCount:   updated.AttemptCount,
			CorrectCount:   updated.CorrectCount,
			MemoryStrength: updated.MemoryStrength,
		}, nil
	}
	return nil, fmt.Errorf("%w: retry budget exhausted after %d attempts: %v", ErrConflict, e.retryAttempts, lastErr)
}

// GetDueQueue returns the user's due items as of the caller-supplied time,
// most urgent first, bounded by limit.
func (e *Engine) GetDueQueue(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.DueItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrValidation)
	}
	return e.sel.Select(ctx, userID, asOf, limit)
}

// GetRecordSummary returns the compact progress view for one item, or
// ErrNotFound when the item has no history.
func (e *Engine) GetRecordSummary(ctx context.Context, userID, itemID string, kind models.ItemKind) (*models.RecordSummary, error) {
	if err := validateKey(userID, itemID, kind); err != nil {
		return nil, err
	}
	rec, err := e.store.Get(ctx, userID, itemID, kind)
	if err != nil {
		return nil, err
	}
	return &models.RecordSummary{
		MasteryLevel:   rec.MasteryLevel,
		NextDueAt:      rec.NextDueAt,
		EasinessFactor: rec.EasinessFactor,
	}, nil
}

// Retire handles an item-retirement event from the content catalog: the
// record drops out of due queries while its history stays untouched.
func (e *Engine) Retire(ctx context.Context, userID, itemID string, kind models.ItemKind) error {
	if err := validateKey(userID, itemID, kind); err != nil {
		return err
	}
	return e.store.Retire(ctx, userID, itemID, kind)
}

// Stats aggregates a user's active records; the due count is judged against
// asOf.
func (e *Engine) Stats(ctx context.Context, userID string, asOf time.Time) (*models.UserStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrValidation)
	}
	return e.store.UserStats(ctx, userID, asOf)
}

// Users lists every user with active records, for batch consumers like the
// reminder digest.
func (e *Engine) Users(ctx context.Context) ([]string, error) {
	return e.store.ListUsers(ctx)
}

func validateKey(userID, itemID string, kind models.ItemKind) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrValidation)
	}
	if itemID == "" {
		return fmt.Errorf("%w: empty item id", ErrValidation)
	}
	if kind == "" {
		return fmt.Errorf("%w: empty item kind", ErrValidation)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
