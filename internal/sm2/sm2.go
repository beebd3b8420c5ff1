// Package sm2 implements the SuperMemo-2 spaced repetition algorithm as a
// pure state transition over learning records. It performs no I/O and never
// reads the clock; callers supply the review time.
package sm2

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/recall/pkg/models"
)

// ErrInvalidQuality is returned when a review quality falls outside [0,5].
// Check with errors.Is.
var ErrInvalidQuality = errors.New("sm2: quality must be between 0 and 5")

// Quality bounds of the SM-2 recall scale.
const (
	MinQuality = 0 // Complete blackout, unable to recall
	MaxQuality = 5 // Perfect response with no hesitation
)

// Params tunes the scheduler. The zero value is not usable; start from
// DefaultParams.
type Params struct {
	// PassThreshold is the lowest quality counted as a successful recall.
	PassThreshold int
	// SecondIntervalDays is the interval after the second consecutive success.
	// The first success is always scheduled one day out.
	SecondIntervalDays int
	// MaxIntervalDays caps interval growth.
	MaxIntervalDays int
	// StreakBonusLength is the run of successes that earns an ease bonus.
	StreakBonusLength int
	// StreakBonus is added to the ease factor after StreakBonusLength
	// consecutive successes.
	StreakBonus float64
	// FailurePenaltyLength is the run of failures that triggers an ease
	// penalty.
	FailurePenaltyLength int
	// FailurePenalty is subtracted from the ease factor after
	// FailurePenaltyLength consecutive failures.
	FailurePenalty float64
}

// DefaultParams returns the standard SM-2 tuning.
func DefaultParams() Params {
	return Params{
		PassThreshold:        3,
		SecondIntervalDays:   6,
		MaxIntervalDays:      365,
		StreakBonusLength:    3,
		StreakBonus:          0.1,
		FailurePenaltyLength: 2,
		FailurePenalty:       0.2,
	}
}

// Scheduler computes the next scheduling state for a record given a review
// outcome. It is stateless and safe for concurrent use.
type Scheduler struct {
	params Params
}

// New creates a scheduler with DefaultParams.
func New() *Scheduler {
	return NewWithParams(DefaultParams())
}

// NewWithParams creates a scheduler with explicit tuning.
func NewWithParams(p Params) *Scheduler {
	return &Scheduler{params: p}
}

// Params returns the scheduler's tuning.
func (s *Scheduler) Params() Params {
	return s.params
}

// Review applies one review of the given quality at the given time and
// returns the updated record. The input record is not modified. Quality
// outside [0,5] returns ErrInvalidQuality and an unchanged copy.
func (s *Scheduler) Review(rec models.LearningRecord, quality int, now time.Time) (models.LearningRecord, error) {
	if quality < MinQuality || quality > MaxQuality {
		return rec, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	p := s.params
	success := quality >= p.PassThreshold
	prevLevel := rec.MasteryLevel

	rec.AttemptCount++
	if success {
		rec.CorrectCount++
	}

	// Interval ladder: 1 day, then SecondIntervalDays, then growth by the
	// ease factor as it stood before this review. A failure drops the record
	// back into the short-interval regime without touching the historical
	// counters.
	if success {
		rec.ReviewStreak++
		switch rec.ReviewStreak {
		case 1:
			rec.IntervalDays = 1
		case 2:
			rec.IntervalDays = p.SecondIntervalDays
		default:
			rec.IntervalDays = clampInterval(int(math.Round(float64(rec.IntervalDays)*rec.EasinessFactor)), p.MaxIntervalDays)
		}
	} else {
		rec.ReviewStreak = 0
		rec.IntervalDays = 1
	}

	// Ease factor update applies on success and failure alike.
	miss := float64(MaxQuality - quality)
	rec.EasinessFactor = floorEF(rec.EasinessFactor + (0.1 - miss*(0.08+miss*0.02)))

	// Streak nudge, judged on the window including this outcome.
	rec.RecentOutcomes = rec.RecentOutcomes.Push(success)
	if rec.RecentOutcomes.TrailingSuccesses(p.StreakBonusLength) {
		rec.EasinessFactor = floorEF(rec.EasinessFactor + p.StreakBonus)
	} else if rec.RecentOutcomes.TrailingFailures(p.FailurePenaltyLength) {
		rec.EasinessFactor = floorEF(rec.EasinessFactor - p.FailurePenalty)
	}

	rec.LastReviewedAt = now
	rec.NextDueAt = now.AddDate(0, 0, rec.IntervalDays)

	rec.MemoryStrength = reviewedStrength(rec.MemoryStrength, quality, p.PassThreshold)
	rec.MasteryLevel = clampMastery(prevLevel, Classify(rec.AttemptCount, rec.CorrectCount, rec.EasinessFactor, rec.IntervalDays), success)

	return rec, nil
}

func clampInterval(days, max int) int {
	if days < 1 {
		return 1
	}
	if days > max {
		return max
	}
	return days
}

func floorEF(ef float64) float64 {
	if ef < models.MinEasinessFactor {
		return models.MinEasinessFactor
	}
	return ef
}

// clampMastery keeps classification monotonic per outcome: a success never
// lowers the level and a failure never raises it.
func clampMastery(prev, next models.MasteryLevel, success bool) models.MasteryLevel {
	if success && next.Rank() < prev.Rank() {
		return prev
	}
	if !success && next.Rank() > prev.Rank() {
		return prev
	}
	return next
}
