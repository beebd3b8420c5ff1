package models

import "time"

// ItemKind tags a learnable item with the catalog category it came from
// (vocabulary, grammar, listening, ...). The engine treats it as an opaque
// part of the record identity.
type ItemKind string

// DefaultEasinessFactor is the SM-2 starting ease for a brand new record.
const DefaultEasinessFactor = 2.5

// MinEasinessFactor is the SM-2 floor; the ease factor never drops below it.
const MinEasinessFactor = 1.3

// LearningRecord tracks one user's scheduling state for a single learnable
// item using the SM-2 algorithm. There is exactly one record per
// (user, item, kind) triple; it is replaced wholesale on every review.
type LearningRecord struct {
	UserID         string        `json:"user_id" db:"user_id"`
	ItemID         string        `json:"item_id" db:"item_id"`
	ItemKind       ItemKind      `json:"item_kind" db:"item_kind"`
	AttemptCount   int           `json:"attempt_count" db:"attempt_count"`     // Total reviews ever submitted
	CorrectCount   int           `json:"correct_count" db:"correct_count"`     // Reviews with quality >= 3
	EasinessFactor float64       `json:"easiness_factor" db:"easiness_factor"` // SM-2 EF parameter, floor 1.3
	IntervalDays   int           `json:"interval_days" db:"interval_days"`     // Days until the next scheduled review
	ReviewStreak   int           `json:"review_streak" db:"review_streak"`     // Successes since the last failure
	RecentOutcomes OutcomeWindow `json:"recent_outcomes" db:"recent_outcomes"` // Trailing pass/fail window
	MemoryStrength float64       `json:"memory_strength" db:"memory_strength"` // Confidence in [0,1] at review time
	MasteryLevel   MasteryLevel  `json:"mastery_level" db:"mastery_level"`
	LastReviewedAt time.Time     `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextDueAt      time.Time     `json:"next_due_at" db:"next_due_at"`
	Retired        bool          `json:"retired" db:"retired"` // Soft delete: excluded from due queries
	Version        int64         `json:"version" db:"version"` // Optimistic concurrency token
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// NewLearningRecord returns a record with scheduling defaults for an item
// that has never been reviewed. Version 0 marks it as not yet persisted.
func NewLearningRecord(userID, itemID string, kind ItemKind) *LearningRecord {
	return &LearningRecord{
		UserID:         userID,
		ItemID:         itemID,
		ItemKind:       kind,
		EasinessFactor: DefaultEasinessFactor,
		IntervalDays:   1,
		MasteryLevel:   MasteryNew,
	}
}
