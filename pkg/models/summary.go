package models

import "time"

// MasterySummary is what a review submission returns to the caller: the
// committed scheduling state for the reviewed item.
type MasterySummary struct {
	UserID         string       `json:"user_id"`
	ItemID         string       `json:"item_id"`
	ItemKind       ItemKind     `json:"item_kind"`
	MasteryLevel   MasteryLevel `json:"mastery_level"`
	EasinessFactor float64      `json:"easiness_factor"`
	IntervalDays   int          `json:"interval_days"`
	NextDueAt      time.Time    `json:"next_due_at"`
	AttemptCount   int          `json:"attempt_count"`
	CorrectCount   int          `json:"correct_count"`
	MemoryStrength float64      `json:"memory_strength"`
}

// RecordSummary is the compact progress view exposed for display purposes.
type RecordSummary struct {
	MasteryLevel   MasteryLevel `json:"mastery_level"`
	NextDueAt      time.Time    `json:"next_due_at"`
	EasinessFactor float64      `json:"easiness_factor"`
}

// DueItem is one entry of a due queue, ordered most-urgent first.
type DueItem struct {
	ItemID         string       `json:"item_id"`
	ItemKind       ItemKind     `json:"item_kind"`
	NextDueAt      time.Time    `json:"next_due_at"`
	OverdueDays    float64      `json:"overdue_days"`
	MemoryStrength float64      `json:"memory_strength"` // Decayed to the query time
	MasteryLevel   MasteryLevel `json:"mastery_level"`
}
