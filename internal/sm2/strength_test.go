package sm2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/recall/pkg/models"
)

func TestReviewedStrength(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		quality int
		want    float64
	}{
		{"perfect recall from zero", 0, 5, 0.4},
		{"threshold recall from zero", 0, 3, 0.2},
		{"success compounds toward one", 0.5, 5, 0.7},
		{"failure halves", 0.8, 2, 0.4},
		{"blackout halves", 0.8, 0, 0.4},
		{"already saturated", 1.0, 5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reviewedStrength(tt.current, tt.quality, 3)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestStrengthAt(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rec := &models.LearningRecord{
		MemoryStrength: 0.8,
		IntervalDays:   4,
		NextDueAt:      due,
	}

	t.Run("no decay before due", func(t *testing.T) {
		assert.InDelta(t, 0.8, StrengthAt(rec, due.Add(-time.Hour)), 1e-9)
		assert.InDelta(t, 0.8, StrengthAt(rec, due), 1e-9)
	})

	t.Run("halves after one interval overdue", func(t *testing.T) {
		assert.InDelta(t, 0.4, StrengthAt(rec, due.AddDate(0, 0, 4)), 1e-9)
	})

	t.Run("keeps decaying", func(t *testing.T) {
		assert.InDelta(t, 0.2, StrengthAt(rec, due.AddDate(0, 0, 8)), 1e-9)
	})

	t.Run("stays in range", func(t *testing.T) {
		got := StrengthAt(rec, due.AddDate(2, 0, 0))
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 0.01)
	})
}
