// Package queue turns the raw set of due records into the bounded, ordered
// list of items a study session should present next.
package queue

import (
	"context"
	"sort"
	"time"

	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/sm2"
	"github.com/example/recall/pkg/models"
)

// Selector orders due records for presentation. It holds no state between
// calls; every Select re-queries the store.
type Selector struct {
	store *database.RecordStore
}

// NewSelector creates a selector over the given store.
func NewSelector(store *database.RecordStore) *Selector {
	return &Selector{store: store}
}

// Select returns at most limit due items for the user, most urgent first:
// most overdue, then weakest decayed memory strength, then item ID for a
// deterministic order. Items due after asOf are excluded outright. A limit
// of zero or less yields an empty queue.
func (s *Selector) Select(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.DueItem, error) {
	if limit <= 0 {
		return []models.DueItem{}, nil
	}

	// Fetch the full due set: the store orders by due date only, and the
	// strength tie-break below can reshuffle records across the limit
	// boundary.
	recs, err := s.store.QueryDue(ctx, userID, asOf, 0)
	if err != nil {
		return nil, err
	}

	items := make([]models.DueItem, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		items = append(items, models.DueItem{
			ItemID:         rec.ItemID,
			ItemKind:       rec.ItemKind,
			NextDueAt:      rec.NextDueAt,
			OverdueDays:    asOf.Sub(rec.NextDueAt).Hours() / 24,
			MemoryStrength: sm2.StrengthAt(rec, asOf),
			MasteryLevel:   rec.MasteryLevel,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].OverdueDays != items[j].OverdueDays {
			return items[i].OverdueDays > items[j].OverdueDays
		}
		if items[i].MemoryStrength != items[j].MemoryStrength {
			return items[i].MemoryStrength < items[j].MemoryStrength
		}
		return items[i].ItemID < items[j].ItemID
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
