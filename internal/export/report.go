// Package export writes per-user progress reports as Excel workbooks.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/recall/internal/database"
	"github.com/example/recall/pkg/models"
)

// Sheet names of the generated workbook.
const (
	RecordsSheet = "Records"
	SummarySheet = "Summary"
)

// Exporter renders a user's learning records and aggregate statistics into
// an .xlsx workbook for offline review.
type Exporter struct {
	store *database.RecordStore
}

// NewExporter creates an exporter over the given store.
func NewExporter(store *database.RecordStore) *Exporter {
	return &Exporter{store: store}
}

var recordHeaders = []string{
	"Item", "Kind", "Mastery", "Attempts", "Correct",
	"Ease Factor", "Interval (days)", "Strength", "Last Reviewed", "Next Due", "Retired",
}

// WriteUserReport writes the user's full progress report to path. Due counts
// in the summary sheet are judged against asOf.
func (e *Exporter) WriteUserReport(ctx context.Context, userID string, asOf time.Time, path string) error {
	recs, err := e.store.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	stats, err := e.store.UserStats(ctx, userID, asOf)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return fmt.Errorf("failed to rename records sheet: %w", err)
	}
	for col, h := range recordHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(RecordsSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, rec := range recs {
		row := i + 2
		values := []interface{}{
			rec.ItemID,
			string(rec.ItemKind),
			string(rec.MasteryLevel),
			rec.AttemptCount,
			rec.CorrectCount,
			rec.EasinessFactor,
			rec.IntervalDays,
			rec.MemoryStrength,
			rec.LastReviewedAt.Format(time.RFC3339),
			rec.NextDueAt.Format(time.RFC3339),
			rec.Retired,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(RecordsSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write record row: %w", err)
			}
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSummary(f, userID, asOf, stats); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, userID string, asOf time.Time, stats *models.UserStats) error {
	rows := [][2]interface{}{
		{"User", userID},
		{"As Of", asOf.Format(time.RFC3339)},
		{"Total Items", stats.TotalItems},
		{"New", stats.NewItems},
		{"Learning", stats.LearningItems},
		{"Familiar", stats.FamiliarItems},
		{"Mastered", stats.MasteredItems},
		{"Due Now", stats.DueItems},
		{"Total Attempts", stats.TotalAttempts},
		{"Correct Attempts", stats.CorrectAttempts},
		{"Accuracy", stats.AccuracyRatio()},
		{"Avg Ease Factor", stats.AvgEasinessFactor},
	}
	for i, kv := range rows {
		row := i + 1
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), kv[0]); err != nil {
			return fmt.Errorf("failed to write summary label: %w", err)
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), kv[1]); err != nil {
			return fmt.Errorf("failed to write summary value: %w", err)
		}
	}
	return nil
}
