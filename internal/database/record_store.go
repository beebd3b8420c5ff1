package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/example/recall/pkg/models"
)

// RecordStore is the single writer path for learning records. Concurrent
// updates to the same (user, item, kind) key are serialized with an
// optimistic version check; reviews of different items proceed in parallel.
// Queries are written with ? placeholders and rebound per driver.
type RecordStore struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewRecordStore creates a store over an open database handle.
func NewRecordStore(db *sqlx.DB, log *zap.Logger) *RecordStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordStore{db: db, log: log}
}

const recordColumns = `user_id, item_id, item_kind, attempt_count, correct_count,
	easiness_factor, interval_days, review_streak, recent_outcomes,
	memory_strength, mastery_level, last_reviewed_at, next_due_at,
	retired, version, created_at, updated_at`

// Get returns the record for the given key, or ErrNotFound.
func (s *RecordStore) Get(ctx context.Context, userID, itemID string, kind models.ItemKind) (*models.LearningRecord, error) {
	query := s.db.Rebind(`SELECT ` + recordColumns + `
		FROM learning_records
		WHERE user_id = ? AND item_id = ? AND item_kind = ?`)
	var rec models.LearningRecord
	err := s.db.GetContext(ctx, &rec, query, userID, itemID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user=%s item=%s kind=%s", ErrNotFound, userID, itemID, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get record: %v", ErrStorage, err)
	}
	return &rec, nil
}

// Upsert commits a full-state replacement of the record. Records with
// Version 0 are inserted; anything else must carry the version read before
// the modification, and loses with ErrConflict if another writer got there
// first. On success the record's Version and UpdatedAt reflect the committed
// row.
func (s *RecordStore) Upsert(ctx context.Context, rec *models.LearningRecord) error {
	if rec.Version == 0 {
		return s.insert(ctx, rec)
	}
	return s.update(ctx, rec)
}

func (s *RecordStore) insert(ctx context.Context, rec *models.LearningRecord) error {
	now := time.Now().UTC()
	rec.Version = 1
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := s.db.Rebind(`
		INSERT INTO learning_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, item_id, item_kind) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, query,
		rec.UserID, rec.ItemID, rec.ItemKind,
		rec.AttemptCount, rec.CorrectCount,
		rec.EasinessFactor, rec.IntervalDays, rec.ReviewStreak, rec.RecentOutcomes,
		rec.MemoryStrength, rec.MasteryLevel, rec.LastReviewedAt, rec.NextDueAt,
		rec.Retired, rec.Version, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert record: %v", ErrStorage, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: insert record: %v", ErrStorage, err)
	}
	if rows == 0 {
		// Another writer created the record between our read and this insert.
		return fmt.Errorf("%w: record already exists: user=%s item=%s", ErrConflict, rec.UserID, rec.ItemID)
	}
	return nil
}

func (s *RecordStore) update(ctx context.Context, rec *models.LearningRecord) error {
	prev := rec.Version
	rec.Version = prev + 1
	rec.UpdatedAt = time.Now().UTC()

	query := s.db.Rebind(`
		UPDATE learning_records SET
			attempt_count = ?, correct_count = ?,
			easiness_factor = ?, interval_days = ?, review_streak = ?,
			recent_outcomes = ?, memory_strength = ?, mastery_level = ?,
			last_reviewed_at = ?, next_due_at = ?, retired = ?,
			version = ?, updated_at = ?
		WHERE user_id = ? AND item_id = ? AND item_kind = ? AND version = ?`)
	res, err := s.db.ExecContext(ctx, query,
		rec.AttemptCount, rec.CorrectCount,
		rec.EasinessFactor, rec.IntervalDays, rec.ReviewStreak,
		rec.RecentOutcomes, rec.MemoryStrength, rec.MasteryLevel,
		rec.LastReviewedAt, rec.NextDueAt, rec.Retired,
		rec.Version, rec.UpdatedAt,
		rec.UserID, rec.ItemID, rec.ItemKind, prev,
	)
	if err != nil {
		rec.Version = prev
		return fmt.Errorf("%w: update record: %v", ErrStorage, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		rec.Version = prev
		return fmt.Errorf("%w: update record: %v", ErrStorage, err)
	}
	if rows == 0 {
		rec.Version = prev
		s.log.Debug("record version conflict",
			zap.String("user_id", rec.UserID),
			zap.String("item_id", rec.ItemID),
			zap.Int64("version", prev))
		return fmt.Errorf("%w: stale version %d: user=%s item=%s", ErrConflict, prev, rec.UserID, rec.ItemID)
	}
	return nil
}

// QueryDue returns the user's non-retired records with next_due_at at or
// before asOf, soonest-due-longest-ago first. A limit <= 0 means no limit;
// final presentation ordering is the queue selector's job.
func (s *RecordStore) QueryDue(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.LearningRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM learning_records
		WHERE user_id = ? AND retired = ? AND next_due_at <= ?
		ORDER BY next_due_at ASC, item_id ASC`
	args := []interface{}{userID, false, asOf}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var recs []models.LearningRecord
	if err := s.db.SelectContext(ctx, &recs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%w: query due records: %v", ErrStorage, err)
	}
	return recs, nil
}

// Retire soft-deletes the record: it disappears from due queries while its
// historical counters stay intact. Unknown keys return ErrNotFound.
func (s *RecordStore) Retire(ctx context.Context, userID, itemID string, kind models.ItemKind) error {
	query := s.db.Rebind(`
		UPDATE learning_records
		SET retired = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND item_id = ? AND item_kind = ?`)
	res, err := s.db.ExecContext(ctx, query, true, time.Now().UTC(), userID, itemID, kind)
	if err != nil {
		return fmt.Errorf("%w: retire record: %v", ErrStorage, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: retire record: %v", ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user=%s item=%s kind=%s", ErrNotFound, userID, itemID, kind)
	}
	return nil
}

// ListByUser returns all of a user's records, including retired ones,
// ordered by item for stable reports.
func (s *RecordStore) ListByUser(ctx context.Context, userID string) ([]models.LearningRecord, error) {
	query := s.db.Rebind(`SELECT ` + recordColumns + `
		FROM learning_records
		WHERE user_id = ?
		ORDER BY item_kind ASC, item_id ASC`)
	var recs []models.LearningRecord
	if err := s.db.SelectContext(ctx, &recs, query, userID); err != nil {
		return nil, fmt.Errorf("%w: list records: %v", ErrStorage, err)
	}
	return recs, nil
}

// ListUsers returns every user with at least one active record.
func (s *RecordStore) ListUsers(ctx context.Context) ([]string, error) {
	query := s.db.Rebind(`
		SELECT DISTINCT user_id FROM learning_records
		WHERE retired = ?
		ORDER BY user_id ASC`)
	var users []string
	if err := s.db.SelectContext(ctx, &users, query, false); err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrStorage, err)
	}
	return users, nil
}

// UserStats aggregates the user's active records; due counts are judged
// against the caller-supplied asOf.
func (s *RecordStore) UserStats(ctx context.Context, userID string, asOf time.Time) (*models.UserStats, error) {
	query := s.db.Rebind(`
		SELECT
			COUNT(*) AS total_items,
			COALESCE(SUM(CASE WHEN mastery_level = 'new' THEN 1 ELSE 0 END), 0) AS new_items,
			COALESCE(SUM(CASE WHEN mastery_level = 'learning' THEN 1 ELSE 0 END), 0) AS learning_items,
			COALESCE(SUM(CASE WHEN mastery_level = 'familiar' THEN 1 ELSE 0 END), 0) AS familiar_items,
			COALESCE(SUM(CASE WHEN mastery_level = 'mastered' THEN 1 ELSE 0 END), 0) AS mastered_items,
			COALESCE(SUM(CASE WHEN next_due_at <= ? THEN 1 ELSE 0 END), 0) AS due_items,
			COALESCE(SUM(attempt_count), 0) AS total_attempts,
			COALESCE(SUM(correct_count), 0) AS correct_attempts,
			COALESCE(AVG(easiness_factor), 0) AS avg_easiness_factor
		FROM learning_records
		WHERE user_id = ? AND retired = ?`)
	var stats models.UserStats
	if err := s.db.GetContext(ctx, &stats, query, asOf, userID, false); err != nil {
		return nil, fmt.Errorf("%w: user stats: %v", ErrStorage, err)
	}
	stats.UserID = userID
	return &stats, nil
}
