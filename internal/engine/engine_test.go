package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/queue"
	"github.com/example/recall/internal/sm2"
	"github.com/example/recall/pkg/models"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := database.NewRecordStore(db, zap.NewNop())
	return New(store, sm2.New(), queue.NewSelector(store), zap.NewNop(), opts...)
}

func fixedClock(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

func TestSubmitReviewCreatesRecord(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, fixedClock(now))
	ctx := context.Background()

	summary, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	assert.Equal(t, models.MasteryNew, summary.MasteryLevel)
	assert.Equal(t, 1, summary.IntervalDays)
	assert.Equal(t, 1, summary.AttemptCount)
	assert.InDelta(t, 2.6, summary.EasinessFactor, 1e-9)
	assert.True(t, summary.NextDueAt.Equal(now.AddDate(0, 0, 1)))
}

func TestSubmitReviewProgression(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := &now
	eng := newTestEngine(t, WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	s, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, s.IntervalDays)

	now = now.AddDate(0, 0, 1)
	s, err = eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	assert.Equal(t, 6, s.IntervalDays)

	now = now.AddDate(0, 0, 6)
	s, err = eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	assert.Equal(t, 16, s.IntervalDays)
	assert.Equal(t, 3, s.AttemptCount)
	assert.Equal(t, 3, s.CorrectCount)
}

func TestSubmitReviewValidation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    string
		item    string
		kind    models.ItemKind
		quality int
	}{
		{"quality too high", "alice", "hund", "vocabulary", 6},
		{"quality negative", "alice", "hund", "vocabulary", -1},
		{"empty user", "", "hund", "vocabulary", 4},
		{"empty item", "alice", "", "vocabulary", 4},
		{"empty kind", "alice", "hund", "", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.SubmitReview(ctx, tt.user, tt.item, tt.kind, tt.quality)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// Rejected input leaves no record behind.
	_, err := eng.GetRecordSummary(ctx, "alice", "hund", "vocabulary")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentReviewsSameItem(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, fixedClock(now), WithRetry(10, time.Millisecond))
	ctx := context.Background()

	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 4)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	// Every review observed its predecessor's committed state.
	summary, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 4)
	require.NoError(t, err)
	assert.Equal(t, writers+1, summary.AttemptCount)
	assert.Equal(t, writers+1, summary.CorrectCount)
}

func TestGetDueQueue(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, fixedClock(now))
	ctx := context.Background()

	_, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	_, err = eng.SubmitReview(ctx, "alice", "katze", "vocabulary", 2)
	require.NoError(t, err)

	// Both records are a day out; nothing is due yet.
	due, err := eng.GetDueQueue(ctx, "alice", now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = eng.GetDueQueue(ctx, "alice", now.AddDate(0, 0, 2), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "katze", due[0].ItemID, "failed item is weaker and surfaces first")

	_, err = eng.GetDueQueue(ctx, "", now, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetRecordSummary(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, fixedClock(now))
	ctx := context.Background()

	_, err := eng.GetRecordSummary(ctx, "alice", "hund", "vocabulary")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)

	s, err := eng.GetRecordSummary(ctx, "alice", "hund", "vocabulary")
	require.NoError(t, err)
	assert.Equal(t, models.MasteryNew, s.MasteryLevel)
	assert.InDelta(t, 2.6, s.EasinessFactor, 1e-9)
	assert.True(t, s.NextDueAt.Equal(now.AddDate(0, 0, 1)))
}

func TestRetire(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, fixedClock(now))
	ctx := context.Background()

	err := eng.Retire(ctx, "alice", "hund", "vocabulary")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	require.NoError(t, eng.Retire(ctx, "alice", "hund", "vocabulary"))

	due, err := eng.GetDueQueue(ctx, "alice", now.AddDate(0, 0, 30), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Reviews for a retired item are rejected like unknown history.
	_, err = eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, fixedClock(now))
	ctx := context.Background()

	_, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	_, err = eng.SubmitReview(ctx, "alice", "katze", "vocabulary", 1)
	require.NoError(t, err)

	stats, err := eng.Stats(ctx, "alice", now.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 2, stats.DueItems)
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 1, stats.CorrectAttempts)

	users, err := eng.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, users)
}

func TestQualityFromCorrect(t *testing.T) {
	assert.Equal(t, 5, QualityFromCorrect(true))
	assert.Equal(t, 2, QualityFromCorrect(false))
}
