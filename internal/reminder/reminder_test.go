package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/recall/internal/config"
	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/engine"
	"github.com/example/recall/internal/queue"
	"github.com/example/recall/internal/sm2"
)

type captureNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func (n *captureNotifier) SendDueReminder(userID string, dueCount int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = make(map[string]int)
	}
	n.calls[userID] = dueCount
	return nil
}

func newTestEngine(t *testing.T, reviewedAt time.Time) *engine.Engine {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := database.NewRecordStore(db, zap.NewNop())
	return engine.New(store, sm2.New(), queue.NewSelector(store), zap.NewNop(),
		engine.WithClock(func() time.Time { return reviewedAt }))
}

func TestRunOnceNotifiesUsersWithDueItems(t *testing.T) {
	reviewedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, reviewedAt)
	ctx := context.Background()

	_, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)
	_, err = eng.SubmitReview(ctx, "alice", "katze", "vocabulary", 2)
	require.NoError(t, err)
	_, err = eng.SubmitReview(ctx, "bob", "hund", "vocabulary", 5)
	require.NoError(t, err)

	notifier := &captureNotifier{}
	cfg := config.Reminder{StartHour: 8, EndHour: 22, DueLimit: 50}
	r := New(eng, notifier, cfg, zap.NewNop())

	// Two days on, every record is due.
	r.RunOnce(ctx, reviewedAt.AddDate(0, 0, 2).Add(3*time.Hour))

	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, notifier.calls)
}

func TestRunOnceSkipsQuietUsers(t *testing.T) {
	reviewedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, reviewedAt)
	ctx := context.Background()

	_, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)

	notifier := &captureNotifier{}
	cfg := config.Reminder{StartHour: 8, EndHour: 22, DueLimit: 50}
	r := New(eng, notifier, cfg, zap.NewNop())

	// Nothing is due an hour after the review.
	r.RunOnce(ctx, reviewedAt.Add(time.Hour))
	assert.Empty(t, notifier.calls)
}

func TestRunOnceRespectsNotificationHours(t *testing.T) {
	reviewedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, reviewedAt)
	ctx := context.Background()

	_, err := eng.SubmitReview(ctx, "alice", "hund", "vocabulary", 5)
	require.NoError(t, err)

	notifier := &captureNotifier{}
	cfg := config.Reminder{StartHour: 8, EndHour: 22, DueLimit: 50}
	r := New(eng, notifier, cfg, zap.NewNop())

	nightTime := time.Date(2025, 3, 14, 3, 0, 0, 0, time.UTC)
	r.RunOnce(ctx, nightTime)
	assert.Empty(t, notifier.calls, "no reminders outside notification hours")
}
