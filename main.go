package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/recall/internal/config"
	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/engine"
	"github.com/example/recall/internal/export"
	"github.com/example/recall/internal/queue"
	"github.com/example/recall/internal/reminder"
	"github.com/example/recall/internal/sm2"
	"github.com/example/recall/pkg/models"
)

const usage = `usage: recall <command> [flags]

commands:
  review   submit a review outcome for an item
  due      list items due for review
  summary  show the scheduling summary for one item
  retire   retire an item (removes it from due queues)
  stats    show aggregate progress for a user
  export   write a progress report workbook
  remind   run the periodic due-digest job
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store := database.NewRecordStore(db, logger)
	eng := engine.New(store, sm2.New(), queue.NewSelector(store), logger,
		engine.WithRetry(cfg.Engine.RetryAttempts, cfg.Engine.RetryBackoff))

	ctx := context.Background()
	if err := run(ctx, os.Args[1], os.Args[2:], eng, store, cfg, logger); err != nil {
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func run(ctx context.Context, command string, args []string, eng *engine.Engine, store *database.RecordStore, cfg *config.Config, logger *zap.Logger) error {
	switch command {
	case "review":
		return runReview(ctx, args, eng)
	case "due":
		return runDue(ctx, args, eng)
	case "summary":
		return runSummary(ctx, args, eng)
	case "retire":
		return runRetire(ctx, args, eng)
	case "stats":
		return runStats(ctx, args, eng)
	case "export":
		return runExport(ctx, args, store)
	case "remind":
		return runRemind(eng, cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runReview(ctx context.Context, args []string, eng *engine.Engine) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	item := fs.String("item", "", "item id")
	kind := fs.String("kind", "vocabulary", "item kind")
	quality := fs.Int("quality", -1, "recall quality 0-5")
	correct := fs.Bool("correct", false, "pass/fail shorthand when -quality is unset")
	fs.Parse(args)

	q := *quality
	if q < 0 {
		q = engine.QualityFromCorrect(*correct)
	}
	summary, err := eng.SubmitReview(ctx, *user, *item, kindOf(*kind), q)
	if err != nil {
		return err
	}
	fmt.Printf("%s/%s: %s, ease %.2f, next due %s (interval %dd, %d/%d correct)\n",
		summary.ItemKind, summary.ItemID, summary.MasteryLevel,
		summary.EasinessFactor, summary.NextDueAt.Format(time.RFC3339),
		summary.IntervalDays, summary.CorrectCount, summary.AttemptCount)
	return nil
}

func runDue(ctx context.Context, args []string, eng *engine.Engine) error {
	fs := flag.NewFlagSet("due", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	limit := fs.Int("limit", 20, "max items")
	fs.Parse(args)

	items, err := eng.GetDueQueue(ctx, *user, time.Now(), *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("nothing due")
		return nil
	}
	for _, it := range items {
		fmt.Printf("%s/%s  overdue %.1fd  strength %.2f  %s\n",
			it.ItemKind, it.ItemID, it.OverdueDays, it.MemoryStrength, it.MasteryLevel)
	}
	return nil
}

func runSummary(ctx context.Context, args []string, eng *engine.Engine) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	item := fs.String("item", "", "item id")
	kind := fs.String("kind", "vocabulary", "item kind")
	fs.Parse(args)

	s, err := eng.GetRecordSummary(ctx, *user, *item, kindOf(*kind))
	if err != nil {
		return err
	}
	fmt.Printf("%s, ease %.2f, next due %s\n", s.MasteryLevel, s.EasinessFactor, s.NextDueAt.Format(time.RFC3339))
	return nil
}

func runRetire(ctx context.Context, args []string, eng *engine.Engine) error {
	fs := flag.NewFlagSet("retire", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	item := fs.String("item", "", "item id")
	kind := fs.String("kind", "vocabulary", "item kind")
	fs.Parse(args)

	if err := eng.Retire(ctx, *user, *item, kindOf(*kind)); err != nil {
		return err
	}
	fmt.Println("retired")
	return nil
}

func runStats(ctx context.Context, args []string, eng *engine.Engine) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	fs.Parse(args)

	stats, err := eng.Stats(ctx, *user, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("items: %d total, %d new, %d learning, %d familiar, %d mastered, %d due\n",
		stats.TotalItems, stats.NewItems, stats.LearningItems, stats.FamiliarItems,
		stats.MasteredItems, stats.DueItems)
	fmt.Printf("attempts: %d (%.0f%% correct), avg ease %.2f\n",
		stats.TotalAttempts, stats.AccuracyRatio()*100, stats.AvgEasinessFactor)
	return nil
}

func runExport(ctx context.Context, args []string, store *database.RecordStore) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	out := fs.String("out", "progress.xlsx", "output path")
	fs.Parse(args)

	if err := export.NewExporter(store).WriteUserReport(ctx, *user, time.Now(), *out); err != nil {
		return err
	}
	fmt.Printf("report written to %s\n", *out)
	return nil
}

func runRemind(eng *engine.Engine, cfg *config.Config, logger *zap.Logger) error {
	r := reminder.New(eng, logNotifier{logger}, cfg.Reminder, logger)
	r.Start()
	defer r.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down reminder", zap.String("signal", sig.String()))
	return nil
}

// logNotifier is a stand-in delivery channel: real notifiers live in the
// presentation layer.
type logNotifier struct {
	log *zap.Logger
}

func (n logNotifier) SendDueReminder(userID string, dueCount int) error {
	n.log.Info("items due for review",
		zap.String("user_id", userID),
		zap.Int("due_count", dueCount))
	return nil
}

func kindOf(s string) models.ItemKind {
	return models.ItemKind(s)
}
