package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duospark/progression/engine"
	"github.com/duospark/progression/engine/catalog"
	"github.com/duospark/progression/engine/database"
	"github.com/duospark/progression/engine/database/repositories"
	"github.com/duospark/progression/engine/leaderboard"
	"github.com/duospark/progression/engine/logger"
	"github.com/duospark/progression/engine/progression"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Engine bundles the wired services the host application consumes.
type Engine struct {
	Ledger      *progression.Ledger
	Tracker     *progression.Tracker
	Landmarks   *progression.Landmarks
	Rewards     *progression.Rewards
	Badges      *progression.Badges
	Streaks     *progression.Streaks
	Catalog     *catalog.Service
	Leaderboard *leaderboard.Service
	Users       repositories.UserRepository
}

func main() {
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := engine.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))
	slog.Info("Starting progression engine",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStart)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Schema initialization failed", slog.Any("error", err))
		os.Exit(-1)
	}

	eng, err := wire(ctx, cfg, db)
	if err != nil {
		slog.Error("Engine wiring failed", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Progression engine ready",
		slog.String("type", "engine"),
		slog.Int("catalog_version", int(eng.Catalog.Snapshot().Version)),
		slog.Duration("boot", time.Since(dbStart)))

	// The transport embedding this engine lives elsewhere; the process
	// holds the services until it is told to stop.
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down progression engine...")
}

func wire(ctx context.Context, cfg *engine.Config, db *database.DB) (*Engine, error) {
	catalogSvc := catalog.NewService(repositories.NewCatalogRepository(db.BunDB()))
	if err := catalogSvc.Load(ctx); err != nil {
		return nil, err
	}

	store := repositories.NewEngineStore(db.BunDB())

	expiry := time.Duration(cfg.Engine.LeaderboardCacheSeconds) * time.Second
	if expiry <= 0 {
		expiry = time.Minute
	}

	return &Engine{
		Ledger:      progression.NewLedger(store),
		Tracker:     progression.NewTracker(store, catalogSvc),
		Landmarks:   progression.NewLandmarks(store, catalogSvc),
		Rewards:     progression.NewRewards(store, catalogSvc),
		Badges:      progression.NewBadges(store, catalogSvc),
		Streaks:     progression.NewStreaks(store),
		Catalog:     catalogSvc,
		Leaderboard: leaderboard.NewService(repositories.NewUserRepository(db.BunDB()), expiry),
		Users:       repositories.NewUserRepository(db.BunDB()),
	}, nil
}
