package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rpggio/dafmemorial/internal/config"
	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/stats"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"github.com/rpggio/dafmemorial/internal/observability"
	"github.com/rpggio/dafmemorial/internal/sqlite"
	"github.com/spf13/cobra"
)

// app holds the opened store and the services built on it.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sqlite.DB

	sessions *sqlite.SessionRepository
	registry *prometheus.Registry
	metrics  *observability.Metrics

	catalog   *catalog.Service
	seeder    *catalog.Seeder
	lifecycle *lifecycle.Service
	stats     *stats.Aggregator
	activity  *activity.Service
	users     *user.Service

	closeLog func() error
}

func newApp(cfg config.Config) (*app, error) {
	logger, closeLog := newLogger(cfg)

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		closeLog()
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		closeLog()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	tractateRepo := sqlite.NewTractateRepository(db)
	pageRepo := sqlite.NewPageRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	activitySvc := activity.NewService(activityRepo, logger, cfg.Activity.ListLimit)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		sessions: sessionRepo,
		registry: registry,
		metrics:  metrics,
		catalog:  catalog.NewService(tractateRepo, pageRepo, logger),
		seeder:   catalog.NewSeeder(pageRepo, logger),
		lifecycle: lifecycle.NewService(pageRepo, activitySvc, logger,
			lifecycle.WithDrafting(cfg.Lifecycle.Drafting),
			lifecycle.WithMaxBulk(cfg.Lifecycle.MaxBulk),
			lifecycle.WithRecorder(metrics),
		),
		stats:    stats.NewAggregator(pageRepo, logger, cfg.Lifecycle.Drafting),
		activity: activitySvc,
		users:    user.NewService(userRepo, sessionRepo, logger, cfg.Auth.SessionTTL),
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
	_ = a.closeLog()
}

// loadApp reads configuration and opens the app for a subcommand.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return newApp(cfg)
}

// newLogger builds the process logger. In stdio mode stdout carries
// JSON-RPC, so logs go to stderr.
func newLogger(cfg config.Config) (*slog.Logger, func() error) {
	var w io.Writer = os.Stdout
	if cfg.Transport.Mode == "stdio" {
		w = os.Stderr
	}
	closeLog := func() error { return nil }
	if path := os.Getenv("DAF_LOG_PATH"); path != "" {
		lf, err := openLogFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			w = lf
			closeLog = lf.Close
		}
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeLog
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	path := seedFile
	if path == "" {
		path = a.cfg.DB.SeedPath
	}
	seed, err := catalog.LoadSeed(path)
	if err != nil {
		return err
	}
	result, err := a.seeder.Seed(cmd.Context(), seed)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.stats.PageStats(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), st)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
