package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/me/capsched/internal/activity"
	"github.com/me/capsched/internal/capacity"
	"github.com/me/capsched/internal/config"
	"github.com/me/capsched/internal/directory"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/logging"
	"github.com/me/capsched/internal/queue"
	"github.com/me/capsched/internal/report"
	"github.com/me/capsched/internal/server"
	"github.com/me/capsched/internal/session"
	"github.com/me/capsched/internal/store"
	"github.com/me/capsched/internal/timeblock"
	"github.com/me/capsched/pkg/model"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	dbPath := flag.String("db", "", "Database path (default ~/.capsched/capsched.db)")
	directoryURL := flag.String("directory-url", "", "Employment directory base URL")
	activityURL := flag.String("activity-url", "", "Activity registry base URL")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags beat the config file.
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *directoryURL != "" {
		cfg.DirectoryURL = *directoryURL
	}
	if *activityURL != "" {
		cfg.ActivityURL = *activityURL
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Resolve database path.
	db := cfg.DBPath
	if db == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".capsched")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		db = filepath.Join(dir, "capsched.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(db, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", db)

	writer := store.NewWriter(st, cfg.WriteBuffer, logger)

	// Employment directory: remote when configured, otherwise a static
	// directory seeded from the config file.
	var dir directory.Directory
	if cfg.DirectoryURL != "" {
		dir = directory.NewHTTPDirectory(directory.DefaultClientConfig(cfg.DirectoryURL), logger)
		logger.Info("using remote employment directory", "url", cfg.DirectoryURL)
	} else {
		static := directory.NewStaticDirectory()
		for agentID, pct := range cfg.Directory.Allocations {
			static.SetAllocation(agentID, pct)
		}
		for employmentID, tier := range cfg.Directory.Employments {
			static.SetTier(employmentID, model.EmploymentTier(tier))
		}
		dir = static
		logger.Info("using static employment directory",
			"agents", len(cfg.Directory.Allocations),
			"employments", len(cfg.Directory.Employments))
	}

	var registry activity.Registry = activity.NoopRegistry{}
	if cfg.ActivityURL != "" {
		registry = activity.NewHTTPRegistry(activity.DefaultClientConfig(cfg.ActivityURL), logger)
		logger.Info("activity recording enabled", "url", cfg.ActivityURL)
	}

	bus := events.NewBus(logger)
	ledger := capacity.NewLedger(dir, cfg.WorkWeekHours, logger)

	sessionCfg := session.DefaultConfig()
	sessionCfg.MaxConcurrentSessions = cfg.MaxConcurrentSessions
	sessions := session.NewManager(ledger, writer, registry, bus, sessionCfg, logger)
	blocks := timeblock.NewScheduler(writer, bus, logger)
	requests := queue.NewQueue(dir, writer, bus, logger)
	reports := report.NewService(ledger, sessions, blocks, requests, logger)

	srv := server.New(sessions, blocks, requests, reports, bus, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}

	// Drain pending writes after the HTTP surface is closed.
	writer.Close()
	logger.Info("server stopped")
}
