// tasksync copies itslearning tasks of every registered user into the
// database, once, and exits.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/d9705996/tasksync/internal/config"
	"github.com/d9705996/tasksync/internal/db"
	"github.com/d9705996/tasksync/internal/lms"
	"github.com/d9705996/tasksync/internal/observability"
	"github.com/d9705996/tasksync/internal/store"
	"github.com/d9705996/tasksync/internal/tasksync"
	"github.com/d9705996/tasksync/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability -------------------------------------------------------
	obs, log, err := observability.New(ctx, &observability.Config{
		ServiceName:    "tasksync",
		ServiceVersion: version.Version,
		LogLevel:       cfg.Log.Level,
		LogFormat:      cfg.Log.Format,
		OTLPEndpoint:   cfg.OTel.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer obs.Shutdown(context.Background())
	slog.SetDefault(log)
	log.Info("starting tasksync", "version", version.Version, "commit", version.Commit, "date", version.Date, "db_driver", cfg.DB.Driver)

	// --- Database ------------------------------------------------------------
	// db.New opens the connection and runs migrations (AutoMigrate for SQLite,
	// golang-migrate for Postgres).
	gormDB, pool, err := db.New(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}
	st := store.NewGormStore(gormDB)
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("close store", "err", err)
		}
	}()
	if err := db.NewPinger(gormDB).Ping(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	log.Info("database ready", "driver", cfg.DB.Driver)

	// --- LMS client ----------------------------------------------------------
	dir := lms.NewDirectory(cfg.LMS.BaseURL,
		lms.WithHTTPClient(&http.Client{Timeout: cfg.LMS.Timeout}),
		lms.WithClientID(cfg.LMS.ClientID),
		lms.WithUserAgent("tasksync/"+version.Version),
		lms.WithLogger(log),
	)

	// --- Sync ----------------------------------------------------------------
	driver, err := tasksync.New(st, dir, log, obs.Meter("github.com/d9705996/tasksync"))
	if err != nil {
		return fmt.Errorf("create driver: %w", err)
	}
	res, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if cfg.Metrics.PushURL != "" {
		if err := observability.Push(ctx, cfg.Metrics.PushURL, "tasksync", obs.Gatherer()); err != nil {
			log.Error("metrics push failed", "err", err)
		}
	}

	log.Info("tasksync finished", "users", res.Users, "failed", res.Failed, "inserted", res.Inserted)
	return nil
}
