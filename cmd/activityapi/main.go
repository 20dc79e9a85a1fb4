package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "activityboard/internal/adapters/email"
	"activityboard/internal/adapters/http/api"
	"activityboard/internal/adapters/http/perf"
	"activityboard/internal/adapters/storage"
	activityStore "activityboard/internal/adapters/storage/activity"
	"activityboard/internal/application/orchestrators"
	"activityboard/internal/platform/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.SetDefault(config.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel))

	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// One writer keeps signup transactions serialised.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialise database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	store := activityStore.NewSQLiteStore(storage.NewTimedDB(db, collector, cfg.SlowQueryMs))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orchestrators.ExecuteSeedActivities(ctx, orchestrators.SeedActivitiesDeps{ActivityStore: store}); err != nil {
		log.Fatalf("failed to seed activities: %v", err)
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.Env == config.EnvProduction {
			slog.Warn("email_sender", "provider", "noop", "hint", "ACTIVITYAPI_RESEND_KEY is not set; confirmations are not delivered")
		} else {
			slog.Info("email_sender", "provider", "noop")
		}
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewMux(store, api.Config{
			Sender:        sender,
			Collector:     collector,
			SlowRequestMs: cfg.SlowRequestMs,
			ExposePerf:    cfg.ExposePerf,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "error", err.Error())
		}
	}()

	slog.Info("activityapi_starting", "version", version, "addr", cfg.Addr, "db", cfg.DBPath, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	slog.Info("activityapi_stopped")
}
