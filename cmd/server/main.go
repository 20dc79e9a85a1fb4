package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activityboard/internal/adapters/activityapi"
	web "activityboard/internal/adapters/http"
	"activityboard/internal/adapters/http/perf"
	"activityboard/internal/application/board"
	"activityboard/internal/platform/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadBoard()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.SetDefault(config.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel))

	csrfKey, err := loadCSRFKey(cfg)
	if err != nil {
		log.Fatalf("csrf key: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	client, err := activityapi.NewClient(cfg.APIURL,
		activityapi.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		activityapi.WithCollector(collector),
	)
	if err != nil {
		log.Fatalf("activities api client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := board.New(client)
	b.OnReady(ctx)

	handler, err := web.NewMux(b, web.Config{
		Title:              cfg.Title,
		CSRFKey:            csrfKey,
		Secure:             cfg.Secure,
		TrustedOrigins:     cfg.TrustedOrigins,
		RateLimitPerSecond: cfg.RateLimit,
		SlowRequestMs:      cfg.SlowRequestMs,
		Collector:          collector,
		ExposePerf:         cfg.ExposePerf,
	})
	if err != nil {
		log.Fatalf("failed to build handler: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
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

	slog.Info("board_starting", "version", version, "addr", cfg.Addr, "api", cfg.APIURL, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	slog.Info("board_stopped")
}

// loadCSRFKey returns the configured key, or a random per-process key outside production.
func loadCSRFKey(cfg config.Board) ([]byte, error) {
	key, err := cfg.CSRFKey()
	if err != nil {
		return nil, err
	}
	if key != nil {
		return key, nil
	}
	if cfg.Env == config.EnvProduction {
		return nil, errors.New("ACTIVITYBOARD_CSRF_KEY is required in production")
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_random", "hint", "set ACTIVITYBOARD_CSRF_KEY so form tokens survive restarts")
	return key, nil
}
