// authd serves the authentication API: login, refresh, identify, logout.
// It also runs the session reaper on its own schedule.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountrepo "gatekeeper/backend/internal/account/repository"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/config"
	"gatekeeper/backend/internal/db"
	"gatekeeper/backend/internal/platform/clock"
	"gatekeeper/backend/internal/security"
	"gatekeeper/backend/internal/server"
	sessionhandler "gatekeeper/backend/internal/session/handler"
	sessionrepo "gatekeeper/backend/internal/session/repository"
	sessionservice "gatekeeper/backend/internal/session/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.TokenSecret == "" {
		log.Fatal("config: TOKEN_SECRET is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "authd")

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	random := security.CryptoRandomSource{}
	hasher, err := security.NewHasher(cfg.HashAlgorithm, random)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}
	codec, err := security.NewTokenCodec([]byte(cfg.TokenSecret), cfg.TokenAlgorithm)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	engine := authz.NewEngine(cfg.ModificationWindowDuration())

	sessions := sessionservice.NewService(
		sessionrepo.NewPostgresRepository(pool),
		accountrepo.NewPostgresRepository(pool),
		codec,
		hasher,
		random,
		engine,
		clock.System{},
		logger,
		cfg.SessionTTLDuration(),
		cfg.TokenTTLDuration(),
	)

	router := server.New(logger, sessions, sessionhandler.NewHandler(sessions, logger))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaper := sessionservice.NewReaper(countingPurger{sessions}, cfg.ReaperIntervalDuration(), logger)
	go reaper.Run(ctx)

	go func() {
		logger.Info("authd listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down authd")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// countingPurger feeds the purge metric without coupling the session service
// to the metrics registry.
type countingPurger struct {
	inner sessionservice.Purger
}

func (p countingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := p.inner.PurgeExpired(ctx)
	if n > 0 {
		server.SessionsPurged.Add(float64(n))
	}
	return n, err
}
