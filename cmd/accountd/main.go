// accountd serves the account API: registration, lookup, update, delete.
// Account mutations invalidate sessions and publish lifecycle events.
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

	accounthandler "gatekeeper/backend/internal/account/handler"
	accountrepo "gatekeeper/backend/internal/account/repository"
	accountservice "gatekeeper/backend/internal/account/service"
	"gatekeeper/backend/internal/authz"
	"gatekeeper/backend/internal/config"
	"gatekeeper/backend/internal/db"
	"gatekeeper/backend/internal/events"
	"gatekeeper/backend/internal/platform/clock"
	"gatekeeper/backend/internal/security"
	"gatekeeper/backend/internal/server"
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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "accountd")

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

	var sink events.Sink = events.NopSink{}
	if brokers := cfg.EventsKafkaBrokersList(); len(brokers) > 0 {
		kafkaSink := events.NewKafkaSink(brokers, cfg.EventsKafkaTopic)
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	accounts := accountrepo.NewPostgresRepository(pool)
	sessions := sessionservice.NewService(
		sessionrepo.NewPostgresRepository(pool),
		accounts,
		codec,
		hasher,
		random,
		engine,
		clock.System{},
		logger,
		cfg.SessionTTLDuration(),
		cfg.TokenTTLDuration(),
	)
	accountSvc := accountservice.NewService(
		accounts,
		sessions,
		engine,
		hasher,
		sink,
		clock.System{},
		logger,
	)

	router := server.New(logger, sessions, accounthandler.NewHandler(accountSvc, logger))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("accountd listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down accountd")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
