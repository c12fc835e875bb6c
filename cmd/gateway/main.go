// gateway fronts the authentication and account services, routing by path
// prefix: /v1/auth to authd, /v1/accounts to accountd.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gatekeeper/backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "gateway")

	authProxy, err := newProxy(cfg.AuthServiceURL)
	if err != nil {
		log.Fatalf("auth upstream: %v", err)
	}
	accountProxy, err := newProxy(cfg.AccountServiceURL)
	if err != nil {
		log.Fatalf("account upstream: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/auth/", authProxy)
	mux.Handle("/v1/accounts", accountProxy)
	mux.Handle("/v1/accounts/", accountProxy)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		logger.Info("gateway listening", "addr", cfg.HTTPAddr,
			"auth_upstream", cfg.AuthServiceURL, "account_upstream", cfg.AccountServiceURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func newProxy(upstream string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(strings.TrimRight(upstream, "/"))
	if err != nil {
		return nil, err
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		http.Error(w, `{"error":"upstream unavailable"}`, http.StatusBadGateway)
	}
	return proxy, nil
}
