// Command contentfetch serves the content fetch endpoint the refresh worker
// dispatches to. It resolves article URLs through the content handler chain
// and stores one page per subscriber.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feed-ingest/internal/contenthandler"
	pgRepo "feed-ingest/internal/infra/adapter/persistence/postgres"
	"feed-ingest/internal/infra/db"
	"feed-ingest/internal/infra/fetcher"
	"feed-ingest/internal/observability/logging"
	"feed-ingest/internal/resilience/circuitbreaker"
	"feed-ingest/internal/usecase/save"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	token := os.Getenv("CONTENT_FETCH_TOKEN")
	if token == "" {
		logger.Error("CONTENT_FETCH_TOKEN is required")
		os.Exit(1)
	}

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	guardedDB := circuitbreaker.NewDBCircuitBreaker(database)

	fetchCfg, warnings, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Error("invalid page fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	for _, warning := range warnings {
		logger.Warn("page fetch configuration fallback", slog.String("warning", warning))
	}

	svc := save.NewService(
		contenthandler.NewRegistry(logger),
		fetcher.NewPageFetcher(fetchCfg),
		save.Config{DenyPrivateIPs: fetchCfg.DenyPrivateIPs},
		logger,
	)

	intake := &intakeHandler{
		svc:    svc,
		pages:  pgRepo.NewFeedPageRepo(guardedDB),
		token:  token,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.Handle("/tasks", intake.requireToken(http.HandlerFunc(intake.handleTask)))
	mux.Handle("/newsletters", intake.requireToken(http.HandlerFunc(intake.handleNewsletter)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", serverPort()),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("content fetch server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("content fetch server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("content fetch server shutdown error", slog.Any("error", err))
	}
	logger.Info("content fetch server stopped")
}

func serverPort() int {
	if v := os.Getenv("CONTENT_FETCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			return port
		}
	}
	return 8081
}
