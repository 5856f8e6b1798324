package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feed-ingest/internal/infra/queue"
	obsmetrics "feed-ingest/internal/observability/metrics"
)

// backlogPollInterval is how often the stream backlog gauge is refreshed.
const backlogPollInterval = 30 * time.Second

// startMetricsServer starts the Prometheus metrics HTTP server and a
// background poller that keeps the queue backlog and connection pool
// gauges current.
//
// Endpoints:
//   - GET /metrics - Prometheus metrics (scraped by the Prometheus server)
//   - GET /health - Simple liveness probe
//
// When ctx is cancelled the server shuts down gracefully within 5 seconds.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, jobQueue *queue.RedisStreamQueue, database *sql.DB) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go pollGauges(ctx, logger, jobQueue, database)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// pollGauges refreshes the pending jobs and connection pool gauges until
// ctx is cancelled.
func pollGauges(ctx context.Context, logger *slog.Logger, jobQueue *queue.RedisStreamQueue, database *sql.DB) {
	ticker := time.NewTicker(backlogPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := database.Stats()
			obsmetrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)

			n, err := jobQueue.Len(ctx)
			if err != nil {
				logger.Warn("failed to read queue backlog", slog.Any("error", err))
				continue
			}
			obsmetrics.UpdatePendingJobs(n)
		}
	}
}
