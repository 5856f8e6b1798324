package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"feed-ingest/internal/config"
	"feed-ingest/internal/domain/entity"
	pgRepo "feed-ingest/internal/infra/adapter/persistence/postgres"
	"feed-ingest/internal/infra/cache"
	"feed-ingest/internal/infra/db"
	"feed-ingest/internal/infra/dispatch"
	"feed-ingest/internal/infra/feedfetch"
	"feed-ingest/internal/infra/feedparser"
	"feed-ingest/internal/infra/queue"
	workerPkg "feed-ingest/internal/infra/worker"
	"feed-ingest/internal/observability/logging"
	obsmetrics "feed-ingest/internal/observability/metrics"
	"feed-ingest/internal/observability/tracing"
	"feed-ingest/internal/repository"
	"feed-ingest/internal/resilience/circuitbreaker"
	"feed-ingest/internal/resilience/failuretracker"
	"feed-ingest/internal/usecase/refresh"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("sweep_schedule", workerConfig.SweepSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("consumers", workerConfig.Consumers),
		slog.Duration("refresh_timeout", workerConfig.RefreshTimeout))

	redisClient := initRedis(logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}()

	// Queries run behind a circuit breaker so a dead database fails fast
	// instead of stacking up blocked workers.
	guardedDB := circuitbreaker.NewDBCircuitBreaker(database)
	svc := setupRefreshService(logger, guardedDB, redisClient)
	subRepo := pgRepo.NewSubscriptionRepo(guardedDB)

	jobQueue := queue.NewRedisStreamQueue(redisClient, consumerName(), logger)
	if err := jobQueue.EnsureGroup(ctx); err != nil {
		logger.Error("failed to create consumer group", slog.Any("error", err))
		os.Exit(1)
	}

	startMetricsServer(ctx, logger, workerConfig.MetricsPort, jobQueue, database)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	sweeper := startSweep(ctx, logger, subRepo, jobQueue, workerConfig, workerMetrics)
	defer sweeper.Stop()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", workerConfig.SweepSchedule),
		slog.String("consumer", consumerName()))

	g, consumerCtx := errgroup.WithContext(ctx)
	for i := 0; i < workerConfig.Consumers; i++ {
		g.Go(func() error {
			return consumeLoop(consumerCtx, logger, jobQueue, svc, workerConfig)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("consumer pool stopped with error", slog.Any("error", err))
	}

	healthServer.SetReady(false)
	logger.Info("worker stopped")
}

// initDatabase opens the database connection and applies schema migrations.
// MigrateUp is idempotent, so concurrent workers racing on startup is safe.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// initRedis connects to Redis using REDIS_URL and verifies the connection.
func initRedis(logger *slog.Logger) *redis.Client {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL", slog.Any("error", err))
		os.Exit(1)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("failed to ping redis", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("redis connection established")
	return client
}

// setupRefreshService wires the refresh pipeline with all its dependencies.
func setupRefreshService(logger *slog.Logger, database pgRepo.DB, redisClient *redis.Client) *refresh.Service {
	tracker := failuretracker.New(cache.NewRedisCache(redisClient), 0, logger)

	fetchCfg, warnings, err := feedfetch.LoadConfigFromEnv()
	if err != nil {
		logger.Error("invalid feed fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	for _, warning := range warnings {
		logger.Warn("feed fetch configuration fallback", slog.String("warning", warning))
	}

	dispatcher := dispatch.NewClient(loadDispatchConfig(logger), logger)
	feedsCfg := loadFeedsConfig(logger)

	return refresh.NewService(
		feedfetch.NewFetcher(fetchCfg),
		feedparser.NewParser(),
		tracker,
		dispatcher,
		pgRepo.NewSubscriptionRepo(database),
		pgRepo.NewFeedPageRepo(database),
		feedsCfg,
		logger,
	)
}

// loadDispatchConfig reads the content fetch service settings. Endpoint and
// token are required; the worker cannot do useful work without them.
func loadDispatchConfig(logger *slog.Logger) dispatch.Config {
	endpoint := os.Getenv("CONTENT_FETCH_ENDPOINT")
	token := os.Getenv("CONTENT_FETCH_TOKEN")
	if endpoint == "" || token == "" {
		logger.Error("CONTENT_FETCH_ENDPOINT and CONTENT_FETCH_TOKEN are required")
		os.Exit(1)
	}
	return dispatch.DefaultConfig(endpoint, token)
}

// loadFeedsConfig reads the feeds YAML config, falling back to built-in
// defaults when FEEDS_CONFIG_PATH is unset or unreadable.
func loadFeedsConfig(logger *slog.Logger) *config.FeedsConfig {
	path := os.Getenv("FEEDS_CONFIG_PATH")
	if path == "" {
		return config.DefaultFeedsConfig()
	}
	cfg, err := config.LoadFeedsConfig(path)
	if err != nil {
		logger.Warn("failed to load feeds config, using defaults",
			slog.String("path", path),
			slog.Any("error", err))
		return config.DefaultFeedsConfig()
	}
	logger.Info("feeds config loaded", slog.String("path", path))
	return cfg
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		return "worker-" + uuid.NewString()[:8]
	}
	return host
}

// startSweep schedules the due-subscription sweep on the configured cron
// expression and returns the scheduler for shutdown.
func startSweep(
	ctx context.Context,
	logger *slog.Logger,
	subs repository.SubscriptionRepository,
	jobQueue *queue.RedisStreamQueue,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
) *cron.Cron {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.SweepSchedule, func() {
		runSweep(ctx, logger, subs, jobQueue, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to schedule sweep", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	return c
}

// runSweep finds due subscriptions, groups them by feed URL and enqueues one
// refresh job per feed.
func runSweep(
	ctx context.Context,
	logger *slog.Logger,
	subs repository.SubscriptionRepository,
	jobQueue *queue.RedisStreamQueue,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
) {
	start := time.Now()
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	sweepCtx, span := tracing.GetTracer().Start(sweepCtx, "refresh-sweep")
	defer span.End()

	due, err := subs.ListDue(sweepCtx, time.Now(), cfg.SweepBatchSize)
	if err != nil {
		logger.Error("sweep failed to list due subscriptions", slog.Any("error", err))
		metrics.RecordSweepRun("failure")
		metrics.RecordSweepDuration(time.Since(start).Seconds())
		return
	}

	// One job per feed so all subscribers of a feed share a single fetch.
	groups := make(map[string][]entity.Subscription)
	var order []string
	for _, sub := range due {
		if _, seen := groups[sub.FeedURL]; !seen {
			order = append(order, sub.FeedURL)
		}
		groups[sub.FeedURL] = append(groups[sub.FeedURL], *sub)
	}

	enqueued := 0
	for _, feedURL := range order {
		carrier := tracing.Carrier{}
		tracing.Inject(sweepCtx, carrier)
		job := &refresh.Job{
			FeedURL:       feedURL,
			Subscriptions: groups[feedURL],
			Trace:         carrier,
		}
		if err := jobQueue.Enqueue(sweepCtx, job); err != nil {
			logger.Error("failed to enqueue refresh job",
				slog.String("feed_url", feedURL),
				slog.Any("error", err))
			continue
		}
		obsmetrics.RecordJobEnqueued()
		enqueued++
	}

	metrics.RecordSweepRun("success")
	metrics.RecordSweepDuration(time.Since(start).Seconds())
	metrics.RecordFeedsEnqueued(enqueued)
	metrics.RecordLastSuccess()

	if enqueued > 0 {
		logger.Info("sweep completed",
			slog.Int("due_subscriptions", len(due)),
			slog.Int("feeds_enqueued", enqueued),
			slog.Duration("duration", time.Since(start)))
	}
}

// consumeLoop pulls refresh jobs from the stream until the context is
// cancelled.
func consumeLoop(
	ctx context.Context,
	logger *slog.Logger,
	jobQueue *queue.RedisStreamQueue,
	svc *refresh.Service,
	cfg *workerPkg.WorkerConfig,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		messages, err := jobQueue.Dequeue(ctx, cfg.QueueBlock, 10)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("dequeue failed, backing off", slog.Any("error", err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			processJob(ctx, logger, jobQueue, svc, cfg, msg)
		}
	}
}

// processJob refreshes one feed and always acks: failed feeds are retried
// when their subscriptions come due again, not by queue redelivery.
func processJob(
	ctx context.Context,
	logger *slog.Logger,
	jobQueue *queue.RedisStreamQueue,
	svc *refresh.Service,
	cfg *workerPkg.WorkerConfig,
	msg queue.Message,
) {
	jobCtx := tracing.Extract(ctx, tracing.Carrier(msg.Job.Trace))
	jobCtx, span := tracing.StartJobSpan(jobCtx, msg.Job.FeedURL, msg.ID)
	jobCtx = logging.WithTraceIDContext(jobCtx, span.SpanContext().TraceID().String())
	jobCtx, cancel := context.WithTimeout(jobCtx, cfg.RefreshTimeout)
	defer cancel()

	start := time.Now()
	err := svc.RefreshFeed(jobCtx, msg.Job)
	tracing.EndJobSpan(span, err)

	obsmetrics.RecordFeedRefresh(refreshStatus(err), time.Since(start))
	obsmetrics.RecordJobProcessed(err == nil || errors.Is(err, refresh.ErrFeedUnchanged))

	if err != nil && !errors.Is(err, refresh.ErrFeedUnchanged) {
		logging.WithTraceID(jobCtx, logger).Error("refresh job failed",
			slog.String("feed_url", msg.Job.FeedURL),
			slog.Any("error", err))
	}

	if err := jobQueue.Ack(ctx, msg.ID); err != nil {
		logger.Error("failed to ack job", slog.String("stream_id", msg.ID), slog.Any("error", err))
	}
}

func refreshStatus(err error) string {
	switch {
	case err == nil:
		return obsmetrics.RefreshSuccess
	case errors.Is(err, refresh.ErrFeedUnchanged):
		return obsmetrics.RefreshUnchanged
	case errors.Is(err, refresh.ErrFeedBlocked):
		return obsmetrics.RefreshBlocked
	case errors.Is(err, refresh.ErrFeedFetchFailed):
		return obsmetrics.RefreshFetchError
	case errors.Is(err, refresh.ErrFeedParseFailed):
		return obsmetrics.RefreshParseError
	default:
		return "failure"
	}
}
