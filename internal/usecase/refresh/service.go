// Package refresh implements the feed refresh pipeline: change detection,
// per-subscription item processing, cross-subscriber content fetch batching
// and next-refresh scheduling.
package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"feed-ingest/internal/config"
	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/feedfetch"
	obsmetrics "feed-ingest/internal/observability/metrics"
	"feed-ingest/internal/repository"
	"feed-ingest/internal/utils/text"
	"feed-ingest/internal/utils/urlutil"

	"github.com/google/uuid"
)

// neverFetchedWindow is how far back items are accepted for a subscription
// that has never processed anything.
const neverFetchedWindow = 4 * 24 * time.Hour

// Job is one unit of refresh work: a feed URL and the snapshot of every
// subscription to refresh against it. Trace carries W3C trace context from
// the sweep that enqueued the job.
type Job struct {
	FeedURL       string                `json:"feedUrl"`
	Subscriptions []entity.Subscription `json:"subscriptions"`
	Trace         map[string]string     `json:"trace,omitempty"`
}

// Fetcher downloads a feed document and computes its checksum.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (*feedfetch.Result, error)
}

// Parser turns raw feed bytes into domain values. ParseTelegram covers chat
// channel preview pages, which are HTML rather than feed documents.
type Parser interface {
	Parse(body []byte, feedURL string) (*entity.FeedSource, []entity.FeedItem, error)
	ParseTelegram(body []byte, feedURL string) (*entity.FeedSource, []entity.FeedItem, error)
}

// FailureTracker gates refreshes and answers recently-saved dedup queries.
type FailureTracker interface {
	IsBlocked(ctx context.Context, feedURL string) bool
	RecordFailure(ctx context.Context, feedURL string) int64
	WasRecentlySaved(ctx context.Context, userID, itemURL string) bool
	MarkSaved(ctx context.Context, userID, itemURL string)
}

// TaskDispatcher sends one batched content fetch task downstream.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, task *entity.ContentFetchTask) error
}

// Service orchestrates one refresh job end to end.
//
// The pipeline is: failure gate, fetch + checksum, parse, sequential
// per-subscription processing, one dispatch per unique article URL, then
// cursor persistence. Per-subscription errors are logged and never abort
// sibling subscriptions.
type Service struct {
	fetcher       Fetcher
	parser        Parser
	tracker       FailureTracker
	dispatcher    TaskDispatcher
	subscriptions repository.SubscriptionRepository
	pages         repository.FeedPageRepository
	cfg           *config.FeedsConfig
	logger        *slog.Logger
}

// NewService wires the refresh pipeline. A nil cfg falls back to the
// built-in defaults.
func NewService(
	fetcher Fetcher,
	parser Parser,
	tracker FailureTracker,
	dispatcher TaskDispatcher,
	subscriptions repository.SubscriptionRepository,
	pages repository.FeedPageRepository,
	cfg *config.FeedsConfig,
	logger *slog.Logger,
) *Service {
	if cfg == nil {
		cfg = config.DefaultFeedsConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:       fetcher,
		parser:        parser,
		tracker:       tracker,
		dispatcher:    dispatcher,
		subscriptions: subscriptions,
		pages:         pages,
		cfg:           cfg,
		logger:        logger,
	}
}

// taskBatch collects content fetch tasks keyed by cleaned article URL,
// preserving first-seen order for dispatch.
type taskBatch struct {
	tasks map[string]*entity.ContentFetchTask
	order []string
}

func newTaskBatch() *taskBatch {
	return &taskBatch{tasks: make(map[string]*entity.ContentFetchTask)}
}

// RefreshFeed processes one refresh job.
func (s *Service) RefreshFeed(ctx context.Context, job *Job) error {
	if job == nil || len(job.Subscriptions) == 0 {
		return ErrNoSubscriptions
	}
	feedURL := job.FeedURL
	logger := s.logger.With(slog.String("feed_url", feedURL))
	logger.Info("refreshing feed", slog.Int("subscriptions", len(job.Subscriptions)))

	if s.tracker.IsBlocked(ctx, feedURL) {
		logger.Warn("feed blocked after repeated failures, skipping")
		return ErrFeedBlocked
	}

	// Bare chat channel URLs land on a page without message blocks; only
	// the public preview form carries them.
	fetchURL := feedURL
	isChat := s.isChatChannel(feedURL)
	if isChat {
		fetchURL = chatPreviewURL(feedURL)
	}

	doc, err := s.fetcher.Fetch(ctx, fetchURL)
	if err != nil {
		count := s.tracker.RecordFailure(ctx, feedURL)
		logger.Error("feed fetch failed",
			slog.Int64("failure_count", count),
			slog.Any("error", err))
		s.persistFailure(ctx, job, logger)
		return fmt.Errorf("%w: %v", ErrFeedFetchFailed, err)
	}

	var source *entity.FeedSource
	var items []entity.FeedItem
	if isChat {
		source, items, err = s.parser.ParseTelegram(doc.Body, feedURL)
	} else {
		source, items, err = s.parser.Parse(doc.Body, feedURL)
	}
	if err != nil {
		count := s.tracker.RecordFailure(ctx, feedURL)
		logger.Error("feed parse failed",
			slog.Int64("failure_count", count),
			slog.Any("error", err))
		s.persistFailure(ctx, job, logger)
		return fmt.Errorf("%w: %v", ErrFeedParseFailed, err)
	}

	if maxItems := s.cfg.Feeds.MaxItemsPerRefresh; len(items) > maxItems {
		logger.Info("capping feed items", slog.Int("total", len(items)), slog.Int("cap", maxItems))
		items = items[:maxItems]
	}
	obsmetrics.RecordItemsProcessed(len(items))

	now := time.Now()
	batch := newTaskBatch()
	unchanged := 0
	updated := make([]entity.Subscription, 0, len(job.Subscriptions))
	for i := range job.Subscriptions {
		sub := job.Subscriptions[i]
		if sub.Status != "" && sub.Status != entity.SubscriptionActive {
			continue
		}
		if s.processSubscription(ctx, &sub, source, items, doc.Checksum, batch, now, logger) {
			unchanged++
		}
		updated = append(updated, sub)
	}

	for _, articleURL := range batch.order {
		task := batch.tasks[articleURL]
		dispatchStart := time.Now()
		err := s.dispatcher.Dispatch(ctx, task)
		obsmetrics.RecordTaskDispatched(err == nil, len(task.Subscribers), time.Since(dispatchStart))
		if err != nil {
			logger.Error("content fetch dispatch failed",
				slog.String("article_url", articleURL),
				slog.String("task_id", task.ID),
				slog.Any("error", err))
		}
	}

	for i := range updated {
		if err := s.subscriptions.UpdateCursor(ctx, &updated[i]); err != nil {
			logger.Error("cursor update failed",
				slog.String("subscription_id", updated[i].ID),
				slog.Any("error", err))
		}
	}

	logger.Info("feed refreshed",
		slog.Int("items", len(items)),
		slog.Int("tasks", len(batch.order)))
	if len(updated) > 0 && unchanged == len(updated) {
		return ErrFeedUnchanged
	}
	return nil
}

// processSubscription runs the per-subscription half of the pipeline and
// mutates the subscription's cursor fields in place. It reports whether the
// subscription was skipped because its stored checksum matched the document.
func (s *Service) processSubscription(
	ctx context.Context,
	sub *entity.Subscription,
	source *entity.FeedSource,
	items []entity.FeedItem,
	checksum string,
	batch *taskBatch,
	now time.Time,
	logger *slog.Logger,
) bool {
	logger = logger.With(slog.String("subscription_id", sub.ID), slog.String("user_id", sub.UserID))

	advance := func() {
		sub.RefreshedAt = now
		sub.ScheduledAt = NextRefresh(now, source.UpdatePeriod, source.UpdateFrequency)
		sub.FailedAt = nil
	}

	if sub.LastFetchedChecksum == checksum {
		logger.Debug("feed content unchanged, skipping subscription")
		advance()
		return true
	}
	if !sub.NeverFetched() && source.LastBuildDate != nil && !source.LastBuildDate.After(sub.MostRecentItemDate) {
		logger.Debug("feed not rebuilt since last processed item, skipping subscription")
		advance()
		return false
	}

	mostRecent := sub.MostRecentItemDate
	processed := 0
	for i := range items {
		item := &items[i]
		if s.isOldItem(item, sub, now) {
			obsmetrics.RecordItemSkipped("old")
			continue
		}
		if !s.saveOrBatch(ctx, sub, item, batch, logger) {
			continue
		}
		processed++
		if item.PublishedAt != nil && item.PublishedAt.After(mostRecent) {
			mostRecent = *item.PublishedAt
		}
	}

	// A brand new subscription whose feed only carries old items still gets
	// its single most recent item, so the user never lands on an empty feed.
	if sub.NeverFetched() && processed == 0 && len(items) > 0 {
		item := mostRecentItem(items)
		if s.saveOrBatch(ctx, sub, item, batch, logger) {
			if item.PublishedAt != nil && item.PublishedAt.After(mostRecent) {
				mostRecent = *item.PublishedAt
			}
		}
	}

	sub.MostRecentItemDate = mostRecent
	sub.LastFetchedChecksum = checksum
	advance()
	logger.Debug("subscription processed",
		slog.Int("items_processed", processed),
		slog.Time("next_refresh", sub.ScheduledAt))
	return false
}

// isOldItem implements the age filter. Undated items are never old. A never
// fetched subscription accepts anything inside the cold start window; an
// established one accepts only items newer than its cursor.
func (s *Service) isOldItem(item *entity.FeedItem, sub *entity.Subscription, now time.Time) bool {
	if item.PublishedAt == nil {
		return false
	}
	if sub.NeverFetched() {
		return item.PublishedAt.Before(now.Add(-neverFetchedWindow))
	}
	return !item.PublishedAt.After(sub.MostRecentItemDate)
}

// saveOrBatch either stores the item as a feed-content page or attaches the
// subscription to the batched content fetch task for the item's URL. Returns
// false when the item was skipped (already saved recently, or storage failed).
func (s *Service) saveOrBatch(
	ctx context.Context,
	sub *entity.Subscription,
	item *entity.FeedItem,
	batch *taskBatch,
	logger *slog.Logger,
) bool {
	articleURL := urlutil.Clean(item.Link)
	if s.tracker.WasRecentlySaved(ctx, sub.UserID, articleURL) {
		logger.Debug("item recently saved, skipping", slog.String("url", articleURL))
		obsmetrics.RecordItemSkipped("duplicate")
		return false
	}

	policy := sub.EffectivePolicy()
	if s.cfg.IsContentFetchBlocked(sub.FeedURL) {
		policy = entity.FetchContentNever
	}
	embedded := item.EmbeddedContent()

	if policy == entity.FetchContentNever || (policy == entity.FetchContentWhenEmpty && embedded != "") {
		page := s.pageFromFeedContent(sub, item, articleURL, embedded)
		if err := s.pages.CreateFromFeedContent(ctx, page); err != nil {
			logger.Error("feed content page create failed",
				slog.String("url", articleURL),
				slog.Any("error", err))
			return false
		}
		s.tracker.MarkSaved(ctx, sub.UserID, articleURL)
		return true
	}

	task, ok := batch.tasks[articleURL]
	if !ok {
		task = &entity.ContentFetchTask{
			ID:         uuid.NewString(),
			ArticleURL: articleURL,
			FeedURL:    sub.FeedURL,
			Item:       *item,
		}
		batch.tasks[articleURL] = task
		batch.order = append(batch.order, articleURL)
	}
	task.AddSubscriber(entity.TaskSubscriber{
		UserID:      sub.UserID,
		PageID:      uuid.NewString(),
		WorkspaceID: sub.WorkspaceID,
	})
	s.tracker.MarkSaved(ctx, sub.UserID, articleURL)
	return true
}

func (s *Service) pageFromFeedContent(sub *entity.Subscription, item *entity.FeedItem, articleURL, content string) *entity.FeedPage {
	sum := sha256.Sum256([]byte(content))
	return &entity.FeedPage{
		ID:              uuid.NewString(),
		UserID:          sub.UserID,
		WorkspaceID:     sub.WorkspaceID,
		FeedURL:         sub.FeedURL,
		OriginalURL:     articleURL,
		Title:           item.Title,
		Description:     item.Summary,
		Author:          item.Author,
		Thumbnail:       item.ThumbnailURL,
		Content:         content,
		ContentChecksum: hex.EncodeToString(sum[:]),
		State:           entity.PageContentFetched,
		WordCount:       text.CountWordsHTML(content),
		PublishedAt:     item.PublishedAt,
		SavedAt:         time.Now(),
	}
}

// persistFailure stamps FailedAt on every subscription of a failed job so
// operators can see stuck feeds. Schedules still advance on the next
// successful refresh.
func (s *Service) persistFailure(ctx context.Context, job *Job, logger *slog.Logger) {
	now := time.Now()
	for i := range job.Subscriptions {
		sub := job.Subscriptions[i]
		sub.FailedAt = &now
		sub.RefreshedAt = now
		sub.ScheduledAt = NextRefresh(now, "", 0)
		if err := s.subscriptions.UpdateCursor(ctx, &sub); err != nil {
			logger.Error("failure cursor update failed",
				slog.String("subscription_id", sub.ID),
				slog.Any("error", err))
		}
	}
}

// chatPreviewURL rewrites a bare channel URL (t.me/{channel}) to the public
// preview form (t.me/s/{channel}). Already-preview URLs pass through.
func chatPreviewURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	path := strings.Trim(u.Path, "/")
	if path == "" || strings.HasPrefix(path, "s/") {
		return feedURL
	}
	u.Path = "/s/" + path
	return u.String()
}

func (s *Service) isChatChannel(feedURL string) bool {
	u, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, chat := range s.cfg.Feeds.ChatHosts {
		if host == chat || host == "www."+chat {
			return true
		}
	}
	return false
}

// mostRecentItem returns the item with the latest publish date, preferring
// dated items; with no dates at all the first item wins.
func mostRecentItem(items []entity.FeedItem) *entity.FeedItem {
	best := &items[0]
	for i := 1; i < len(items); i++ {
		item := &items[i]
		if item.PublishedAt == nil {
			continue
		}
		if best.PublishedAt == nil || item.PublishedAt.After(*best.PublishedAt) {
			best = item
		}
	}
	return best
}
