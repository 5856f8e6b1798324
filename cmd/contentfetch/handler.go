package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"feed-ingest/internal/contenthandler"
	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/observability/logging"
	obsmetrics "feed-ingest/internal/observability/metrics"
	"feed-ingest/internal/repository"
	"feed-ingest/internal/usecase/save"
)

// taskRequest mirrors the body the refresh worker's dispatch client posts.
type taskRequest struct {
	Users       []entity.TaskSubscriber `json:"users"`
	TaskID      string                  `json:"taskId"`
	Source      string                  `json:"source"`
	PageURL     string                  `json:"pageUrl"`
	FeedURL     string                  `json:"feedUrl"`
	SavedAt     string                  `json:"savedAt"`
	PublishedAt string                  `json:"publishedAt,omitempty"`
	Priority    string                  `json:"priority"`
	TraceID     string                  `json:"traceId"`
}

type taskResponse struct {
	TaskID    string `json:"taskId"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	WordCount int    `json:"wordCount"`
	Pages     int    `json:"pages"`
}

// newsletterRequest is an inbound email for the newsletter chain.
type newsletterRequest struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html"`
	Headers map[string]string `json:"headers"`
}

type intakeHandler struct {
	svc    *save.Service
	pages  repository.FeedPageRepository
	token  string
	logger *slog.Logger
}

// requireToken rejects requests whose token query parameter does not match
// the configured shared secret.
func (h *intakeHandler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != h.token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleTask resolves the task's article URL and stores one page per
// subscriber. Per-subscriber persistence failures are logged but do not fail
// the task; the resolution already succeeded for the remaining subscribers.
func (h *intakeHandler) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PageURL == "" || len(req.Users) == 0 {
		writeError(w, http.StatusBadRequest, "pageUrl and users are required")
		return
	}

	ctx := r.Context()
	if req.TraceID != "" {
		ctx = logging.WithTraceIDContext(ctx, req.TraceID)
	}
	logger := logging.WithTraceID(ctx, h.logger)

	resolved, err := h.svc.ResolvePage(ctx, req.PageURL)
	if err != nil {
		logger.Error("task resolution failed",
			slog.String("task_id", req.TaskID),
			slog.String("page_url", req.PageURL),
			slog.Any("error", err))
		status := http.StatusBadGateway
		if errors.Is(err, save.ErrInvalidPageURL) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	var publishedAt *time.Time
	if req.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, req.PublishedAt); err == nil {
			publishedAt = &t
		}
	}
	sum := sha256.Sum256([]byte(resolved.Content))
	checksum := hex.EncodeToString(sum[:])

	saved := 0
	for _, user := range req.Users {
		page := &entity.FeedPage{
			ID:              pageID(user),
			UserID:          user.UserID,
			WorkspaceID:     user.WorkspaceID,
			FeedURL:         req.FeedURL,
			OriginalURL:     resolved.URL,
			Title:           resolved.Title,
			Description:     resolved.Excerpt,
			Author:          resolved.Author,
			Content:         resolved.Content,
			ContentChecksum: checksum,
			State:           entity.PageContentFetched,
			WordCount:       resolved.WordCount,
			PublishedAt:     publishedAt,
			SavedAt:         time.Now().UTC(),
		}
		if err := h.pages.CreateFromFeedContent(ctx, page); err != nil {
			logger.Error("failed to store resolved page",
				slog.String("task_id", req.TaskID),
				slog.String("user_id", user.UserID),
				slog.Any("error", err))
			continue
		}
		obsmetrics.RecordPageCreated()
		saved++
	}

	logger.Info("task resolved",
		slog.String("task_id", req.TaskID),
		slog.String("url", resolved.URL),
		slog.Int("subscribers", len(req.Users)),
		slog.Int("pages_saved", saved))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(taskResponse{
		TaskID:    req.TaskID,
		URL:       resolved.URL,
		Title:     resolved.Title,
		WordCount: resolved.WordCount,
		Pages:     saved,
	})
}

// handleNewsletter runs an inbound email through the newsletter chain.
func (h *intakeHandler) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req newsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.From == "" || req.HTML == "" {
		writeError(w, http.StatusBadRequest, "from and html are required")
		return
	}

	nl, err := h.svc.HandleEmail(r.Context(), &contenthandler.EmailInput{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		HTML:    req.HTML,
		Headers: req.Headers,
	})
	if errors.Is(err, contenthandler.ErrNotNewsletter) {
		writeError(w, http.StatusUnprocessableEntity, "not a newsletter")
		return
	}
	if err != nil {
		h.logger.Error("newsletter handling failed",
			slog.String("from", req.From),
			slog.Any("error", err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"email":  nl.Email,
		"title":  nl.Title,
		"author": nl.Author,
		"url":    nl.URL,
	})
}

// pageID keeps the page id the worker pre-allocated for the subscriber when
// it was sent with the task, and mints one otherwise.
func pageID(user entity.TaskSubscriber) string {
	if user.PageID != "" {
		return user.PageID
	}
	return uuid.NewString()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
