package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"blogfeed/internal/config"
	"blogfeed/internal/domain"
	"blogfeed/internal/feed"
	"blogfeed/internal/rssxml"
)

const (
	contentTypeRSS   = "application/rss+xml; charset=utf-8"
	cacheControlOK   = "public, max-age=3600"
	cacheControlFail = "no-cache"
)

type postLister interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
}

type feedGenerator interface {
	GenerateFeed(posts []domain.Post, opts feed.GenerateOptions) domain.GenerationResult
	Settings() config.FeedSettings
}

// SourceErrorRecorder учитывает сбои источника постов.
type SourceErrorRecorder func(source string)

type Handler struct {
	log         *slog.Logger
	posts       postLister
	generator   feedGenerator
	production  bool
	sourceName  string
	onSourceErr SourceErrorRecorder
	now         func() time.Time
}

func NewHandler(log *slog.Logger, posts postLister, generator feedGenerator, production bool) *Handler {
	return &Handler{
		log:        log.With(slog.String("component", "http")),
		posts:      posts,
		generator:  generator,
		production: production,
		sourceName: "posts",
		now:        time.Now,
	}
}

// WithSourceErrors подключает учет сбоев источника с указанным именем.
func (h *Handler) WithSourceErrors(source string, rec SourceErrorRecorder) *Handler {
	h.sourceName = source
	h.onSourceErr = rec
	return h
}

// rssFeed - хендлер для эндпоинта ленты (обычно /rss.xml).
func (h *Handler) rssFeed(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/rssFeed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	switch r.Method {
	case http.MethodOptions:
		setFeedCacheHeaders(w.Header())
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodHead:
	default:
		log.Warn("method not allowed", slog.String("method", r.Method))
		w.Header().Set("Allow", "GET, HEAD, OPTIONS")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	opts := feed.GenerateOptions{Production: h.production}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		opts.MaxItems = limit
	}

	posts, err := h.posts.ListPosts(r.Context())
	if err != nil {
		log.Error("Failed to list posts", slog.Any("error", err))
		if h.onSourceErr != nil {
			h.onSourceErr(h.sourceName)
		}
		h.respondWithFeedError(w, err.Error())
		return
	}

	result := h.generator.GenerateFeed(domain.SortPostsByDate(posts), opts)
	if !result.Success {
		log.Error("Failed to generate feed", slog.Any("error", result.Err))
		h.respondWithFeedError(w, result.Err.Error())
		return
	}
	log.Info("Feed served",
		slog.Int("items", result.ItemCount),
		slog.Int("skipped", result.SkippedCount),
	)
	setFeedCacheHeaders(w.Header())
	w.Header().Set("Content-Type", contentTypeRSS)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(result.XML)
	}
}

func setFeedCacheHeaders(header http.Header) {
	header.Set("Cache-Control", cacheControlOK)
	header.Set("X-Content-Type-Options", "nosniff")
}

// respondWithFeedError отвечает 500 с корректным RSS-документом,
// чтобы клиенты-агрегаторы не получили битый XML.
func (h *Handler) respondWithFeedError(w http.ResponseWriter, message string) {
	site := h.generator.Settings().Site
	body := rssxml.ErrorDocument(site.Title, site.URL, message, h.now())
	w.Header().Set("Content-Type", contentTypeRSS)
	w.Header().Set("Cache-Control", cacheControlFail)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(body)
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
