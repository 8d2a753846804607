package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer регистрирует эндпоинты ленты, health-check и метрик
// и оборачивает их в middleware: request id, логирование, CORS.
func NewServer(log *slog.Logger, h *Handler, feedPath string) http.Handler {
	if feedPath == "" {
		feedPath = "/rss.xml"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(feedPath, h.rssFeed)
	mux.HandleFunc("/api/health", h.healthCheck)
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = corsMiddleware()(handler)
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware()(handler)
	return handler
}
