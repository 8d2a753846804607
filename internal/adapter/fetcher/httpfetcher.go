package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"
)

const (
	acceptFeed = "application/rss+xml, application/xml;q=0.9, */*;q=0.5"
	// DefaultMaxBytes ограничивает размер загружаемой ленты.
	DefaultMaxBytes int64 = 10 << 20
)

// ErrTooLarge возвращается при чтении, если лента превысила лимит размера.
var ErrTooLarge = errors.New("feed exceeds size limit")

// ErrNotXML - сервер ответил HTML-страницей или другим не-XML содержимым.
var ErrNotXML = errors.New("response is not an XML document")

// HTTPFetcher загружает опубликованную ленту по HTTP для проверки.
type HTTPFetcher struct {
	client    *http.Client
	log       *slog.Logger
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher создает загрузчик с ограничением времени на весь запрос.
func NewHTTPFetcher(log *slog.Logger, timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		log:       log.With(slog.String("component", "fetcher")),
		userAgent: userAgent,
		maxBytes:  DefaultMaxBytes,
	}
}

// WithMaxBytes меняет лимит размера ответа.
func (f *HTTPFetcher) WithMaxBytes(n int64) *HTTPFetcher {
	f.maxBytes = n
	return f
}

// Fetch запрашивает ленту и возвращает тело ответа; закрыть его обязан вызывающий.
// Статус, отличный от 200, и явно не-XML Content-Type считаются ошибкой.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	log := f.log.With(slog.String("url", url))
	log.Debug("Fetching feed")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	req.Header.Set("Accept", acceptFeed)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch url %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		log.Error("Unexpected status code", slog.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("unexpected status code: %d for url %s", resp.StatusCode, url)
	}
	contentType := resp.Header.Get("Content-Type")
	if !acceptableContentType(contentType) {
		resp.Body.Close()
		log.Error("Unexpected content type", slog.String("content_type", contentType))
		return nil, fmt.Errorf("%w: %s", ErrNotXML, contentType)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	log.Debug("Feed fetched", slog.String("content_type", contentType))
	return &limitedBody{rc: resp.Body, remaining: f.maxBytes, unlimited: f.maxBytes <= 0}, nil
}

// acceptableContentType пропускает любой XML и пустой заголовок.
// HTML-страницы (например, страница логина прокси) отсекаются сразу.
func acceptableContentType(header string) bool {
	if header == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "application/json":
		return false
	}
	return true
}

type limitedBody struct {
	rc        io.ReadCloser
	remaining int64
	unlimited bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.unlimited {
		return b.rc.Read(p)
	}
	if b.remaining <= 0 {
		var probe [1]byte
		if n, _ := b.rc.Read(probe[:]); n > 0 {
			return 0, ErrTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.rc.Read(p)
	b.remaining -= int64(n)
	return n, err
}

func (b *limitedBody) Close() error { return b.rc.Close() }
