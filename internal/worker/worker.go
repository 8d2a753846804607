package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"blogfeed/internal/domain"
)

// FeedBuilder определяет интерфейс сборки ленты для экспорта.
type FeedBuilder interface {
	Build(ctx context.Context, maxItems int) (domain.GenerationResult, error)
}

// Worker периодически пересобирает ленту и записывает ее в файл,
// который публикуется вместе со статическим сайтом.
type Worker struct {
	builder  FeedBuilder
	path     string
	interval time.Duration
	log      *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// New создает воркер экспорта. interval должен быть положительным.
func New(builder FeedBuilder, path string, interval time.Duration, log *slog.Logger) *Worker {
	return &Worker{
		builder:  builder,
		path:     path,
		interval: interval,
		log:      log.With(slog.String("component", "worker")),
	}
}

// Start запускает цикл экспорта в отдельной горутине.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop останавливает воркер и ждет завершения текущего экспорта.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	w.log.Info("Feed export worker started",
		slog.String("interval", w.interval.String()),
		slog.String("path", w.path),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.exportOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.exportOnce(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

func (w *Worker) exportOnce(ctx context.Context) {
	start := time.Now()
	if err := w.Export(ctx); err != nil {
		w.log.Error("Feed export failed", slog.Any("error", err))
		return
	}
	w.log.Info("Feed export completed", slog.Duration("duration", time.Since(start)))
}

// Export собирает ленту и атомарно заменяет файл: запись во временный
// файл в том же каталоге и переименование. При ошибке старый файл остается.
func (w *Worker) Export(ctx context.Context) error {
	result, err := w.builder.Build(ctx, 0)
	if err != nil {
		return fmt.Errorf("build feed: %w", err)
	}
	return WriteFileAtomic(w.path, result.XML)
}

// WriteFileAtomic записывает данные через временный файл и rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rss-*.xml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
