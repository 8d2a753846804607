package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"blogfeed/internal/config"
	"blogfeed/internal/feed"
	"blogfeed/internal/metrics"
	"blogfeed/internal/migrations"
	server "blogfeed/internal/transport/http"
	"blogfeed/internal/usecase"
	"blogfeed/internal/worker"
	"blogfeed/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App связывает компоненты сервиса: источник постов, генератор ленты,
// HTTP-сервер и необязательный воркер статического экспорта.
type App struct {
	config *config.Config
	logger *slog.Logger
	server *http.Server
	worker *worker.Worker
	source storage.Storage
}

// NewSource открывает источник постов, выбранный в конфигурации.
// Для Postgres проверяется соединение и применяются миграции.
func NewSource(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	switch cfg.Source.Kind {
	case config.SourceMarkdown:
		info, err := os.Stat(cfg.Source.Dir)
		if err != nil {
			return nil, fmt.Errorf("content directory %s: %w", cfg.Source.Dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("content directory %s is not a directory", cfg.Source.Dir)
		}
		return storage.NewMarkdownPostStore(os.DirFS(cfg.Source.Dir), log), nil
	case config.SourcePostgres:
		pool, err := OpenPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresPostDB(pool, log), nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", cfg.Source.Kind)
	}
}

// OpenPostgres подключается к базе, проверяет соединение и применяет миграции.
func OpenPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := migrations.Apply(ctx, log, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return pool, nil
}

// NewGenerator создает генератор ленты с учетом метрик.
func NewGenerator(cfg *config.Config, log *slog.Logger) (*feed.Generator, error) {
	return feed.New(cfg.Settings(), log, feed.WithRecorder(metrics.Recorder{}))
}

// New создает и инициализирует приложение. Конфигурация должна быть уже проверена.
func New(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (*App, error) {
	generator, err := NewGenerator(cfg, appLogger)
	if err != nil {
		return nil, err
	}
	source, err := NewSource(ctx, cfg, appLogger)
	if err != nil {
		return nil, err
	}

	handler := server.NewHandler(appLogger, source, generator, cfg.Production).
		WithSourceErrors(cfg.Source.Kind, metrics.RecordSourceError)
	router := server.NewServer(appLogger, handler, cfg.Feed.Path)

	var exportWorker *worker.Worker
	if cfg.Export.Interval > 0 {
		builder := usecase.NewFeedBuildUseCase(source, generator, cfg.Production, appLogger)
		exportWorker = worker.New(builder, cfg.Export.Path, cfg.Export.Interval, appLogger)
	}

	return &App{
		config: cfg,
		logger: appLogger,
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
		worker: exportWorker,
		source: source,
	}, nil
}

// Run запускает HTTP-сервер и воркер экспорта и блокируется до отмены ctx
// (сигнал завершения) или падения сервера. Затем выполняет graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting blogfeed",
		slog.String("component", "app"),
		slog.String("source", a.config.Source.Kind),
		slog.String("feed_path", a.config.Feed.Path),
		slog.Bool("production", a.config.Production),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)

	g, gctx := errgroup.WithContext(ctx)
	if a.worker != nil {
		a.worker.Start(gctx)
	}
	g.Go(func() error {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutdown signal received", slog.String("component", "app"))
		return a.Shutdown()
	})
	return g.Wait()
}

// Shutdown останавливает воркер, HTTP-сервер и закрывает источник постов.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	if a.worker != nil {
		a.worker.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	a.source.Close()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return err
}
