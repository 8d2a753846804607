package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ImportUseCase переносит посты из одного источника (обычно markdown-каталога)
// в постоянное хранилище.
type ImportUseCase struct {
	source PostSource
	sink   PostSink
	log    *slog.Logger
}

func NewImportUseCase(source PostSource, sink PostSink, log *slog.Logger) *ImportUseCase {
	return &ImportUseCase{
		source: source,
		sink:   sink,
		log:    log.With(slog.String("component", "importer")),
	}
}

// Import выполняет полный цикл: чтение постов и их сохранение.
// Возвращает число сохраненных постов.
func (uc *ImportUseCase) Import(ctx context.Context) (int, error) {
	start := time.Now()
	uc.log.Info("Import started")

	posts, err := uc.source.ListPosts(ctx)
	if err != nil {
		uc.log.Error("Post listing failed", slog.String("stage", "list"), slog.Any("error", err))
		return 0, fmt.Errorf("list failed: %w", err)
	}
	uc.log.Debug("Posts listed", slog.String("stage", "list"), slog.Int("count", len(posts)))

	saved, err := uc.sink.SavePosts(ctx, posts)
	if err != nil {
		uc.log.Error("Post save failed", slog.String("stage", "save"), slog.Any("error", err))
		return 0, fmt.Errorf("save failed: %w", err)
	}

	uc.log.Info("Import completed",
		slog.Int("items_found", len(posts)),
		slog.Int("items_saved", saved),
		slog.Duration("duration", time.Since(start)),
	)
	return saved, nil
}
