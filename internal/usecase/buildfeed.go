package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blogfeed/internal/domain"
	"blogfeed/internal/feed"
)

// FeedBuildUseCase собирает ленту вне HTTP: для CLI и статического экспорта.
type FeedBuildUseCase struct {
	source     PostSource
	generator  FeedGenerator
	production bool
	log        *slog.Logger
}

func NewFeedBuildUseCase(source PostSource, generator FeedGenerator, production bool, log *slog.Logger) *FeedBuildUseCase {
	return &FeedBuildUseCase{
		source:     source,
		generator:  generator,
		production: production,
		log:        log.With(slog.String("component", "feed-builder")),
	}
}

// Build загружает посты, упорядочивает их от новых к старым и строит ленту.
// Ошибка возвращается при сбое источника или сборки документа.
func (uc *FeedBuildUseCase) Build(ctx context.Context, maxItems int) (domain.GenerationResult, error) {
	start := time.Now()
	posts, err := uc.source.ListPosts(ctx)
	if err != nil {
		uc.log.Error("Post listing failed", slog.String("stage", "list"), slog.Any("error", err))
		return domain.GenerationResult{}, fmt.Errorf("list posts: %w", err)
	}
	result := uc.generator.GenerateFeed(domain.SortPostsByDate(posts), feed.GenerateOptions{
		MaxItems:   maxItems,
		Production: uc.production,
	})
	if !result.Success {
		return result, result.Err
	}
	uc.log.Info("Feed built",
		slog.Int("posts", len(posts)),
		slog.Int("items", result.ItemCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}
