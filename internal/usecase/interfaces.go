package usecase

import (
	"context"

	"blogfeed/internal/domain"
	"blogfeed/internal/feed"
)

// PostSource определяет интерфейс получения постов из источника контента.
type PostSource interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
}

// PostSink определяет интерфейс для сохранения постов в постоянное хранилище.
// Возвращает количество сохраненных постов.
type PostSink interface {
	SavePosts(ctx context.Context, posts []domain.Post) (int, error)
}

// FeedGenerator строит ленту из уже загруженных постов.
type FeedGenerator interface {
	GenerateFeed(posts []domain.Post, opts feed.GenerateOptions) domain.GenerationResult
}
