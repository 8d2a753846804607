package storage

import (
	"context"

	"blogfeed/internal/domain"
)

// Storage определяет источник постов для ленты.
type Storage interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	Close()
}

// PostWriter сохраняет посты; используется командой импорта.
type PostWriter interface {
	SavePosts(ctx context.Context, posts []domain.Post) (int, error)
}
