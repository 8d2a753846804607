// Package postfilter отбирает посты, пригодные для публикации в ленте.
package postfilter

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"blogfeed/internal/domain"
)

// ErrInvalidPost оборачивает все причины отбраковки поста.
var ErrInvalidPost = errors.New("invalid post")

// PostPredicate - дополнительный фильтр вызывающей стороны.
type PostPredicate func(domain.Post) bool

// IsValidPost выполняет структурную проверку: slug, заголовок и дата присутствуют.
// Содержимое полей проверяет ValidatePostData.
func IsValidPost(post domain.Post) bool {
	return post.Slug != "" && post.Data.Title != "" && !post.Data.Date.IsZero()
}

// ShouldInclude решает, попадает ли пост в сборку. В production черновики
// исключаются, в остальных режимах показываются все посты.
func ShouldInclude(post domain.Post, production bool) bool {
	if production && post.Data.Draft {
		return false
	}
	return true
}

// ValidatePostData проверяет пост перед построением элемента ленты.
// Текст ошибки называет конкретную причину.
func ValidatePostData(post domain.Post) error {
	if strings.TrimSpace(post.Data.Title) == "" {
		return fmt.Errorf("%w: missing or invalid title", ErrInvalidPost)
	}
	if !post.Data.Date.Valid() {
		return fmt.Errorf("%w: missing or invalid date %q", ErrInvalidPost, post.Data.Date.Raw)
	}
	if strings.TrimSpace(post.Slug) == "" {
		return fmt.Errorf("%w: missing or invalid slug", ErrInvalidPost)
	}
	return nil
}

// GetValidPosts прогоняет посты через структурную проверку, фильтр окружения
// и необязательный предикат. Отброшенные посты логируются, паники нет.
func GetValidPosts(log *slog.Logger, posts []domain.Post, production bool, filter PostPredicate) []domain.Post {
	log = log.With(slog.String("op", "postfilter.GetValidPosts"))
	valid := make([]domain.Post, 0, len(posts))
	for _, post := range posts {
		if !IsValidPost(post) {
			log.Warn("Skipping structurally invalid post",
				slog.String("slug", post.Slug),
				slog.String("title", post.Data.Title),
			)
			continue
		}
		if !ShouldInclude(post, production) {
			log.Warn("Skipping draft post in production build", slog.String("slug", post.Slug))
			continue
		}
		if filter != nil && !filter(post) {
			log.Warn("Post rejected by custom filter", slog.String("slug", post.Slug))
			continue
		}
		valid = append(valid, post)
	}
	return valid
}
