package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blogfeed/internal/domain"

	"github.com/jackc/pgx/v5"
)

// pgxPool - подмножество pgxpool.Pool, которое использует хранилище.
// Ему же удовлетворяет pgxmock.PgxPoolIface.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

type PostgresPostDB struct {
	pool pgxPool
	log  *slog.Logger
}

func NewPostgresPostDB(pool pgxPool, log *slog.Logger) *PostgresPostDB {
	log.Info("Initializing Postgres post storage")
	return &PostgresPostDB{
		pool: pool,
		log:  log.With(slog.String("component", "storage")),
	}
}

func (db *PostgresPostDB) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// SavePosts вставляет или обновляет посты по slug в одной транзакции.
func (db *PostgresPostDB) SavePosts(ctx context.Context, posts []domain.Post) (saved int, err error) {
	const op = "storage.postgres.SavePosts"
	log := db.log.With(slog.String("op", op))
	if len(posts) == 0 {
		return 0, nil
	}
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				log.Error("Failed to rollback transaction", slog.Any("error", rollbackErr))
			}
		}
	}()
	query := `
	INSERT INTO posts (slug, title, description, body, published_at, draft)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (slug) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		body = EXCLUDED.body,
		published_at = EXCLUDED.published_at,
		draft = EXCLUDED.draft,
		updated_at = now();
	`
	for _, post := range posts {
		if !post.Data.Date.Valid() {
			log.Warn("Skipping post without a valid date", slog.String("slug", post.Slug))
			continue
		}
		if _, err = tx.Exec(ctx, query,
			post.Slug,
			post.Data.Title,
			post.Data.Description,
			post.Body,
			post.Data.Date.Time,
			post.Data.Draft,
		); err != nil {
			log.Error("Failed to upsert post", slog.String("slug", post.Slug), slog.Any("error", err))
			return 0, fmt.Errorf("%s: failed to upsert post %s: %w", op, post.Slug, err)
		}
		saved++
	}
	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	log.Info("Posts saved", slog.Int("count", saved))
	return saved, nil
}

// ListPosts возвращает все посты, новые первыми.
func (db *PostgresPostDB) ListPosts(ctx context.Context) ([]domain.Post, error) {
	const op = "storage.postgres.ListPosts"
	log := db.log.With(slog.String("op", op))
	query := `
	SELECT slug, title, COALESCE(description, ''), COALESCE(body, ''), published_at, draft
	FROM posts
	ORDER BY published_at DESC;
	`
	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Post, error) {
		var post domain.Post
		var publishedAt time.Time
		err := row.Scan(
			&post.Slug,
			&post.Data.Title,
			&post.Data.Description,
			&post.Body,
			&publishedAt,
			&post.Data.Draft,
		)
		post.Data.Date = domain.DateOf(publishedAt)
		return post, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	log.Debug("Posts loaded", slog.Int("count", len(posts)))
	return posts, nil
}
