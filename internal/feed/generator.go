package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"blogfeed/internal/config"
	"blogfeed/internal/domain"
	"blogfeed/internal/excerpt"
	"blogfeed/internal/postfilter"
	"blogfeed/internal/rssxml"
)

const (
	// DefaultMaxItems используется, когда лимит не задан ни вызовом, ни конфигурацией.
	DefaultMaxItems = 20
	generatorName   = "blogfeed"
	postPathPrefix  = "/blog/"
)

var (
	// ErrNoDescription - у поста нет ни описания, ни текста для анонса.
	ErrNoDescription = errors.New("post has no usable description")
	// ErrGeneration - сбой сборки ленты целиком.
	ErrGeneration = errors.New("feed generation failed")
)

// Recorder принимает итог каждой генерации, например для метрик.
type Recorder interface {
	RecordGeneration(status string, items, skipped int, duration time.Duration)
}

// GenerateOptions - параметры одного вызова генерации.
type GenerateOptions struct {
	// MaxItems > 0 переопределяет лимит из конфигурации.
	MaxItems   int
	PostFilter postfilter.PostPredicate
	Production bool
}

// Generator собирает RSS-ленту из постов. Конфигурация проверяется при создании
// и меняется только через успешный UpdateConfig, поэтому один экземпляр
// можно использовать из нескольких горутин.
type Generator struct {
	mu       sync.RWMutex
	settings config.FeedSettings
	log      *slog.Logger
	now      func() time.Time
	recorder Recorder
}

// Option настраивает Generator.
type Option func(*Generator)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRecorder подключает учет результатов генерации.
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// New проверяет параметры ленты и создает генератор.
// При некорректной конфигурации экземпляр не создается.
func New(settings config.FeedSettings, log *slog.Logger, opts ...Option) (*Generator, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create feed generator: %w", err)
	}
	g := &Generator{
		settings: settings,
		log:      log.With(slog.String("component", "feed-generator")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Settings возвращает текущую конфигурацию генератора.
func (g *Generator) Settings() config.FeedSettings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

// UpdateConfig применяет частичное обновление. Объединенная конфигурация
// проверяется целиком; при ошибке прежняя остается без изменений.
func (g *Generator) UpdateConfig(patch config.SettingsPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	merged := g.settings.Merge(patch)
	if err := merged.Validate(); err != nil {
		g.log.Error("Rejected feed config update", slog.Any("error", err))
		return fmt.Errorf("failed to update feed config: %w", err)
	}
	g.settings = merged
	g.log.Info("Feed config updated")
	return nil
}

// ResolveMaxItems выбирает итоговый лимит: значение вызова важнее конфигурации,
// конфигурация важнее DefaultMaxItems.
func ResolveMaxItems(callSite, configured int) int {
	switch {
	case callSite > 0:
		return callSite
	case configured > 0:
		return configured
	default:
		return DefaultMaxItems
	}
}

// GenerateFeed строит ленту из постов. Ошибка отдельного поста только
// увеличивает SkippedCount; Success=false возвращается лишь при сбое сборки
// документа целиком. Порядок постов сохраняется.
func (g *Generator) GenerateFeed(posts []domain.Post, opts GenerateOptions) (result domain.GenerationResult) {
	const op = "feed.GenerateFeed"
	start := time.Now()
	log := g.log.With(slog.String("op", op))
	settings := g.Settings()

	defer func() {
		if r := recover(); r != nil {
			result = failure(fmt.Errorf("%w: %v", ErrGeneration, r))
		}
		if !result.Success {
			log.Error("Feed generation failed", slog.Any("error", result.Err))
		}
		g.record(result, time.Since(start))
	}()

	valid := postfilter.GetValidPosts(log, posts, opts.Production, opts.PostFilter)
	dropped := len(posts) - len(valid)
	limit := ResolveMaxItems(opts.MaxItems, settings.Feed.MaxItems)
	if len(valid) > limit {
		valid = valid[:limit]
	}

	items := make([]domain.RSSItem, 0, len(valid))
	skipped := 0
	for _, post := range valid {
		item, err := buildItem(settings, post)
		if err != nil {
			skipped++
			log.Warn("Skipping post",
				slog.String("slug", post.Slug),
				slog.Any("error", err),
			)
			continue
		}
		items = append(items, item)
	}

	doc := assemble(settings, items, g.now())
	xml, err := rssxml.Render(doc)
	if err != nil {
		return failure(fmt.Errorf("%w: %w", ErrGeneration, err))
	}
	log.Info("Feed generated",
		slog.Int("items", len(items)),
		slog.Int("skipped", skipped),
		slog.Int("dropped", dropped),
		slog.Int("limit", limit),
	)
	return domain.GenerationResult{
		Success:      true,
		XML:          xml,
		ItemCount:    len(items),
		SkippedCount: skipped,
		DroppedCount: dropped,
	}
}

func (g *Generator) record(result domain.GenerationResult, d time.Duration) {
	if g.recorder == nil {
		return
	}
	status := "success"
	if !result.Success {
		status = "failure"
	}
	g.recorder.RecordGeneration(status, result.ItemCount, result.SkippedCount, d)
}

func failure(err error) domain.GenerationResult {
	return domain.GenerationResult{Success: false, Err: err}
}

// buildItem превращает пост в элемент ленты. Паника внутри изолируется
// и превращается в ошибку этого поста.
func buildItem(s config.FeedSettings, post domain.Post) (item domain.RSSItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while building item: %v", r)
		}
	}()
	description := resolveDescription(post, s.Content)
	if description == "" {
		return domain.RSSItem{}, ErrNoDescription
	}
	if err := postfilter.ValidatePostData(post); err != nil {
		return domain.RSSItem{}, err
	}
	link := PostURL(s.Site.URL, post.Slug)
	return domain.RSSItem{
		Title:       rssxml.Escape(post.Data.Title),
		Description: rssxml.Escape(description),
		Link:        rssxml.Escape(link),
		GUID:        rssxml.Escape(link),
		PubDate:     post.Data.Date.Time,
		Author:      rssxml.Escape(s.Site.Author),
		Category:    rssxml.Escape(s.Content.DefaultCategory),
	}, nil
}

// resolveDescription берет явное описание как есть, а при его отсутствии
// строит анонс из тела поста. Пустое тело и тело, пустое после удаления
// разметки, дают "". Пробелы учитываются только при проверке на пустоту.
func resolveDescription(post domain.Post, c config.ContentConfig) string {
	if strings.TrimSpace(post.Data.Description) != "" {
		return post.Data.Description
	}
	if strings.TrimSpace(post.Body) == "" {
		return ""
	}
	return excerpt.Generate(post.Body, c.MaxExcerptLength, c.MinExcerptLength)
}

// PostURL строит постоянную ссылку на пост: {site}/blog/{slug}/.
func PostURL(siteURL, slug string) string {
	segments := strings.Split(strings.Trim(slug, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(siteURL, "/") + postPathPrefix + strings.Join(segments, "/") + "/"
}

func assemble(s config.FeedSettings, items []domain.RSSItem, now time.Time) domain.FeedDocument {
	siteURL := strings.TrimRight(s.Site.URL, "/")
	return domain.FeedDocument{
		Title:          s.Site.Title,
		Description:    s.Site.Description,
		Link:           siteURL + "/",
		SelfLink:       siteURL + "/" + strings.TrimLeft(s.Feed.Path, "/"),
		Language:       s.Site.Language,
		ManagingEditor: s.Site.Author,
		WebMaster:      s.Site.Author,
		LastBuildDate:  rssxml.LastBuildDate(items, now),
		PubDate:        now,
		TTL:            s.Feed.TTL,
		Generator:      generatorLabel(s.Feed.Version),
		Items:          items,
	}
}

func generatorLabel(version string) string {
	if version == "" {
		return generatorName
	}
	return generatorName + " (RSS " + version + ")"
}
