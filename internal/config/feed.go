package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ErrInvalidConfig возвращается при любой ошибке проверки конфигурации.
var ErrInvalidConfig = errors.New("invalid config")

// ValidationError указывает на конкретное поле конфигурации.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// SiteConfig описывает сайт, которому принадлежит лента.
type SiteConfig struct {
	URL         string `mapstructure:"url" json:"url"`
	Title       string `mapstructure:"title" json:"title"`
	Description string `mapstructure:"description" json:"description"`
	Author      string `mapstructure:"author" json:"author"`
	Language    string `mapstructure:"language" json:"language"`
}

// FeedConfig описывает параметры канала. TTL задается в минутах,
// MaxItems=0 означает «не задано».
type FeedConfig struct {
	Version  string `mapstructure:"version" json:"version"`
	TTL      int    `mapstructure:"ttl" json:"ttl"`
	Path     string `mapstructure:"path" json:"path"`
	MaxItems int    `mapstructure:"max_items" json:"maxItems,omitempty"`
}

// ContentConfig задает границы генерации выдержек.
type ContentConfig struct {
	MaxExcerptLength int    `mapstructure:"max_excerpt_length" json:"maxExcerptLength"`
	MinExcerptLength int    `mapstructure:"min_excerpt_length" json:"minExcerptLength"`
	DefaultCategory  string `mapstructure:"default_category" json:"defaultCategory"`
}

// FeedSettings объединяет все, что нужно генератору ленты.
// Проверяется целиком при создании генератора и при каждом обновлении.
type FeedSettings struct {
	Site    SiteConfig    `json:"site"`
	Feed    FeedConfig    `json:"feed"`
	Content ContentConfig `json:"content"`
}

// Validate проверяет параметры ленты и возвращает первую найденную проблему.
func (s FeedSettings) Validate() error {
	if s.Site == (SiteConfig{}) {
		return invalid("site", "configuration is missing")
	}
	u, err := url.Parse(strings.TrimSpace(s.Site.URL))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return invalid("site.url", fmt.Sprintf("must be an absolute URL, got %q", s.Site.URL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("site.url", fmt.Sprintf("must use http or https, got %q", u.Scheme))
	}
	required := []struct {
		field, value string
	}{
		{"site.title", s.Site.Title},
		{"site.description", s.Site.Description},
		{"site.author", s.Site.Author},
		{"site.language", s.Site.Language},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid(r.field, "must be a non-empty string")
		}
	}
	if p := s.Feed.Path; p != "" && (!strings.HasPrefix(p, "/") || strings.ContainsFunc(p, unicode.IsSpace)) {
		return invalid("feed.path", fmt.Sprintf("must start with / and contain no spaces, got %q", p))
	}
	if s.Feed.TTL < 0 {
		return invalid("feed.ttl", "must not be negative")
	}
	if s.Feed.MaxItems < 0 {
		return invalid("feed.max_items", "must not be negative")
	}
	if s.Content.MaxExcerptLength <= 0 {
		return invalid("content.max_excerpt_length", "must be positive")
	}
	if s.Content.MinExcerptLength < 0 {
		return invalid("content.min_excerpt_length", "must not be negative")
	}
	if s.Content.MinExcerptLength > s.Content.MaxExcerptLength {
		return invalid("content.min_excerpt_length", "must not exceed max_excerpt_length")
	}
	return nil
}

// SettingsPatch - частичное обновление параметров ленты.
// Nil-поля означают «оставить как есть».
type SettingsPatch struct {
	SiteURL          *string
	SiteTitle        *string
	SiteDescription  *string
	SiteAuthor       *string
	SiteLanguage     *string
	FeedVersion      *string
	FeedTTL          *int
	FeedPath         *string
	FeedMaxItems     *int
	MaxExcerptLength *int
	MinExcerptLength *int
	DefaultCategory  *string
}

// Merge возвращает копию параметров с примененным патчем. Исходное значение не меняется.
func (s FeedSettings) Merge(p SettingsPatch) FeedSettings {
	out := s
	setString(&out.Site.URL, p.SiteURL)
	setString(&out.Site.Title, p.SiteTitle)
	setString(&out.Site.Description, p.SiteDescription)
	setString(&out.Site.Author, p.SiteAuthor)
	setString(&out.Site.Language, p.SiteLanguage)
	setString(&out.Feed.Version, p.FeedVersion)
	setInt(&out.Feed.TTL, p.FeedTTL)
	setString(&out.Feed.Path, p.FeedPath)
	setInt(&out.Feed.MaxItems, p.FeedMaxItems)
	setInt(&out.Content.MaxExcerptLength, p.MaxExcerptLength)
	setInt(&out.Content.MinExcerptLength, p.MinExcerptLength)
	setString(&out.Content.DefaultCategory, p.DefaultCategory)
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
