package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Post представляет запись блога, полученную от источника контента.
// Для генератора ленты пост доступен только на чтение.
type Post struct {
	Slug string   `json:"slug" yaml:"slug"`
	Data PostData `json:"data" yaml:"data"`
	Body string   `json:"body,omitempty" yaml:"body,omitempty"`
}

// PostData содержит метаданные поста (front matter).
type PostData struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Date        PostDate `json:"date" yaml:"date"`
	Draft       bool     `json:"draft,omitempty" yaml:"draft,omitempty"`
}

// dateLayouts перечисляет форматы, в которых источники присылают дату поста.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// PostDate хранит дату поста. Источник может передать как готовое время,
// так и строку. Нераспознанная строка сохраняется в Raw, чтобы пост
// отбраковал валидатор, а не загрузчик.
type PostDate struct {
	Time time.Time
	Raw  string
}

// DateOf создает PostDate из готового значения времени.
func DateOf(t time.Time) PostDate {
	return PostDate{Time: t}
}

// ParseDate разбирает строку даты в одном из поддерживаемых форматов.
// Ошибка разбора не теряет исходный текст.
func ParseDate(s string) PostDate {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return PostDate{Time: t, Raw: s}
		}
	}
	return PostDate{Raw: s}
}

// IsZero сообщает, что дата не задана вовсе.
func (d PostDate) IsZero() bool {
	return d.Time.IsZero() && d.Raw == ""
}

// Valid сообщает, что дата разобрана в корректный момент времени.
func (d PostDate) Valid() bool {
	return !d.Time.IsZero()
}

func (d PostDate) String() string {
	if d.Valid() {
		return d.Time.Format(time.RFC3339)
	}
	return d.Raw
}

func (d PostDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *PostDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("post date must be a string: %w", err)
	}
	*d = ParseDate(s)
	return nil
}

// UnmarshalYAML принимает как YAML-timestamp, так и произвольную строку.
func (d *PostDate) UnmarshalYAML(node *yaml.Node) error {
	var t time.Time
	if node.Tag == "!!timestamp" {
		if err := node.Decode(&t); err == nil {
			*d = PostDate{Time: t, Raw: node.Value}
			return nil
		}
	}
	*d = ParseDate(node.Value)
	return nil
}

// SortPostsByDate возвращает копию списка, отсортированную по дате: новые первыми.
// Посты без корректной даты уходят в конец, порядок равных сохраняется.
func SortPostsByDate(posts []Post) []Post {
	sorted := slices.Clone(posts)
	slices.SortStableFunc(sorted, func(a, b Post) int {
		av, bv := a.Data.Date.Valid(), b.Data.Date.Valid()
		switch {
		case av && !bv:
			return -1
		case !av && bv:
			return 1
		case !av && !bv:
			return 0
		}
		return b.Data.Date.Time.Compare(a.Data.Date.Time)
	})
	return sorted
}
