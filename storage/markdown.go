package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"blogfeed/internal/domain"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

var errNoFrontMatter = errors.New("missing front matter")

// frontMatter - заголовок markdown-файла поста.
type frontMatter struct {
	Slug        string          `yaml:"slug"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Date        domain.PostDate `yaml:"date"`
	Draft       bool            `yaml:"draft"`
}

// MarkdownPostStore читает посты из каталога markdown-файлов с YAML front matter.
// Тело рендерится в HTML и очищается политикой UGC.
type MarkdownPostStore struct {
	fsys     fs.FS
	log      *slog.Logger
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func NewMarkdownPostStore(fsys fs.FS, log *slog.Logger) *MarkdownPostStore {
	return &MarkdownPostStore{
		fsys:     fsys,
		log:      log.With(slog.String("component", "storage")),
		markdown: goldmark.New(),
		policy:   bluemonday.UGCPolicy(),
	}
}

func (s *MarkdownPostStore) Close() {}

// ListPosts обходит каталог и разбирает каждый .md файл. Файл с битым
// заголовком пропускается с предупреждением; ошибкой считается только
// невозможность прочитать каталог.
func (s *MarkdownPostStore) ListPosts(ctx context.Context) ([]domain.Post, error) {
	const op = "storage.markdown.ListPosts"
	log := s.log.With(slog.String("op", op))
	var posts []domain.Post
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}
		raw, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		post, err := s.parse(p, raw)
		if err != nil {
			log.Warn("Skipping unreadable post file", slog.String("file", p), slog.Any("error", err))
			return nil
		}
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		log.Error("Failed to walk content directory", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Debug("Posts loaded", slog.Int("count", len(posts)))
	return posts, nil
}

func (s *MarkdownPostStore) parse(name string, raw []byte) (domain.Post, error) {
	header, body, err := splitFrontMatter(raw)
	if err != nil {
		return domain.Post{}, err
	}
	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return domain.Post{}, fmt.Errorf("invalid front matter: %w", err)
	}
	var html bytes.Buffer
	if err := s.markdown.Convert(body, &html); err != nil {
		return domain.Post{}, fmt.Errorf("failed to render markdown: %w", err)
	}
	slug := fm.Slug
	if slug == "" {
		slug = slugFromPath(name)
	}
	return domain.Post{
		Slug: slug,
		Data: domain.PostData{
			Title:       fm.Title,
			Description: fm.Description,
			Date:        fm.Date,
			Draft:       fm.Draft,
		},
		Body: s.policy.Sanitize(html.String()),
	}, nil
}

// splitFrontMatter отделяет YAML-заголовок между строками "---" от тела.
func splitFrontMatter(raw []byte) (header, body []byte, err error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")
	if !strings.HasPrefix(text, frontMatterDelimiter+"\n") {
		return nil, nil, errNoFrontMatter
	}
	rest := "\n" + text[len(frontMatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: closing delimiter not found", errNoFrontMatter)
	}
	header = []byte(rest[:end])
	rest = rest[end+1+len(frontMatterDelimiter):]
	rest = strings.TrimPrefix(rest, "\n")
	return header, []byte(rest), nil
}

// slugFromPath: "2024/hello.md" -> "hello", "hello/index.md" -> "hello".
func slugFromPath(p string) string {
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if strings.EqualFold(base, "index") {
		if dir := path.Base(path.Dir(p)); dir != "." && dir != "/" {
			return dir
		}
	}
	return base
}
