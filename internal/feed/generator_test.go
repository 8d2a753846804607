package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"blogfeed/internal/config"
	"blogfeed/internal/domain"
	"blogfeed/internal/postfilter"
	"blogfeed/internal/rssxml"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings() config.FeedSettings {
	return config.FeedSettings{
		Site: config.SiteConfig{
			URL:         "https://test.dev",
			Title:       "Test Blog",
			Description: "A test blog",
			Author:      "Test Author",
			Language:    "en-US",
		},
		Feed: config.FeedConfig{
			Version: "2.0",
			TTL:     60,
			Path:    "/rss.xml",
		},
		Content: config.ContentConfig{
			MaxExcerptLength: 200,
			MinExcerptLength: 50,
			DefaultCategory:  "Blog",
		},
	}
}

func newTestGenerator(t *testing.T, settings config.FeedSettings, opts ...Option) *Generator {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	g, err := New(settings, testLogger(), opts...)
	require.NoError(t, err)
	return g
}

func post(slug, title, date, body string) domain.Post {
	return domain.Post{
		Slug: slug,
		Data: domain.PostData{Title: title, Date: domain.ParseDate(date)},
		Body: body,
	}
}

func parseFeed(t *testing.T, xml []byte) *gofeed.Feed {
	t.Helper()
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(xml))
	require.NoError(t, err)
	return parsed
}

func TestGenerateFeed_SinglePost(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	body := "<p>This is a test post body with enough characters to exceed the minimum excerpt length.</p>"

	result := g.GenerateFeed([]domain.Post{post("test-post", "Test Post", "2024-01-01", body)}, GenerateOptions{})

	require.True(t, result.Success)
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.ItemCount)
	assert.Equal(t, 0, result.SkippedCount)

	xml := string(result.XML)
	assert.Contains(t, xml, "<title>Test Post</title>")
	assert.Contains(t, xml, "<link>https://test.dev/blog/test-post/</link>")
	assert.Contains(t, xml, `<guid isPermaLink="true">https://test.dev/blog/test-post/</guid>`)
	assert.Contains(t, xml, "<description>This is a test post body with enough characters to exceed the minimum excerpt length.</description>")
	assert.Contains(t, xml, "<author>Test Author</author>")
	assert.Contains(t, xml, "<category>Blog</category>")
	assert.Contains(t, xml, "<generator>blogfeed (RSS 2.0)</generator>")
	assert.Contains(t, xml, `<atom:link href="https://test.dev/rss.xml" rel="self" type="application/rss+xml"/>`)
	assert.Contains(t, xml, "<lastBuildDate>Mon, 01 Jan 2024 00:00:00 +0000</lastBuildDate>")
	assert.Contains(t, xml, "<pubDate>"+rssxml.FormatDate(fixedNow)+"</pubDate>")

	parsed := parseFeed(t, result.XML)
	assert.Equal(t, "rss", parsed.FeedType)
	assert.Equal(t, "2.0", parsed.FeedVersion)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "Test Post", parsed.Items[0].Title)
}

func TestGenerateFeed_MixedValidity(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	posts := []domain.Post{
		post("valid", "Valid", "2024-03-01", "Some body text"),
		post("no-title", "", "2024-02-01", "body"),
		post("blank-title", "   ", "2024-02-01", "body"),
		post("no-body", "No body", "2024-02-01", ""),
		post("bad-date", "Bad date", "not-a-date", "body"),
	}

	result := g.GenerateFeed(posts, GenerateOptions{})

	require.True(t, result.Success)
	assert.Equal(t, 1, result.ItemCount)
	// Пост без заголовка отсеивается структурной проверкой до построения
	// элементов: он учитывается в DroppedCount, а не в SkippedCount.
	assert.Equal(t, 3, result.SkippedCount)
	assert.Equal(t, 1, result.DroppedCount)
	assert.Equal(t, len(posts), result.ItemCount+result.SkippedCount+result.DroppedCount)

	parsed := parseFeed(t, result.XML)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "Valid", parsed.Items[0].Title)
}

func TestGenerateFeed_EmptyInput(t *testing.T) {
	g := newTestGenerator(t, testSettings())

	result := g.GenerateFeed(nil, GenerateOptions{})

	require.True(t, result.Success)
	assert.Equal(t, 0, result.ItemCount)
	assert.NotContains(t, string(result.XML), "<item>")
	assert.Contains(t, string(result.XML), "<lastBuildDate>"+rssxml.FormatDate(fixedNow)+"</lastBuildDate>")
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.FeedSettings)
		field  string
	}{
		{"missing site", func(s *config.FeedSettings) { s.Site = config.SiteConfig{} }, "site"},
		{"relative url", func(s *config.FeedSettings) { s.Site.URL = "test.dev" }, "site.url"},
		{"ftp url", func(s *config.FeedSettings) { s.Site.URL = "ftp://test.dev" }, "site.url"},
		{"blank title", func(s *config.FeedSettings) { s.Site.Title = "  " }, "site.title"},
		{"negative ttl", func(s *config.FeedSettings) { s.Feed.TTL = -1 }, "feed.ttl"},
		{"relative feed path", func(s *config.FeedSettings) { s.Feed.Path = "rss.xml" }, "feed.path"},
		{"zero max excerpt", func(s *config.FeedSettings) { s.Content.MaxExcerptLength = 0 }, "content.max_excerpt_length"},
		{"min above max", func(s *config.FeedSettings) { s.Content.MinExcerptLength = 300 }, "content.min_excerpt_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			tt.mutate(&s)
			g, err := New(s, testLogger())
			require.Error(t, err)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
			var verr *config.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestGenerateFeed_ItemCap(t *testing.T) {
	posts := make([]domain.Post, 0, 25)
	for i := 0; i < 25; i++ {
		posts = append(posts, post(fmt.Sprintf("p%02d", i), fmt.Sprintf("Post %02d", i), "2024-01-01", "body"))
	}

	t.Run("default", func(t *testing.T) {
		g := newTestGenerator(t, testSettings())
		result := g.GenerateFeed(posts, GenerateOptions{})
		assert.Equal(t, DefaultMaxItems, result.ItemCount)
	})
	t.Run("configured", func(t *testing.T) {
		s := testSettings()
		s.Feed.MaxItems = 2
		g := newTestGenerator(t, s)
		result := g.GenerateFeed(posts, GenerateOptions{})
		assert.Equal(t, 2, result.ItemCount)
	})
	t.Run("call site wins", func(t *testing.T) {
		s := testSettings()
		s.Feed.MaxItems = 2
		g := newTestGenerator(t, s)
		result := g.GenerateFeed(posts, GenerateOptions{MaxItems: 3})
		assert.Equal(t, 3, result.ItemCount)
		parsed := parseFeed(t, result.XML)
		require.Len(t, parsed.Items, 3)
		assert.Equal(t, "Post 00", parsed.Items[0].Title)
		assert.Equal(t, "Post 02", parsed.Items[2].Title)
	})
}

func TestResolveMaxItems(t *testing.T) {
	assert.Equal(t, 5, ResolveMaxItems(5, 10))
	assert.Equal(t, 10, ResolveMaxItems(0, 10))
	assert.Equal(t, DefaultMaxItems, ResolveMaxItems(0, 0))
	assert.Equal(t, DefaultMaxItems, ResolveMaxItems(-1, 0))
}

func TestGenerateFeed_PreservesInputOrder(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	posts := []domain.Post{
		post("old", "Old", "2023-01-01", "body"),
		post("new", "New", "2024-01-01", "body"),
	}

	parsed := parseFeed(t, g.GenerateFeed(posts, GenerateOptions{}).XML)

	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Old", parsed.Items[0].Title)
	assert.Equal(t, "New", parsed.Items[1].Title)
}

func TestGenerateFeed_Drafts(t *testing.T) {
	draft := post("draft", "Draft", "2024-01-01", "body")
	draft.Data.Draft = true
	posts := []domain.Post{draft, post("live", "Live", "2024-01-02", "body")}
	g := newTestGenerator(t, testSettings())

	prod := g.GenerateFeed(posts, GenerateOptions{Production: true})
	assert.Equal(t, 1, prod.ItemCount)
	assert.Equal(t, 1, prod.DroppedCount)
	assert.NotContains(t, string(prod.XML), "<title>Draft</title>")

	dev := g.GenerateFeed(posts, GenerateOptions{Production: false})
	assert.Equal(t, 2, dev.ItemCount)
	assert.Contains(t, string(dev.XML), "<title>Draft</title>")
}

func TestGenerateFeed_CustomFilter(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	posts := []domain.Post{
		post("keep", "Keep", "2024-01-01", "body"),
		post("drop", "Drop", "2024-01-01", "body"),
	}
	var filter postfilter.PostPredicate = func(p domain.Post) bool { return p.Slug == "keep" }

	result := g.GenerateFeed(posts, GenerateOptions{PostFilter: filter})

	assert.Equal(t, 1, result.ItemCount)
	assert.Equal(t, 1, result.DroppedCount)
}

func TestGenerateFeed_Descriptions(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	explicit := post("explicit", "Explicit", "2024-01-01", "<p>body text</p>")
	explicit.Data.Description = "  Hand written summary  "
	long := post("long", "Long", "2024-01-01", "<p>"+strings.Repeat("word ", 100)+"</p>")
	markupOnly := post("markup", "Markup only", "2024-01-01", "<p></p><br/>")

	result := g.GenerateFeed([]domain.Post{explicit, long, markupOnly}, GenerateOptions{})

	require.True(t, result.Success)
	assert.Equal(t, 2, result.ItemCount)
	assert.Equal(t, 1, result.SkippedCount)
	parsed := parseFeed(t, result.XML)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Hand written summary", parsed.Items[0].Description)
	assert.True(t, strings.HasSuffix(parsed.Items[1].Description, "..."))
	assert.LessOrEqual(t, len([]rune(parsed.Items[1].Description)), 203)
}

func TestBuildItem_NoDescription(t *testing.T) {
	_, err := buildItem(testSettings(), post("x", "X", "2024-01-01", "   "))
	assert.ErrorIs(t, err, ErrNoDescription)
}

func TestBuildItem_InvalidPost(t *testing.T) {
	_, err := buildItem(testSettings(), post("x", "X", "yesterday", "body"))
	assert.ErrorIs(t, err, postfilter.ErrInvalidPost)
	assert.Contains(t, err.Error(), "date")
}

func TestGenerateFeed_EscapesSpecialCharacters(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	title := `Tom & Jerry <3 "quotes" 'apostrophes'`
	p := post("tom-and-jerry", title, "2024-01-01", "")
	p.Data.Description = "A & B"

	result := g.GenerateFeed([]domain.Post{p}, GenerateOptions{})

	require.True(t, result.Success)
	assert.Contains(t, string(result.XML), "<description>A &amp; B</description>")
	parsed := parseFeed(t, result.XML)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, title, parsed.Items[0].Title)
	assert.Equal(t, "A & B", parsed.Items[0].Description)
}

func TestGenerateFeed_InvalidUTF8StillParses(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	p := post("cafe", "Caf\xe9 notes", "2024-01-01", "<p>Cr\xe8me br\xfbl\xe9e & more</p>")

	result := g.GenerateFeed([]domain.Post{p}, GenerateOptions{})

	require.True(t, result.Success)
	assert.True(t, utf8.Valid(result.XML))
	dec := xml.NewDecoder(bytes.NewReader(result.XML))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	parsed := parseFeed(t, result.XML)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "Caf\uFFFD notes", parsed.Items[0].Title)
}

func TestGenerateFeed_TitleAndDescriptionEmittedVerbatim(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	p := post("padded", "  Padded Title  ", "2024-01-01", "")
	p.Data.Description = " Summary with edges "

	result := g.GenerateFeed([]domain.Post{p}, GenerateOptions{})

	require.True(t, result.Success)
	assert.Contains(t, string(result.XML), "<title>  Padded Title  </title>")
	assert.Contains(t, string(result.XML), "<description> Summary with edges </description>")
}

func TestGenerateFeed_Deterministic(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	posts := []domain.Post{
		post("a", "A", "2024-01-02", "first body"),
		post("b", "B", "2024-01-01", "second body"),
	}

	first := g.GenerateFeed(posts, GenerateOptions{})
	second := g.GenerateFeed(posts, GenerateOptions{})

	assert.Equal(t, first.XML, second.XML)
}

func TestGenerateFeed_FilterPanicFailsBatch(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	panicky := func(domain.Post) bool { panic("boom") }

	result := g.GenerateFeed([]domain.Post{post("a", "A", "2024-01-01", "body")}, GenerateOptions{PostFilter: panicky})

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrGeneration)
	assert.Nil(t, result.XML)
}

func TestUpdateConfig(t *testing.T) {
	g := newTestGenerator(t, testSettings())

	title := "Renamed Blog"
	require.NoError(t, g.UpdateConfig(config.SettingsPatch{SiteTitle: &title}))
	assert.Equal(t, "Renamed Blog", g.Settings().Site.Title)
	assert.Equal(t, "https://test.dev", g.Settings().Site.URL)

	badURL := "ftp://test.dev"
	newTitle := "Never applied"
	err := g.UpdateConfig(config.SettingsPatch{SiteURL: &badURL, SiteTitle: &newTitle})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, "Renamed Blog", g.Settings().Site.Title)
	assert.Equal(t, "https://test.dev", g.Settings().Site.URL)

	result := g.GenerateFeed(nil, GenerateOptions{})
	assert.Contains(t, string(result.XML), "<title>Renamed Blog</title>")
}

func TestPostURL(t *testing.T) {
	assert.Equal(t, "https://test.dev/blog/hello/", PostURL("https://test.dev", "hello"))
	assert.Equal(t, "https://test.dev/blog/hello/", PostURL("https://test.dev/", "/hello/"))
	assert.Equal(t, "https://test.dev/blog/2024/hello%20world/", PostURL("https://test.dev", "2024/hello world"))
}

type fakeRecorder struct {
	mu       sync.Mutex
	statuses []string
	items    []int
}

func (r *fakeRecorder) RecordGeneration(status string, items, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	r.items = append(r.items, items)
}

func TestGenerateFeed_RecordsResult(t *testing.T) {
	rec := &fakeRecorder{}
	g := newTestGenerator(t, testSettings(), WithRecorder(rec))

	g.GenerateFeed([]domain.Post{post("a", "A", "2024-01-01", "body")}, GenerateOptions{})
	g.GenerateFeed([]domain.Post{post("b", "B", "2024-01-01", "body")}, GenerateOptions{
		PostFilter: func(domain.Post) bool { panic("x") },
	})

	assert.Equal(t, []string{"success", "failure"}, rec.statuses)
	assert.Equal(t, []int{1, 0}, rec.items)
}

func TestGenerateFeed_Concurrent(t *testing.T) {
	g := newTestGenerator(t, testSettings())
	posts := []domain.Post{post("a", "A", "2024-01-01", "body")}
	want := g.GenerateFeed(posts, GenerateOptions{}).XML

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := g.GenerateFeed(posts, GenerateOptions{})
			if !bytes.Equal(want, got.XML) {
				errs <- errors.New("concurrent output differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
