package verifier

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"blogfeed/internal/domain"
	"blogfeed/internal/rssxml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func renderDoc(t *testing.T, selfLink string) []byte {
	t.Helper()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := rssxml.Render(domain.FeedDocument{
		Title:         "Blog",
		Description:   "d",
		Link:          "https://test.dev/",
		SelfLink:      selfLink,
		Language:      "en-US",
		LastBuildDate: now,
		PubDate:       now,
		TTL:           60,
		Items: []domain.RSSItem{{
			Title:       "Post",
			Description: "text",
			Link:        "https://test.dev/blog/post/",
			GUID:        "https://test.dev/blog/post/",
			PubDate:     now,
		}},
	})
	require.NoError(t, err)
	return out
}

func TestVerify_ValidFeed(t *testing.T) {
	report, err := New(discardLogger()).Verify(context.Background(), bytes.NewReader(renderDoc(t, "https://test.dev/rss.xml")))

	require.NoError(t, err)
	assert.True(t, report.OK(), "problems: %v", report.Problems)
	assert.Equal(t, "rss", report.FeedType)
	assert.Equal(t, "2.0", report.FeedVersion)
	assert.Equal(t, "Blog", report.Title)
	assert.Equal(t, "https://test.dev/rss.xml", report.SelfLink)
	assert.Equal(t, 1, report.Items)
}

func TestVerify_MissingSelfLink(t *testing.T) {
	report, err := New(discardLogger()).Verify(context.Background(), bytes.NewReader(renderDoc(t, "")))

	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Contains(t, strings.Join(report.Problems, "\n"), "atom:link")
}

func TestVerify_ItemProblems(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title><link>https://x.dev/</link><description>d</description>
<item><title></title><pubDate>yesterday</pubDate></item>
</channel></rss>`

	report, err := New(discardLogger()).Verify(context.Background(), strings.NewReader(doc))

	require.NoError(t, err)
	problems := strings.Join(report.Problems, "\n")
	assert.Contains(t, problems, "item 0: title is empty")
	assert.Contains(t, problems, "item 0: link is empty")
	assert.Contains(t, problems, "item 0: guid is empty")
	assert.Contains(t, problems, "item 0: pubDate")
}

func TestVerify_NotAFeed(t *testing.T) {
	_, err := New(discardLogger()).Verify(context.Background(), strings.NewReader("<html><body>nope</body></html>"))
	assert.Error(t, err)
}

func TestVerify_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(discardLogger()).Verify(ctx, strings.NewReader(""))
	assert.ErrorIs(t, err, context.Canceled)
}
