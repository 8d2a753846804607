package verifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/gofeed"
)

// Report - результат проверки RSS-документа.
type Report struct {
	Title       string
	Link        string
	SelfLink    string
	FeedType    string
	FeedVersion string
	Items       int
	Problems    []string
}

// OK сообщает, что документ разобран и замечаний нет.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Verifier разбирает ленту независимым парсером и проверяет обязательные поля.
type Verifier struct {
	log    *slog.Logger
	parser *gofeed.Parser
}

func New(log *slog.Logger) *Verifier {
	return &Verifier{
		log:    log.With(slog.String("component", "verifier")),
		parser: gofeed.NewParser(),
	}
}

// Verify возвращает ошибку, только если документ вообще не разбирается.
// Нарушения структуры RSS 2.0 собираются в Report.Problems.
func (v *Verifier) Verify(ctx context.Context, r io.Reader) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feed, err := v.parser.Parse(r)
	if err != nil {
		v.log.Error("Error parsing feed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	report := &Report{
		Title:       feed.Title,
		Link:        feed.Link,
		SelfLink:    feed.FeedLink,
		FeedType:    feed.FeedType,
		FeedVersion: feed.FeedVersion,
		Items:       len(feed.Items),
	}
	if feed.FeedType != "rss" || feed.FeedVersion != "2.0" {
		report.addf("expected RSS 2.0, got %s %s", feed.FeedType, feed.FeedVersion)
	}
	if feed.Title == "" {
		report.addf("channel title is empty")
	}
	if feed.Link == "" {
		report.addf("channel link is empty")
	}
	if feed.FeedLink == "" {
		report.addf("atom:link rel=\"self\" is missing")
	}
	for i, item := range feed.Items {
		if item.Title == "" {
			report.addf("item %d: title is empty", i)
		}
		if item.Link == "" {
			report.addf("item %d: link is empty", i)
		}
		if item.GUID == "" {
			report.addf("item %d: guid is empty", i)
		}
		if item.PublishedParsed == nil {
			report.addf("item %d: pubDate %q is not a valid RFC 2822 date", i, item.Published)
		}
	}
	v.log.Info("Feed verified",
		slog.Int("items", report.Items),
		slog.Int("problems", len(report.Problems)),
	)
	return report, nil
}

func (r *Report) addf(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}
