package rssxml

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"blogfeed/internal/domain"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`
	atomNS    = "http://www.w3.org/2005/Atom"
)

// ErrInvalidDocument возвращается, когда у канала нет обязательных полей.
var ErrInvalidDocument = errors.New("invalid feed document")

// FormatDate форматирует время по RFC 2822 в UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}

// LastBuildDate возвращает самую позднюю дату публикации среди элементов
// или now, если элементов нет.
func LastBuildDate(items []domain.RSSItem, now time.Time) time.Time {
	if len(items) == 0 {
		return now
	}
	latest := items[0].PubDate
	for _, item := range items[1:] {
		if item.PubDate.After(latest) {
			latest = item.PubDate
		}
	}
	return latest
}

// Render сериализует документ в RSS 2.0 с atom:link rel="self".
// Поля канала экранируются здесь; поля элементов должны прийти уже экранированными.
// Порядок элементов канала фиксирован:
// title, description, link, atom:link, language, managingEditor, webMaster,
// lastBuildDate, pubDate, ttl, generator, item...
func Render(doc domain.FeedDocument) ([]byte, error) {
	if doc.Title == "" || doc.Link == "" {
		return nil, fmt.Errorf("%w: channel title and link are required", ErrInvalidDocument)
	}
	if doc.TTL < 0 {
		return nil, fmt.Errorf("%w: negative ttl %d", ErrInvalidDocument, doc.TTL)
	}
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<rss version="2.0" xmlns:atom="%s">`, atomNS)
	b.WriteString("\n  <channel>\n")
	element(&b, 4, "title", Escape(doc.Title))
	element(&b, 4, "description", Escape(doc.Description))
	element(&b, 4, "link", Escape(doc.Link))
	if doc.SelfLink != "" {
		fmt.Fprintf(&b, "    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\"/>\n", Escape(doc.SelfLink))
	}
	optional(&b, 4, "language", Escape(doc.Language))
	optional(&b, 4, "managingEditor", Escape(doc.ManagingEditor))
	optional(&b, 4, "webMaster", Escape(doc.WebMaster))
	element(&b, 4, "lastBuildDate", FormatDate(doc.LastBuildDate))
	element(&b, 4, "pubDate", FormatDate(doc.PubDate))
	element(&b, 4, "ttl", strconv.Itoa(doc.TTL))
	optional(&b, 4, "generator", Escape(doc.Generator))
	for _, item := range doc.Items {
		writeItem(&b, item)
	}
	b.WriteString("  </channel>\n</rss>\n")
	return b.Bytes(), nil
}

func writeItem(b *bytes.Buffer, item domain.RSSItem) {
	b.WriteString("    <item>\n")
	element(b, 6, "title", item.Title)
	element(b, 6, "description", item.Description)
	element(b, 6, "link", item.Link)
	fmt.Fprintf(b, "      <guid isPermaLink=\"true\">%s</guid>\n", item.GUID)
	element(b, 6, "pubDate", FormatDate(item.PubDate))
	optional(b, 6, "author", item.Author)
	optional(b, 6, "category", item.Category)
	b.WriteString("    </item>\n")
}

func element(b *bytes.Buffer, indent int, name, value string) {
	for i := 0; i < indent; i++ {
		b.WriteByte(' ')
	}
	fmt.Fprintf(b, "<%s>%s</%s>\n", name, value, name)
}

func optional(b *bytes.Buffer, indent int, name, value string) {
	if value == "" {
		return
	}
	element(b, indent, name, value)
}

// ErrorDocument строит минимальный, но корректный RSS-документ для ответа
// об ошибке. Текст ошибки попадает в описание канала.
func ErrorDocument(title, link, message string, now time.Time) []byte {
	if title == "" {
		title = "Feed unavailable"
	}
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<rss version="2.0" xmlns:atom="%s">`, atomNS)
	b.WriteString("\n  <channel>\n")
	element(&b, 4, "title", Escape(title))
	element(&b, 4, "description", Escape("Error generating RSS feed: "+message))
	element(&b, 4, "link", Escape(link))
	element(&b, 4, "lastBuildDate", FormatDate(now))
	b.WriteString("  </channel>\n</rss>\n")
	return b.Bytes()
}
