// Package excerpt строит короткие текстовые анонсы постов без HTML-разметки.
package excerpt

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

const ellipsis = "..."

var tagPattern = regexp.MustCompile(`</?[^>]+(>|$)`)

// isSpace совпадает с классом \s в JavaScript: пробелы Unicode и BOM.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// StripHTML удаляет теги, раскрывает HTML-сущности (&amp;, &#39;, &nbsp;)
// и схлопывает пробельные последовательности в один пробел.
func StripHTML(content string) string {
	text := tagPattern.ReplaceAllString(content, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.FieldsFunc(text, isSpace), " ")
}

// Generate возвращает анонс не длиннее maxLength символов плюс многоточие.
// Текст короче maxLength возвращается без изменений. Длинный текст режется
// по последнему пробелу, если тот стоит дальше minLength, иначе жестко по maxLength.
func Generate(content string, maxLength, minLength int) string {
	text := StripHTML(content)
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength <= 0 {
		return ellipsis
	}
	cut := runes[:maxLength]
	lastSpace := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if isSpace(cut[i]) {
			lastSpace = i
			break
		}
	}
	if lastSpace > minLength {
		return string(cut[:lastSpace]) + ellipsis
	}
	return string(cut) + ellipsis
}
