package rssxml

import "strings"

// entityReplacer работает за один проход: '&' внутри подставленных
// сущностей повторно не экранируется. '&' обязан идти первым.
var entityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape готовит текст к вставке в XML: заменяет битые UTF-8 последовательности
// на U+FFFD, экранирует &, <, >, ", ' и удаляет управляющие символы,
// запрещенные в XML 1.0.
func Escape(text string) string {
	text = strings.ToValidUTF8(text, "\uFFFD")
	return stripControl(entityReplacer.Replace(text))
}

func isIllegalControl(r rune) bool {
	switch {
	case r <= 0x08, r == 0x0B, r == 0x0C:
		return true
	case r >= 0x0E && r <= 0x1F, r == 0x7F:
		return true
	case r == 0xFFFE, r == 0xFFFF:
		return true
	}
	return false
}

func stripControl(s string) string {
	if strings.IndexFunc(s, isIllegalControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isIllegalControl(r) {
			return -1
		}
		return r
	}, s)
}
