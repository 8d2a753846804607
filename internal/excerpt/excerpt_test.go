package excerpt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags and whitespace", "<p>Hello   <b>world</b></p>\n\n<p>again</p>", "Hello world again"},
		{"unclosed tag at end", "Hello <b", "Hello"},
		{"self closing", "line<br/>break", "linebreak"},
		{"plain", "  just text  ", "just text"},
		{"empty", "", ""},
		{"entities decoded", "<p>Don&#39;t mix &#34;Tom&#34; &amp; Jerry.</p>", `Don't mix "Tom" & Jerry.`},
		{"escaped tag text stays text", "<p>&lt;b&gt; is bold</p>", "<b> is bold"},
		{"nbsp entity collapses", "a&nbsp;&nbsp;b", "a b"},
		{"unicode whitespace collapses", "a\u00a0\u00a0\u00a0b\v\vc\u2028d\u3000\ufeffe", "a b c d e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		max, min int
		want     string
	}{
		{
			name:    "short content unchanged",
			content: "<p>Short   post</p>",
			max:     200, min: 50,
			want: "Short post",
		},
		{
			name:    "exact length unchanged",
			content: "abcdefghij",
			max:     10, min: 3,
			want: "abcdefghij",
		},
		{
			name:    "cut at last word boundary",
			content: "The quick brown fox jumps over the lazy dog",
			max:     20, min: 5,
			want: "The quick brown fox...",
		},
		{
			name:    "hard cut without whitespace",
			content: "abcdefghijklmnopqrstuvwxyz",
			max:     10, min: 3,
			want: "abcdefghij...",
		},
		{
			name:    "whitespace before min forces hard cut",
			content: "ab cdefghijklmnop",
			max:     10, min: 5,
			want: "ab cdefghi...",
		},
		{
			name:    "entities count as one character",
			content: "<p>Tom &amp; Jerry &amp; Spike &amp; Tyke</p>",
			max:     15, min: 3,
			want: "Tom & Jerry &...",
		},
		{
			name:    "non-breaking space is a break point",
			content: "alpha\u00a0beta\u00a0gamma",
			max:     12, min: 3,
			want: "alpha beta...",
		},
		{
			name:    "measured in characters",
			content: "Привет мир как дела сегодня",
			max:     12, min: 3,
			want: "Привет мир...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.content, tt.max, tt.min))
		})
	}
}

func TestGenerate_LengthBound(t *testing.T) {
	content := strings.Repeat("<em>lorem</em> ipsum dolorsitametconsectetur ", 40)
	for max := 1; max <= 300; max += 7 {
		for _, min := range []int{0, max / 4, max / 2, max} {
			got := Generate(content, max, min)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), max+3, "max=%d min=%d", max, min)
			assert.NotContains(t, got, "<")
			assert.NotContains(t, got, "&lt;")
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	content := "<div>" + strings.Repeat("word ", 100) + "</div>"
	assert.Equal(t, Generate(content, 80, 20), Generate(content, 80, 20))
}
