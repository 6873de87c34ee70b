package delivery

import (
	"regexp"
	"strings"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order: bold markers go before italics, images before links.
var markdownRewrites = []rewrite{
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.+?)__`), "$1"},
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},
	{regexp.MustCompile(`_(.+?)_`), "$1"},
	{regexp.MustCompile("`(.+?)`"), "$1"},
	{regexp.MustCompile(`(?m)^#+\s+`), ""},
	{regexp.MustCompile(`(?m)^>\s+`), ""},
	{regexp.MustCompile(`!\[.*?\]\(.+?\)`), ""},
	{regexp.MustCompile(`\[(.+?)\]\(.+?\)`), "$1"},
	{regexp.MustCompile(`(?m)^(\*{3,}|_{3,}|-{3,})$`), ""},
	{regexp.MustCompile(`(?m)^([ \t]*)[*+-][ \t]+`), "${1}• "},
	{regexp.MustCompile(`(?m)^([ \t]*)\d+\.[ \t]+`), "${1}• "},
}

// PlainText strips Markdown emphasis, headings, quotes, links and rules,
// and turns list markers into bullets.
func PlainText(s string) string {
	for _, rw := range markdownRewrites {
		s = rw.re.ReplaceAllString(s, rw.repl)
	}
	return strings.TrimSpace(s)
}

// truncateRunes cuts s to limit runes, ending with "..." when cut.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
