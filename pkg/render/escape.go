package render

import "strings"

// MarkdownV2 reserves these characters; every occurrence in untrusted
// text must be backslash-escaped exactly once. Fixed template
// punctuation is never escaped.
var markdownV2Replacer = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdownV2 escapes MarkdownV2 reserved characters in t.
func EscapeMarkdownV2(t string) string {
	return markdownV2Replacer.Replace(t)
}

// EscapeHTML escapes the characters Telegraph treats as markup.
func EscapeHTML(t string) string {
	t = strings.ReplaceAll(t, "&", "&amp;")
	t = strings.ReplaceAll(t, "<", "&lt;")
	t = strings.ReplaceAll(t, ">", "&gt;")
	return t
}
