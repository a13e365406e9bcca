package note

import "regexp"

// The app encodes a hashtag as #text[话题]# where the bracket carries a
// CJK marker token. Normalization strips the bracketed token and pads
// the tag with spaces so adjacent tags do not merge into one word.
var tagPattern = regexp.MustCompile(`(#\S+?)\[\p{Han}+\]#`)

// Comments carry a lighter variant for search-highlighted terms:
// #text[搜索高亮]#, which renders as plain text, no hashtag.
var highlightPattern = regexp.MustCompile(`#(\S+?)\[搜索高亮\]#`)

// NormalizeTags rewrites #text[token]# to " #text " throughout. Text
// already free of bracket tokens comes back unchanged, so applying the
// transform twice is safe.
func NormalizeTags(text string) string {
	return tagPattern.ReplaceAllString(text, " ${1} ")
}

// StripHighlightTags unwraps search-highlight markers in comment text,
// leaving the bare term.
func StripHighlightTags(text string) string {
	return highlightPattern.ReplaceAllString(text, "${1}")
}
