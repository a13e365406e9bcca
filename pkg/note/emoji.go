package note

import (
	_ "embed"
	"encoding/json"
	"log"
	"strings"
)

// The app encodes its proprietary emoji as bracketed tokens ("[笑哭R]")
// in desc and comment text. They must be substituted before hashtag
// normalization runs: tag boundaries are delimited by the same bracket
// syntax.

//go:embed emoji.json
var emojiTableJSON []byte

var emojiTable = loadEmojiTable()

func loadEmojiTable() map[string]string {
	table := make(map[string]string)
	if err := json.Unmarshal(emojiTableJSON, &table); err != nil {
		// The table is compiled in; a parse failure is a build defect.
		log.Printf("note: emoji table unreadable: %v", err)
	}
	return table
}

// ReplaceEmojiTokens substitutes every known proprietary emoji token in
// text with its standard emoji. Unknown tokens pass through unchanged.
func ReplaceEmojiTokens(text string) string {
	if !strings.Contains(text, "[") {
		return text
	}
	for token, emoji := range emojiTable {
		text = strings.ReplaceAll(text, token, emoji)
	}
	return text
}
