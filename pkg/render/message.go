package render

import (
	"context"
	"fmt"
	"log"
	"strings"

	"xhsfeed/pkg/note"
)

const viaLine = "\n_via_ @xhsfeedbot"

// MessageOptions control chat message rendering.
type MessageOptions struct {
	// Telegraph forces a hosted-document link even in full-body mode.
	Telegraph bool
}

// Message renders the MarkdownV2 chat message for a note and caches it.
// Preview mode (past the length threshold) truncates the body and always
// links the hosted document, publishing it on first use.
func Message(ctx context.Context, n *note.Note, opts MessageOptions, publisher DocumentPublisher) (string, error) {
	if n.Message != "" {
		return n.Message, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*『[%s](%s)』*\n\n", EscapeMarkdownV2(n.Title), n.URL)

	if n.Preview() {
		b.WriteString(blockQuote(truncateRunes(n.Desc, note.PreviewCut) + " ..."))
		b.WriteString("\n\n")
		if line, ok := documentLine(ctx, n, publisher, "View more via Telegraph"); ok {
			b.WriteString(line)
		}
	} else {
		b.WriteString(blockQuote(n.Desc))
		b.WriteString("\n\n")
		if opts.Telegraph {
			if line, ok := documentLine(ctx, n, publisher, "Telegraph"); ok {
				b.WriteString(line)
			}
		}
	}

	b.WriteString(authorLine(n))
	b.WriteString(metricsBlock(n, true))
	if n.FirstComment != "" {
		b.WriteString(commentQuote(n))
	}
	if n.Anchor != nil && n.Anchor.Text != "" {
		b.WriteString("\n")
		b.WriteString(blockQuote(fmt.Sprintf("🔗 @%s\n%s", n.Anchor.Author, n.Anchor.Text)))
	}
	b.WriteString(viaLine)

	n.Message = b.String()
	return n.Message, nil
}

// documentLine builds the hosted-document link line. A publish failure
// degrades to omitting the line; the message itself still goes out.
func documentLine(ctx context.Context, n *note.Note, publisher DocumentPublisher, label string) (string, bool) {
	url, err := DocumentURL(ctx, n, publisher)
	if err != nil {
		log.Printf("render: hosted document for %s: %v", n.NoteID, err)
		return "", false
	}
	return fmt.Sprintf("📝 [%s](%s)\n\n", label, EscapeMarkdownV2(url)), true
}

func authorLine(n *note.Note) string {
	return fmt.Sprintf("[@%s \\(%s\\)](%s)\n\n",
		EscapeMarkdownV2(n.User.Name), EscapeMarkdownV2(n.User.RedID), n.ProfileURL())
}

// metricsBlock renders the engagement counters, timestamp and location
// as an expandable quote. Counters that arrived as numbers pass through
// unescaped; pre-formatted strings are escaped like any untrusted text.
func metricsBlock(n *note.Note, withCollected bool) string {
	var b strings.Builder
	b.WriteString("**>❤️ " + countText(n.LikedCount))
	if withCollected {
		b.WriteString(" ⭐ " + countText(n.CollectedCount))
	}
	b.WriteString(" 💬 " + countText(n.CommentsCount))
	b.WriteString(" 🔗 " + countText(n.SharedCount))
	fmt.Fprintf(&b, "\n>%s %s\n", ClockEmoji(n.Time), EscapeMarkdownV2(FormatTime(n.Time)))
	fmt.Fprintf(&b, ">📍 %s||\n\n", EscapeMarkdownV2(n.IPLocation))
	return b.String()
}

func commentQuote(n *note.Note) string {
	header := "🗨️ @" + n.CommentUser
	if n.FirstCommentTag != "" {
		header += " [" + n.FirstCommentTag + "]"
	}
	return blockQuote(header + "\n" + n.FirstComment)
}

func countText(c note.Count) string {
	if c.IsNumeric() {
		return c.String()
	}
	return EscapeMarkdownV2(c.String())
}

// blockQuote wraps text in a MarkdownV2 quote, escaping each line. Past
// three lines the quote gets the expandable open/close markers so long
// bodies collapse in the client.
func blockQuote(text string) string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = "> " + EscapeMarkdownV2(line)
	}
	if len(lines) > 3 {
		lines[0] = "**" + lines[0]
		lines[len(lines)-1] += "||"
	}
	return strings.Join(lines, "\n")
}

// truncateRunes cuts s to at most n characters, not bytes: body text is
// mostly CJK and a byte cut would split a rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
