package render

import (
	"context"
	"fmt"
	"strings"

	"xhsfeed/pkg/note"
)

// previewCut is the body truncation for inline previews, far shorter
// than the chat message cut: inline captions ride along every media
// result.
const previewCut = 166

// ShortPreview renders the condensed caption used for inline query
// results and caches it. Same structure as the chat message, shorter
// body, always linking the hosted document.
func ShortPreview(ctx context.Context, n *note.Note, publisher DocumentPublisher) (string, error) {
	if n.ShortPreview != "" {
		return n.ShortPreview, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*『[%s](%s)』*\n\n", EscapeMarkdownV2(n.Title), n.URL)
	b.WriteString(blockQuote(truncateRunes(n.Desc, previewCut) + " ..."))
	b.WriteString("\n\n")
	if line, ok := documentLine(ctx, n, publisher, "View more via Telegraph"); ok {
		b.WriteString(line)
	}
	b.WriteString(authorLine(n))
	b.WriteString(metricsBlock(n, false))
	b.WriteString(viaLine)

	n.ShortPreview = b.String()
	return n.ShortPreview, nil
}
