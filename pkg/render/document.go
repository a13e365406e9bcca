package render

import (
	"context"
	"fmt"
	"strings"

	"xhsfeed/pkg/note"
)

// DocumentPublisher turns rendered markup into a public long-form URL.
// *telegraph.Client satisfies it.
type DocumentPublisher interface {
	PublishPage(ctx context.Context, title, html string) (string, error)
}

// Document renders the long-form markup for a note: title-as-link, all
// media, paragraph-per-line body, author block, metric line, location.
// The result is cached on the note; repeated calls are free.
func Document(n *note.Note) string {
	if n.HTML != "" {
		return n.HTML
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<h3>『<a href="%s">%s</a>』</h3>`, n.URL, EscapeHTML(n.Title))
	for _, img := range n.Images {
		if img.Live {
			fmt.Fprintf(&b, `<video src="%s"></video>`, img.URL)
		} else {
			fmt.Fprintf(&b, `<img src="%s"></img>`, img.URL)
		}
	}
	if n.VideoURL != "" {
		fmt.Fprintf(&b, `<video src="%s"></video>`, n.VideoURL)
	}
	fmt.Fprintf(&b, `<p>%s</p>`, strings.ReplaceAll(EscapeHTML(n.Desc), "\n", "<br>"))
	fmt.Fprintf(&b, `<h4>👤 <a href="%s">@%s (%s)</a></h4>`, n.ProfileURL(), EscapeHTML(n.User.Name), EscapeHTML(n.User.RedID))
	fmt.Fprintf(&b, `<p>%s %s</p>`, ClockEmoji(n.Time), FormatTime(n.Time))
	fmt.Fprintf(&b, `<p>❤️ %s ⭐ %s 💬 %s 🔗 %s</p>`, n.LikedCount, n.CollectedCount, n.CommentsCount, n.SharedCount)
	fmt.Fprintf(&b, `<p>📍 %s</p>`, EscapeHTML(n.IPLocation))
	b.WriteString(`<br><i>via</i> <a href="https://t.me/xhsfeedbot">@xhsfeedbot</a>`)

	n.HTML = b.String()
	return n.HTML
}

// DocumentURL publishes the rendered document on first call and caches
// the hosted URL on the note; later calls return the cached URL without
// re-publishing.
func DocumentURL(ctx context.Context, n *note.Note, publisher DocumentPublisher) (string, error) {
	if n.DocumentURL != "" {
		return n.DocumentURL, nil
	}
	if publisher == nil {
		return "", fmt.Errorf("no document publisher configured")
	}
	url, err := publisher.PublishPage(ctx, n.Title, Document(n))
	if err != nil {
		return "", fmt.Errorf("publish document: %w", err)
	}
	n.DocumentURL = url
	return url, nil
}
