package bot

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"xhsfeed/pkg/note"
	"xhsfeed/pkg/render"
)

// inlineTimeout bounds an inline fetch; the platform drops the query
// long before the chat flow would give up.
const inlineTimeout = 20 * time.Second

func (b *Bot) handleInlineQuery(ctx context.Context, q *tgbotapi.InlineQuery) {
	if q.Query == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, inlineTimeout)
	defer cancel()

	req := parseRequest(q.Query)
	n, err := b.fetcher.Fetch(ctx, req.text, req.noteOpts)
	if err != nil {
		log.Printf("bot: inline fetch: %v", err)
		b.answerInline(q.ID, nil)
		return
	}

	preview, err := render.ShortPreview(ctx, n, b.publisher)
	if err != nil {
		log.Printf("bot: inline preview: %v", err)
		b.answerInline(q.ID, nil)
		return
	}

	b.answerInline(q.ID, inlineResults(n, preview))
}

// inlineResults maps the note's media to inline answer entries, each
// carrying the short preview so a forwarded result stands alone.
func inlineResults(n *note.Note, preview string) []interface{} {
	var results []interface{}

	if n.VideoURL != "" {
		results = append(results, inlineVideo(n.VideoURL, n.VideoThumbnail, n.Title, preview))
		return results
	}

	for i, m := range n.Images {
		if i >= mediaGroupLimit {
			break
		}
		if m.Live {
			results = append(results, inlineVideo(m.URL, m.Thumbnail, n.Title, preview))
			continue
		}
		photo := tgbotapi.NewInlineQueryResultPhotoWithThumb(uuid.NewString(), m.URL, m.URL)
		photo.Title = n.Title
		photo.Caption = preview
		photo.ParseMode = tgbotapi.ModeMarkdownV2
		results = append(results, photo)
	}
	return results
}

// inlineVideo builds a video result. The result type has no caption
// parse mode in this library version, so the styled preview rides in
// the input message content instead.
func inlineVideo(url, thumbnail, title, preview string) tgbotapi.InlineQueryResultVideo {
	video := tgbotapi.NewInlineQueryResultVideo(uuid.NewString(), url)
	video.MimeType = "video/mp4"
	video.ThumbURL = thumbnail
	video.Title = title
	video.InputMessageContent = tgbotapi.InputTextMessageContent{
		Text:      preview,
		ParseMode: tgbotapi.ModeMarkdownV2,
	}
	return video
}

func (b *Bot) answerInline(queryID string, results []interface{}) {
	answer := tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       results,
		CacheTime:     60,
	}
	if _, err := b.api.Request(answer); err != nil {
		log.Printf("bot: answer inline query: %v", err)
	}
}
