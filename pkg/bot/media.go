package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xhsfeed/pkg/note"
	"xhsfeed/pkg/render"
)

// mediaGroupLimit is the platform's batch cap for sendMediaGroup.
const mediaGroupLimit = 10

// deliver sends the note's media followed by the rendered message.
func (b *Bot) deliver(ctx context.Context, chatID int64, n *note.Note, opts render.MessageOptions) error {
	text, err := render.Message(ctx, n, opts, b.publisher)
	if err != nil {
		return fmt.Errorf("render message: %w", err)
	}

	if n.VideoURL != "" {
		if err := b.sendVideo(ctx, chatID, n.VideoURL, n.VideoThumbnail); err != nil {
			return err
		}
	} else {
		for _, chunk := range chunkMedia(n.Images, mediaGroupLimit) {
			if err := b.sendMediaGroup(ctx, chatID, chunk); err != nil {
				return err
			}
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	if n.Anchor != nil {
		if len(n.Anchor.ImageURLs) > 0 {
			media := make([]note.Media, 0, len(n.Anchor.ImageURLs))
			for _, u := range n.Anchor.ImageURLs {
				media = append(media, note.Media{URL: u})
			}
			for _, chunk := range chunkMedia(media, mediaGroupLimit) {
				if err := b.sendMediaGroup(ctx, chatID, chunk); err != nil {
					log.Printf("bot: send anchor comment media: %v", err)
				}
			}
		}
		if len(n.Anchor.VoiceOpus) > 0 {
			if err := b.sendVoice(chatID, n.Anchor.VoiceOpus); err != nil {
				log.Printf("bot: send anchor voice note: %v", err)
			}
		}
	}
	return nil
}

// chunkMedia splits the media list into batches the platform accepts.
func chunkMedia(media []note.Media, size int) [][]note.Media {
	if len(media) == 0 {
		return nil
	}
	var chunks [][]note.Media
	for start := 0; start < len(media); start += size {
		end := start + size
		if end > len(media) {
			end = len(media)
		}
		chunks = append(chunks, media[start:end])
	}
	return chunks
}

// sendMediaGroup sends one batch by URL, and on rejection retries once
// with the bytes fetched locally. Telegram sometimes refuses to pull
// from the upstream CDN directly.
func (b *Bot) sendMediaGroup(ctx context.Context, chatID int64, chunk []note.Media) error {
	group := make([]interface{}, 0, len(chunk))
	for _, m := range chunk {
		group = append(group, inputMedia(m, tgbotapi.FileURL(m.URL)))
	}
	if _, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, group)); err == nil {
		return nil
	} else {
		log.Printf("bot: media group by URL rejected, re-uploading bytes: %v", err)
	}

	group = group[:0]
	for _, m := range chunk {
		data, err := b.fetchBytes(ctx, m.URL)
		if err != nil {
			return fmt.Errorf("refetch media %s: %w", m.URL, err)
		}
		file := tgbotapi.FileBytes{Name: path.Base(m.URL), Bytes: data}
		group = append(group, inputMedia(m, file))
	}
	if _, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, group)); err != nil {
		return fmt.Errorf("send media group: %w", err)
	}
	return nil
}

func inputMedia(m note.Media, file tgbotapi.RequestFileData) interface{} {
	if m.Live {
		return tgbotapi.NewInputMediaVideo(file)
	}
	return tgbotapi.NewInputMediaPhoto(file)
}

func (b *Bot) sendVideo(ctx context.Context, chatID int64, url, thumbnail string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(url))
	if _, err := b.api.Send(video); err == nil {
		return nil
	} else {
		log.Printf("bot: video by URL rejected, re-uploading bytes: %v", err)
	}

	data, err := b.fetchBytes(ctx, url)
	if err != nil {
		return fmt.Errorf("refetch video: %w", err)
	}
	video = tgbotapi.NewVideo(chatID, tgbotapi.FileBytes{Name: path.Base(url), Bytes: data})
	if _, err := b.api.Send(video); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return nil
}

// sendVoice delivers a transcoded voice note from the anchor comment.
func (b *Bot) sendVoice(chatID int64, opus []byte) error {
	voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "comment.ogg", Bytes: opus})
	if _, err := b.api.Send(voice); err != nil {
		return fmt.Errorf("send voice: %w", err)
	}
	return nil
}

func (b *Bot) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := b.download.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
