// Package bot is the Telegram front end: it accepts note links in chat
// messages and inline queries, runs the capture pipeline, and delivers
// the rendered note.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xhsfeed/pkg/feed"
	"xhsfeed/pkg/note"
	"xhsfeed/pkg/render"
	"xhsfeed/pkg/resolve"
)

const helpText = `Send me a note link (or a bare note ID) and I will fetch it.

Flags anywhere in the message:
  -t    publish the full note to Telegraph even when it fits in chat
  -l    include live photos as videos

Inline mode works too: mention me with a link in any chat.`

// Fetcher runs the capture pipeline for a piece of user text.
type Fetcher interface {
	Fetch(ctx context.Context, text string, opts note.Options) (*note.Note, error)
}

// Downloader fetches media bytes when Telegram refuses to pull a URL
// itself.
type Downloader interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// HealthReporter receives network failure reports so repeated trouble
// can escalate to a process restart.
type HealthReporter interface {
	ReportFailure(ctx context.Context, cause error)
	Reset()
}

// Config holds the bot's wiring.
type Config struct {
	Token   string
	AdminID int64
	Debug   bool
}

// Bot is the Telegram front end.
type Bot struct {
	api        *tgbotapi.BotAPI
	fetcher    Fetcher
	publisher  render.DocumentPublisher
	download   Downloader
	transcoder note.VoiceTranscoder
	adminID    int64
	health     HealthReporter
}

// SetHealthMonitor attaches a failure reporter. Optional; without one
// network failures are only logged.
func (b *Bot) SetHealthMonitor(h HealthReporter) {
	b.health = h
}

// New creates the bot and authenticates with Telegram.
func New(cfg Config, fetcher Fetcher, publisher render.DocumentPublisher, downloader Downloader, transcoder note.VoiceTranscoder) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("authenticate bot: %w", err)
	}
	api.Debug = cfg.Debug
	log.Printf("bot: authorized as @%s", api.Self.UserName)

	return &Bot{
		api:        api,
		fetcher:    fetcher,
		publisher:  publisher,
		download:   downloader,
		transcoder: transcoder,
		adminID:    cfg.AdminID,
	}, nil
}

// Run consumes updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case update.Message != nil:
				go b.handleMessage(ctx, update.Message)
			case update.InlineQuery != nil:
				go b.handleInlineQuery(ctx, update.InlineQuery)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.send(tgbotapi.NewMessage(msg.Chat.ID, helpText))
			return
		case "note":
			text = msg.CommandArguments()
		default:
			return
		}
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	req := parseRequest(text)
	req.noteOpts.VoiceTranscoder = b.transcoder

	status, statusErr := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⏳ Fetching note..."))

	n, err := b.fetcher.Fetch(ctx, req.text, req.noteOpts)
	if err != nil {
		b.trackHealth(ctx, err)
		b.reportFailure(msg.Chat.ID, status, statusErr == nil, err)
		return
	}

	if err := b.deliver(ctx, msg.Chat.ID, n, req.msgOpts); err != nil {
		b.trackHealth(ctx, err)
		b.reportFailure(msg.Chat.ID, status, statusErr == nil, err)
		return
	}
	if b.health != nil {
		b.health.Reset()
	}
	if statusErr == nil {
		b.send(tgbotapi.NewDeleteMessage(msg.Chat.ID, status.MessageID))
	}
}

// reportFailure shows the user a short diagnosis and forwards the raw
// error to the admin. Raw errors never reach chat.
func (b *Bot) reportFailure(chatID int64, status tgbotapi.Message, haveStatus bool, err error) {
	text := userMessage(err)
	if haveStatus {
		b.send(tgbotapi.NewEditMessageText(chatID, status.MessageID, text))
	} else {
		b.send(tgbotapi.NewMessage(chatID, text))
	}
	b.notifyAdmin(err)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, resolve.ErrNoLink):
		return "I could not find a note link in that message."
	case errors.Is(err, feed.ErrUnavailable):
		return "That note is gone: deleted, private, or blocked in this region."
	case errors.Is(err, feed.ErrNotCaptured):
		return "The note did not come through this time. Try sending the link again."
	case errors.Is(err, note.ErrEmptyContent):
		return "That note came back empty, so there is nothing to show."
	case errors.Is(err, context.DeadlineExceeded):
		return "Fetching the note timed out. Try again in a moment."
	default:
		return "Something went wrong while fetching that note."
	}
}

// trackHealth forwards failures that look like network trouble. Input
// and content errors say nothing about connectivity.
func (b *Bot) trackHealth(ctx context.Context, err error) {
	if b.health == nil {
		return
	}
	switch {
	case errors.Is(err, resolve.ErrNoLink),
		errors.Is(err, feed.ErrUnavailable),
		errors.Is(err, feed.ErrNotCaptured),
		errors.Is(err, note.ErrEmptyContent):
		return
	}
	b.health.ReportFailure(ctx, err)
}

func (b *Bot) notifyAdmin(err error) {
	if b.adminID == 0 {
		return
	}
	b.send(tgbotapi.NewMessage(b.adminID, "⚠️ "+err.Error()))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		log.Printf("bot: send: %v", err)
	}
}

// request is a parsed user message.
type request struct {
	text     string
	noteOpts note.Options
	msgOpts  render.MessageOptions
}

// parseRequest strips the flag tokens out of the message text. "-t"
// forces a Telegraph page, "-l" opts into live photos.
func parseRequest(text string) request {
	var req request
	var kept []string
	for _, field := range strings.Fields(text) {
		switch field {
		case "-t":
			req.msgOpts.Telegraph = true
		case "-l":
			req.noteOpts.LivePhotos = true
		default:
			kept = append(kept, field)
		}
	}
	req.text = strings.Join(kept, " ")
	return req
}
