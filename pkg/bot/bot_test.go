package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xhsfeed/pkg/feed"
	"xhsfeed/pkg/note"
	"xhsfeed/pkg/resolve"
)

func TestParseRequestFlags(t *testing.T) {
	req := parseRequest("-t https://xhslink.com/a/AbCd1 -l")
	if !req.msgOpts.Telegraph {
		t.Error("Telegraph flag not parsed")
	}
	if !req.noteOpts.LivePhotos {
		t.Error("LivePhotos flag not parsed")
	}
	if req.text != "https://xhslink.com/a/AbCd1" {
		t.Errorf("text = %q", req.text)
	}
}

func TestParseRequestNoFlags(t *testing.T) {
	req := parseRequest("check this 5f0e8b9c000000000101d2a4 out")
	if req.msgOpts.Telegraph || req.noteOpts.LivePhotos {
		t.Error("flags set without flag tokens")
	}
	if req.text != "check this 5f0e8b9c000000000101d2a4 out" {
		t.Errorf("text = %q", req.text)
	}
}

func TestParseRequestFlagLikeWordsKept(t *testing.T) {
	req := parseRequest("-tl -x some text")
	if req.msgOpts.Telegraph || req.noteOpts.LivePhotos {
		t.Error("partial flag tokens must not trigger flags")
	}
	if req.text != "-tl -x some text" {
		t.Errorf("text = %q", req.text)
	}
}

func TestChunkMedia(t *testing.T) {
	media := make([]note.Media, 23)
	chunks := chunkMedia(media, 10)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 10 || len(chunks[1]) != 10 || len(chunks[2]) != 3 {
		t.Errorf("chunk sizes = %d/%d/%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestChunkMediaEmpty(t *testing.T) {
	if chunks := chunkMedia(nil, 10); chunks != nil {
		t.Errorf("chunks = %v, want nil", chunks)
	}
}

func TestChunkMediaExactMultiple(t *testing.T) {
	chunks := chunkMedia(make([]note.Media, 20), 10)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{resolve.ErrNoLink, "I could not find a note link in that message."},
		{feed.ErrUnavailable, "That note is gone: deleted, private, or blocked in this region."},
		{feed.ErrNotCaptured, "The note did not come through this time. Try sending the link again."},
		{note.ErrEmptyContent, "That note came back empty, so there is nothing to show."},
		{context.DeadlineExceeded, "Fetching the note timed out. Try again in a moment."},
		{errors.New("boom"), "Something went wrong while fetching that note."},
	}
	for _, tc := range cases {
		if got := userMessage(tc.err); got != tc.want {
			t.Errorf("userMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestUserMessageWrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), feed.ErrNotCaptured)
	if got := userMessage(wrapped); got != "The note did not come through this time. Try sending the link again." {
		t.Errorf("userMessage = %q", got)
	}
}

func TestInlineResultsPhotoCap(t *testing.T) {
	n := &note.Note{Title: "海边日落"}
	for i := 0; i < 15; i++ {
		n.Images = append(n.Images, note.Media{URL: "https://sns-img.example.com/a.jpg"})
	}
	results := inlineResults(n, "preview")
	if len(results) != mediaGroupLimit {
		t.Errorf("results = %d, want %d", len(results), mediaGroupLimit)
	}
}

func TestInlineResultsVideo(t *testing.T) {
	n := &note.Note{Title: "片", VideoURL: "https://sns-video.example.com/v.mp4"}
	results := inlineResults(n, "preview")
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	video, ok := results[0].(tgbotapi.InlineQueryResultVideo)
	if !ok {
		t.Fatalf("result type = %T, want InlineQueryResultVideo", results[0])
	}
	if video.MimeType != "video/mp4" {
		t.Errorf("MimeType = %q", video.MimeType)
	}
	content, ok := video.InputMessageContent.(tgbotapi.InputTextMessageContent)
	if !ok {
		t.Fatalf("InputMessageContent type = %T", video.InputMessageContent)
	}
	if content.Text != "preview" || content.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("content = %q parse mode %q", content.Text, content.ParseMode)
	}
}

func TestInlineResultsLiveMediaAnsweredAsVideo(t *testing.T) {
	n := &note.Note{
		Title: "动图",
		Images: []note.Media{
			{URL: "https://sns-img.example.com/a.jpg"},
			{Live: true, URL: "https://sns-video.example.com/clip.mp4", Thumbnail: "https://sns-img.example.com/a.jpg"},
		},
	}
	results := inlineResults(n, "preview")
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if _, ok := results[0].(tgbotapi.InlineQueryResultPhoto); !ok {
		t.Errorf("still image answered as %T, want InlineQueryResultPhoto", results[0])
	}
	video, ok := results[1].(tgbotapi.InlineQueryResultVideo)
	if !ok {
		t.Fatalf("live media answered as %T, want InlineQueryResultVideo", results[1])
	}
	if video.URL != "https://sns-video.example.com/clip.mp4" {
		t.Errorf("URL = %q", video.URL)
	}
	if video.ThumbURL != "https://sns-img.example.com/a.jpg" {
		t.Errorf("ThumbURL = %q, want the still frame", video.ThumbURL)
	}
}
