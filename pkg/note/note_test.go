package note

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// feedWith builds a minimal single-note feed payload for tests.
func feedWith(modify func(*FeedNote)) FeedPayload {
	raw := FeedNote{
		Title: "海边日落",
		Type:  "normal",
		Desc:  "今天的晚霞",
		Time:  1700000000,
		ImagesList: []FeedImage{
			{
				Original:      "https://ci.xiaohongshu.com/abc/original.jpg?imageView2=2&sign=xyz",
				URLMultiLevel: MultiLevel{Low: "https://ci.xiaohongshu.com/abc/low.jpg?sign=xyz"},
			},
		},
		ShareInfo: ShareInfo{Link: "https://www.xiaohongshu.com/discovery/item/5f0e8b9c000000000101d2a4?app_platform=android&share_id=1"},
	}
	if modify != nil {
		modify(&raw)
	}
	return FeedPayload{Data: []FeedEntry{{
		User:     FeedUser{ID: "u1", Name: "海风", RedID: "12345678"},
		NoteList: []FeedNote{raw},
	}}}
}

func TestNew_EmptyContentIsHardFailure(t *testing.T) {
	_, err := New(context.Background(), FeedPayload{}, CommentPayload{}, Options{})
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	// A data entry with an empty note list is equally unavailable.
	payload := FeedPayload{Data: []FeedEntry{{}}}
	if _, err := New(context.Background(), payload, CommentPayload{}, Options{}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent for empty note list, got %v", err)
	}
}

func TestNew_CanonicalURLAndID(t *testing.T) {
	n, err := New(context.Background(), feedWith(nil), CommentPayload{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.URL != "https://www.xiaohongshu.com/discovery/item/5f0e8b9c000000000101d2a4" {
		t.Errorf("canonical URL: got %q", n.URL)
	}
	if n.NoteID != "5f0e8b9c000000000101d2a4" {
		t.Errorf("note ID: got %q", n.NoteID)
	}
	if n.Token != "" {
		t.Errorf("no token requested, got %q", n.Token)
	}
}

func TestNew_TitleFallback(t *testing.T) {
	n, err := New(context.Background(), feedWith(func(raw *FeedNote) {
		raw.Title = "   "
	}), CommentPayload{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Title != "Untitled Note by @海风 (12345678)" {
		t.Errorf("title fallback: got %q", n.Title)
	}
}

func TestNew_LocationFallback(t *testing.T) {
	n, err := New(context.Background(), feedWith(nil), CommentPayload{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.IPLocation != "Unknown IP Address" {
		t.Errorf("location fallback: got %q", n.IPLocation)
	}
}

func TestNew_MediaTrackingParamsStripped(t *testing.T) {
	n, err := New(context.Background(), feedWith(nil), CommentPayload{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(n.Images) != 1 {
		t.Fatalf("expected one media entry, got %d", len(n.Images))
	}
	if n.Images[0].URL != "https://ci.xiaohongshu.com/abc/original.jpg" {
		t.Errorf("tracking params not stripped: %q", n.Images[0].URL)
	}
	if strings.Contains(n.Images[0].Thumbnail, "?") {
		t.Errorf("thumbnail params not stripped: %q", n.Images[0].Thumbnail)
	}
}

func TestNew_VideoExcludesImageSet(t *testing.T) {
	n, err := New(context.Background(), feedWith(func(raw *FeedNote) {
		raw.Video = &FeedVideo{URL: "https://sns-video.xhscdn.com/stream/v.mp4"}
	}), CommentPayload{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.VideoURL == "" {
		t.Fatal("expected video URL")
	}
	if len(n.Images) != 0 {
		t.Errorf("video note must not also carry photo entries, got %d", len(n.Images))
	}
	if n.VideoThumbnail != "https://ci.xiaohongshu.com/abc/low.jpg?sign=xyz" {
		t.Errorf("video thumbnail: got %q", n.VideoThumbnail)
	}
}

func TestNew_LivePhotosOnlyWhenRequested(t *testing.T) {
	payload := feedWith(func(raw *FeedNote) {
		raw.ImagesList[0].LivePhoto = &LivePhoto{Media: LivePhotoMedia{Stream: map[string][]LiveStream{
			"h264": {{MasterURL: "https://sns-video.xhscdn.com/master.mp4?sign=1", BackupURLs: []string{"https://sns-video-bak.xhscdn.com/backup.mp4?sign=1"}}},
		}}}
	})

	plain, err := New(context.Background(), payload, CommentPayload{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(plain.Images) != 1 {
		t.Errorf("live media must be opt-in, got %d entries", len(plain.Images))
	}

	live, err := New(context.Background(), payload, CommentPayload{}, Options{LivePhotos: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(live.Images) != 2 {
		t.Fatalf("expected still + motion entry, got %d", len(live.Images))
	}
	motion := live.Images[1]
	if !motion.Live {
		t.Error("second entry should be the motion companion")
	}
	// Backup URL wins over the master route.
	if motion.URL != "https://sns-video-bak.xhscdn.com/backup.mp4" {
		t.Errorf("expected backup stream URL, got %q", motion.URL)
	}
	if motion.Thumbnail != live.Images[0].URL {
		t.Errorf("motion thumbnail should be the still image, got %q", motion.Thumbnail)
	}
}

func TestNew_LivePhotoCodecOrderStable(t *testing.T) {
	payload := feedWith(func(raw *FeedNote) {
		raw.ImagesList[0].LivePhoto = &LivePhoto{Media: LivePhotoMedia{Stream: map[string][]LiveStream{
			"h265": {{MasterURL: "https://sns-video.xhscdn.com/h265.mp4"}},
			"h264": {{MasterURL: "https://sns-video.xhscdn.com/h264.mp4"}},
			"av1":  {{MasterURL: "https://sns-video.xhscdn.com/av1.mp4"}},
		}}}
	})

	want := []string{
		"https://sns-video.xhscdn.com/av1.mp4",
		"https://sns-video.xhscdn.com/h264.mp4",
		"https://sns-video.xhscdn.com/h265.mp4",
	}
	for run := 0; run < 10; run++ {
		n, err := New(context.Background(), payload, CommentPayload{}, Options{LivePhotos: true})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if len(n.Images) != 4 {
			t.Fatalf("expected still + 3 motion entries, got %d", len(n.Images))
		}
		for i, url := range want {
			if n.Images[i+1].URL != url {
				t.Fatalf("run %d: motion entry %d = %q, want %q", run, i, n.Images[i+1].URL, url)
			}
		}
	}
}

func TestNew_LengthThresholdBoundary(t *testing.T) {
	// Title is 5 runes; pad desc so title+desc lands exactly on the
	// boundary. 665 renders full, 666 flips to preview.
	build := func(total int) *Note {
		n, err := New(context.Background(), feedWith(func(raw *FeedNote) {
			raw.Title = "海边日落啊"
			raw.Desc = strings.Repeat("长", total-5)
		}), CommentPayload{}, Options{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return n
	}

	if n := build(665); n.Preview() {
		t.Errorf("length 665 must render full body (Length=%d)", n.Length)
	}
	if n := build(666); !n.Preview() {
		t.Errorf("length 666 must render preview (Length=%d)", n.Length)
	}
}

func TestNew_FirstCommentSkipsEmptyEntries(t *testing.T) {
	comments := CommentPayload{Data: CommentData{Comments: []Comment{
		{ID: "c1", Content: "   ", User: CommentUser{Nickname: "ghost"}},
		{ID: "c2", Content: "", User: CommentUser{Nickname: "ghost2"}},
		{ID: "c3", Content: "沙发", User: CommentUser{Nickname: "热心市民"}, ShowTagsV2: []CommentTag{{Text: "作者赞过"}}},
	}}}

	n, err := New(context.Background(), feedWith(nil), comments, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.FirstComment != "沙发" {
		t.Errorf("expected first non-empty comment, got %q", n.FirstComment)
	}
	if n.CommentUser != "热心市民" {
		t.Errorf("comment author: got %q", n.CommentUser)
	}
	if n.FirstCommentTag != "作者赞过" {
		t.Errorf("comment tag: got %q", n.FirstCommentTag)
	}
}

func TestNew_TokenFromShareLink(t *testing.T) {
	payload := feedWith(func(raw *FeedNote) {
		raw.ShareInfo.Link = "https://www.xiaohongshu.com/discovery/item/5f0e8b9c000000000101d2a4?xsec_token=ABtok123&share_id=1"
	})

	n, err := New(context.Background(), payload, CommentPayload{}, Options{WithToken: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Token != "ABtok123" {
		t.Errorf("token: got %q", n.Token)
	}
	if n.URL != "https://www.xiaohongshu.com/discovery/item/5f0e8b9c000000000101d2a4?xsec_token=ABtok123" {
		t.Errorf("token not re-appended to canonical URL: %q", n.URL)
	}
}

func TestNew_CallerTokenOverridesShareLink(t *testing.T) {
	payload := feedWith(func(raw *FeedNote) {
		raw.ShareInfo.Link = "https://www.xiaohongshu.com/discovery/item/5f0e8b9c000000000101d2a4?xsec_token=linktoken"
	})

	n, err := New(context.Background(), payload, CommentPayload{}, Options{WithToken: true, AccessToken: "callertoken"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Token != "callertoken" {
		t.Errorf("caller token must win, got %q", n.Token)
	}
}

type fakeTranscoder struct {
	calls []string
	out   []byte
	err   error
}

func (f *fakeTranscoder) Transcode(ctx context.Context, audioURL string) ([]byte, error) {
	f.calls = append(f.calls, audioURL)
	return f.out, f.err
}

func TestNew_AnchorCommentWithNestedMediaAndVoice(t *testing.T) {
	comments := CommentPayload{Data: CommentData{Comments: []Comment{
		{ID: "c1", Content: "第一条"},
		{
			ID: "c2", Content: "顶层",
			SubComments: []Comment{{
				ID:      "c2-r1",
				Content: "看这张图 #配图[搜索高亮]#",
				User:    CommentUser{Nickname: "回复人"},
				Pictures: []CommentPicture{
					{URLDefault: "https://ci.xiaohongshu.com/comment/pic.jpg?sign=1"},
				},
				Audio: &CommentAudio{URL: "https://sns-audio.xhscdn.com/voice.aac", Duration: 3},
			}},
		},
	}}}

	enc := &fakeTranscoder{out: []byte("opus-bytes")}
	n, err := New(context.Background(), feedWith(nil), comments, Options{
		AnchorCommentID: "c2-r1",
		VoiceTranscoder: enc,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Anchor == nil {
		t.Fatal("expected anchor comment to be resolved through replies")
	}
	if n.Anchor.Author != "回复人" {
		t.Errorf("anchor author: got %q", n.Anchor.Author)
	}
	if n.Anchor.Text != "看这张图 配图" {
		t.Errorf("highlight tag not stripped: %q", n.Anchor.Text)
	}
	if len(n.Anchor.ImageURLs) != 1 || n.Anchor.ImageURLs[0] != "https://ci.xiaohongshu.com/comment/pic.jpg" {
		t.Errorf("anchor media: got %v", n.Anchor.ImageURLs)
	}
	if string(n.Anchor.VoiceOpus) != "opus-bytes" {
		t.Errorf("voice note not transcoded: %q", n.Anchor.VoiceOpus)
	}
	if len(enc.calls) != 1 || enc.calls[0] != "https://sns-audio.xhscdn.com/voice.aac" {
		t.Errorf("transcoder calls: %v", enc.calls)
	}
}

func TestNew_MissingAnchorDegrades(t *testing.T) {
	n, err := New(context.Background(), feedWith(nil), CommentPayload{}, Options{AnchorCommentID: "nope"})
	if err != nil {
		t.Fatalf("anchor miss must not fail construction: %v", err)
	}
	if n.Anchor != nil {
		t.Errorf("expected nil anchor, got %+v", n.Anchor)
	}
}

func TestNew_TagsExtracted(t *testing.T) {
	n, err := New(context.Background(), feedWith(func(raw *FeedNote) {
		raw.Desc = "晚霞#日落[话题]##摄影[话题]#分享"
	}), CommentPayload{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(n.Tags) != 2 || n.Tags[0] != "日落" || n.Tags[1] != "摄影" {
		t.Errorf("tags: got %v", n.Tags)
	}
	if !strings.Contains(n.Desc, " #日落  #摄影 ") {
		t.Errorf("adjacent tags must stay separated: %q", n.Desc)
	}
}
