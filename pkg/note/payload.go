package note

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Typed shapes for the two upstream JSON payloads. Knowledge of which
// fields may be absent lives here and in the normalizer, not in callers.

// FeedPayload is the primary content payload (imagefeed API).
type FeedPayload struct {
	Data []FeedEntry `json:"data"`
}

// Unavailable reports whether the payload carries the upstream marker
// for deleted/private/blocked content: an empty content list.
func (p FeedPayload) Unavailable() bool {
	return len(p.Data) == 0 || len(p.Data[0].NoteList) == 0
}

// FeedEntry is one entry of the feed payload; in practice there is one.
type FeedEntry struct {
	User     FeedUser   `json:"user"`
	NoteList []FeedNote `json:"note_list"`
}

// FeedUser is the note author.
type FeedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	RedID string `json:"red_id"`
	Image string `json:"image"`
}

// FeedNote is the note body within the feed payload.
type FeedNote struct {
	Title          string      `json:"title"`
	Type           string      `json:"type"`
	Desc           string      `json:"desc"`
	Time           int64       `json:"time"`
	IPLocation     string      `json:"ip_location"`
	LikedCount     Count       `json:"liked_count"`
	CollectedCount Count       `json:"collected_count"`
	CommentsCount  Count       `json:"comments_count"`
	SharedCount    Count       `json:"shared_count"`
	ImagesList     []FeedImage `json:"images_list"`
	Video          *FeedVideo  `json:"video"`
	ShareInfo      ShareInfo   `json:"share_info"`
}

// FeedImage is one image of an image-set note.
type FeedImage struct {
	Original      string     `json:"original"`
	URLMultiLevel MultiLevel `json:"url_multi_level"`
	LivePhoto     *LivePhoto `json:"live_photo"`
}

// MultiLevel offers the same image at several resolutions.
type MultiLevel struct {
	Low  string `json:"low"`
	Mid  string `json:"mid"`
	High string `json:"high"`
}

// LivePhoto is the motion companion of an image, offered as a map of
// codec name to candidate streams.
type LivePhoto struct {
	Media LivePhotoMedia `json:"media"`
}

// LivePhotoMedia wraps the stream table.
type LivePhotoMedia struct {
	Stream map[string][]LiveStream `json:"stream"`
}

// LiveStream is one motion-video stream candidate.
type LiveStream struct {
	MasterURL  string   `json:"master_url"`
	BackupURLs []string `json:"backup_urls"`
}

// BestURL prefers a backup URL over the master; backups point at the
// plain CDN while the master route is occasionally signed.
func (s LiveStream) BestURL() string {
	if len(s.BackupURLs) > 0 && s.BackupURLs[0] != "" {
		return s.BackupURLs[0]
	}
	return s.MasterURL
}

// FeedVideo is present for single-video notes, which carry no image set
// beyond the cover.
type FeedVideo struct {
	URL string `json:"url"`
}

// ShareInfo carries the share link the canonical URL derives from.
type ShareInfo struct {
	Link string `json:"link"`
}

// CommentPayload is the comment list payload.
type CommentPayload struct {
	Data CommentData `json:"data"`
}

// CommentData wraps the comment list.
type CommentData struct {
	Comments []Comment `json:"comments"`
}

// Comment is a single comment, possibly with replies and media.
type Comment struct {
	ID          string           `json:"id"`
	Content     string           `json:"content"`
	User        CommentUser      `json:"user"`
	ShowTagsV2  []CommentTag     `json:"show_tags_v2"`
	SubComments []Comment        `json:"sub_comments"`
	Pictures    []CommentPicture `json:"pictures"`
	Audio       *CommentAudio    `json:"audio"`
}

// CommentUser is a comment author.
type CommentUser struct {
	Nickname string `json:"nickname"`
	RedID    string `json:"red_id"`
}

// CommentTag is a badge shown next to a comment (e.g. author-liked).
type CommentTag struct {
	Text string `json:"text"`
}

// CommentPicture is an image attached to a comment.
type CommentPicture struct {
	URLDefault string `json:"url_default"`
}

// CommentAudio is a voice-note attachment. The raw bytes need a pass
// through an external Opus encoder before messaging platforms accept
// them as voice messages.
type CommentAudio struct {
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}

// Count is an engagement counter that arrives either as a JSON number
// or as a pre-formatted string ("1.2万"). Renderers must escape the
// string form but pass numbers through untouched, so the distinction is
// preserved.
type Count struct {
	raw     string
	numeric bool
}

// UnmarshalJSON accepts both representations.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = Count{raw: "0", numeric: true}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal count string: %w", err)
		}
		*c = Count{raw: s, numeric: false}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal count number: %w", err)
	}
	*c = Count{raw: n.String(), numeric: true}
	return nil
}

// MarshalJSON writes the counter back in its original representation.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.numeric {
		return []byte(c.stringOrZero()), nil
	}
	return json.Marshal(c.raw)
}

// String returns the display form of the counter.
func (c Count) String() string {
	return c.stringOrZero()
}

// IsNumeric reports whether the counter arrived as a JSON number.
func (c Count) IsNumeric() bool {
	return c.numeric
}

func (c Count) stringOrZero() string {
	if c.raw == "" {
		return "0"
	}
	return c.raw
}

// ParseFeedPayload decodes an imagefeed JSON document.
func ParseFeedPayload(data []byte) (FeedPayload, error) {
	var p FeedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return FeedPayload{}, fmt.Errorf("parse feed payload: %w", err)
	}
	return p, nil
}

// ParseCommentPayload decodes a comment list JSON document. A nil or
// empty document yields an empty payload: comment context is optional
// everywhere downstream.
func ParseCommentPayload(data []byte) (CommentPayload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return CommentPayload{}, nil
	}
	var p CommentPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return CommentPayload{}, fmt.Errorf("parse comment payload: %w", err)
	}
	return p, nil
}
