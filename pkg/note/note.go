package note

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrEmptyContent signals an upstream payload whose content list is
// empty: the note is deleted, private, or blocked. Construction fails
// hard; no partial Note is returned.
var ErrEmptyContent = errors.New("note: empty content payload")

// PreviewThreshold is the combined character count of title and body
// (and first comment, when present) at which rendering switches from
// full body to a truncated preview. Tuned against message length limits
// of the delivery platform; not configurable.
const PreviewThreshold = 666

// PreviewCut is the number of characters kept in preview mode.
const PreviewCut = 555

// VoiceTranscoder converts a voice-note attachment into Opus bytes the
// messaging platform accepts. Implementations shell out to an external
// encoder.
type VoiceTranscoder interface {
	Transcode(ctx context.Context, audioURL string) ([]byte, error)
}

// Options control normalization.
type Options struct {
	// LivePhotos includes the motion-video companion of live photos in
	// the media list.
	LivePhotos bool

	// WithToken appends an access token to the canonical URL, taken
	// from AccessToken or, failing that, from the share link query.
	WithToken bool

	// AccessToken is a caller-supplied token for private/unlisted
	// content, overriding whatever the share link carries.
	AccessToken string

	// AnchorCommentID selects one comment (searching replies too) to
	// surface with its media alongside the note.
	AnchorCommentID string

	// VoiceTranscoder handles voice-note attachments on the anchor
	// comment. Nil skips transcoding.
	VoiceTranscoder VoiceTranscoder
}

// User is the note author.
type User struct {
	ID    string
	Name  string
	RedID string
}

// Media is one entry of the ordered media list. Live entries point at a
// motion-video stream with the still image as thumbnail.
type Media struct {
	Live      bool
	URL       string
	Thumbnail string
}

// AnchorComment is a specific comment surfaced by ID, with its media.
type AnchorComment struct {
	ID        string
	Author    string
	Text      string
	ImageURLs []string

	// VoiceOpus holds the transcoded voice note, when one was attached
	// and a transcoder was supplied.
	VoiceOpus []byte
}

// Note is the normalized domain object built once per request from the
// two raw payloads. Renderers cache their outputs on it (Message, HTML,
// ShortPreview, DocumentURL), each set at most once; the Note is
// discarded after one request-response cycle.
type Note struct {
	NoteID string
	URL    string
	Token  string

	User  User
	Title string
	Type  string
	Desc  string
	Tags  []string

	Time       int64
	IPLocation string

	LikedCount     Count
	CollectedCount Count
	CommentsCount  Count
	SharedCount    Count

	Images         []Media
	VideoURL       string
	VideoThumbnail string

	FirstComment    string
	CommentUser     string
	FirstCommentTag string
	Anchor          *AnchorComment

	// Length is the combined character count of body, title and first
	// comment, compared against PreviewThreshold.
	Length int

	// Memoized render outputs.
	HTML         string
	Message      string
	ShortPreview string
	DocumentURL  string
}

// Preview reports whether renderers should truncate the body.
func (n *Note) Preview() bool {
	return n.Length >= PreviewThreshold
}

// ProfileURL is the author's public profile link.
func (n *Note) ProfileURL() string {
	return "https://www.xiaohongshu.com/user/profile/" + n.User.ID
}

// New builds a Note from the primary content payload and the (possibly
// empty) comment payload. An empty content list is a hard failure; every
// other missing field degrades to a default.
func New(ctx context.Context, feed FeedPayload, comments CommentPayload, opts Options) (*Note, error) {
	if feed.Unavailable() {
		return nil, ErrEmptyContent
	}
	entry := feed.Data[0]
	raw := entry.NoteList[0]

	n := &Note{
		User: User{
			ID:    entry.User.ID,
			Name:  entry.User.Name,
			RedID: entry.User.RedID,
		},
		Type:           raw.Type,
		Time:           raw.Time,
		LikedCount:     raw.LikedCount,
		CollectedCount: raw.CollectedCount,
		CommentsCount:  raw.CommentsCount,
		SharedCount:    raw.SharedCount,
	}

	n.Title = strings.TrimSpace(raw.Title)
	if n.Title == "" {
		n.Title = fmt.Sprintf("Untitled Note by @%s (%s)", n.User.Name, n.User.RedID)
	}

	n.IPLocation = raw.IPLocation
	if n.IPLocation == "" {
		n.IPLocation = "Unknown IP Address"
	}

	// Emoji tokens must be gone before tag normalization: both use the
	// same bracket syntax.
	n.Desc = NormalizeTags(ReplaceEmojiTokens(raw.Desc))
	n.Tags = extractTags(n.Desc)

	n.normalizeMedia(raw, opts)
	n.normalizeURL(raw, opts)
	n.normalizeComments(ctx, comments, opts)

	n.Length = utf8.RuneCountInString(n.Desc) + utf8.RuneCountInString(n.Title) + utf8.RuneCountInString(n.FirstComment)
	return n, nil
}

// normalizeMedia builds the ordered media list. A note is an image set
// or a single video, never both: the video branch takes one entry with
// the cover as thumbnail and skips the image list entirely.
func (n *Note) normalizeMedia(raw FeedNote, opts Options) {
	if raw.Video != nil && raw.Video.URL != "" {
		n.VideoURL = raw.Video.URL
		if len(raw.ImagesList) > 0 {
			n.VideoThumbnail = raw.ImagesList[0].URLMultiLevel.Low
		}
		return
	}
	for _, img := range raw.ImagesList {
		still := StripTrackingParams(img.Original)
		n.Images = append(n.Images, Media{
			Live:      false,
			URL:       still,
			Thumbnail: StripTrackingParams(img.URLMultiLevel.Low),
		})
		if img.LivePhoto == nil || !opts.LivePhotos {
			continue
		}
		codecs := make([]string, 0, len(img.LivePhoto.Media.Stream))
		for codec := range img.LivePhoto.Media.Stream {
			codecs = append(codecs, codec)
		}
		sort.Strings(codecs)
		for _, codec := range codecs {
			streams := img.LivePhoto.Media.Stream[codec]
			if len(streams) == 0 {
				continue
			}
			n.Images = append(n.Images, Media{
				Live:      true,
				URL:       StripTrackingParams(streams[0].BestURL()),
				Thumbnail: still,
			})
		}
	}
}

// normalizeURL derives the canonical link and, when requested, carries
// the access token over from the share link.
func (n *Note) normalizeURL(raw FeedNote, opts Options) {
	n.URL = CleanURL(raw.ShareInfo.Link)
	n.NoteID = IDFromURL(n.URL)
	if !opts.WithToken {
		return
	}
	token := opts.AccessToken
	if token == "" {
		token = TokenFromURL(raw.ShareInfo.Link)
	}
	n.Token = token
	n.URL = AppendToken(n.URL, token)
}

// normalizeComments selects the first comment with non-empty content
// and resolves the anchor comment, if one was requested.
func (n *Note) normalizeComments(ctx context.Context, comments CommentPayload, opts Options) {
	for _, c := range comments.Data.Comments {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		n.FirstComment = StripHighlightTags(ReplaceEmojiTokens(c.Content))
		n.CommentUser = c.User.Nickname
		if len(c.ShowTagsV2) > 0 {
			n.FirstCommentTag = c.ShowTagsV2[0].Text
		}
		break
	}

	if opts.AnchorCommentID == "" {
		return
	}
	anchor := findComment(comments.Data.Comments, opts.AnchorCommentID)
	if anchor == nil {
		return
	}
	ac := &AnchorComment{
		ID:     anchor.ID,
		Author: anchor.User.Nickname,
		Text:   StripHighlightTags(ReplaceEmojiTokens(anchor.Content)),
	}
	for _, pic := range anchor.Pictures {
		if pic.URLDefault != "" {
			ac.ImageURLs = append(ac.ImageURLs, StripTrackingParams(pic.URLDefault))
		}
	}
	if anchor.Audio != nil && anchor.Audio.URL != "" && opts.VoiceTranscoder != nil {
		opus, err := opts.VoiceTranscoder.Transcode(ctx, anchor.Audio.URL)
		if err != nil {
			// A failed transcode drops the voice note, nothing else.
			log.Printf("note: voice transcode for comment %s: %v", anchor.ID, err)
		} else {
			ac.VoiceOpus = opus
		}
	}
	n.Anchor = ac
}

// findComment searches the comment tree, replies included, for an ID.
func findComment(comments []Comment, id string) *Comment {
	for i := range comments {
		if comments[i].ID == id {
			return &comments[i]
		}
		if found := findComment(comments[i].SubComments, id); found != nil {
			return found
		}
	}
	return nil
}

// extractTags collects the normalized hashtags from the body text.
func extractTags(desc string) []string {
	var tags []string
	for _, field := range strings.Fields(desc) {
		if strings.HasPrefix(field, "#") && len(field) > 1 {
			tags = append(tags, strings.TrimPrefix(field, "#"))
		}
	}
	return tags
}
