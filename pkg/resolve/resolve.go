// Package resolve extracts a note ID (plus optional access token and
// anchor comment) from free-form user text through an ordered set of
// URL shape recognizers.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"xhsfeed/pkg/httpclient"
)

// ErrNoLink means the text contained nothing recognizable.
var ErrNoLink = errors.New("resolve: no note link or ID found")

var (
	urlPattern         = regexp.MustCompile(`(?:[a-zA-Z0-9]+?://)?[a-zA-Z0-9_-]+\.[a-zA-Z0-9_/?=&%.-]+`)
	noteIDPattern      = regexp.MustCompile(`[a-z0-9]{24}`)
	profilePattern     = regexp.MustCompile(`user/profile/[a-z0-9]{24}`)
	shortLinkPattern   = regexp.MustCompile(`https?://(?:www\.)?xhslink\.com/[a-z]/[A-Za-z0-9]+`)
	discoveryPattern   = regexp.MustCompile(`https?://(?:www\.)?xiaohongshu\.com/discovery/item/([a-z0-9]+)`)
	explorePattern     = regexp.MustCompile(`https?://(?:www\.)?xiaohongshu\.com/explore/([a-z0-9]+)`)
	noteIDQueryPattern = regexp.MustCompile(`noteId=([a-z0-9]+)`)
)

// Result is a resolved note reference.
type Result struct {
	NoteID          string
	Token           string
	AnchorCommentID string
}

// Follower resolves a short link to its final URL. The concrete
// implementation follows HTTP redirects; tests substitute a fake.
type Follower interface {
	FinalURL(ctx context.Context, rawURL string) (string, error)
}

// Resolver recognizes note references in text. Recognizers are ordered;
// the first matching shape wins.
type Resolver struct {
	follower Follower
}

// NewResolver creates a resolver using the given redirect follower.
func NewResolver(follower Follower) *Resolver {
	return &Resolver{follower: follower}
}

// Resolve extracts a note reference from text.
func (r *Resolver) Resolve(ctx context.Context, text string) (Result, error) {
	urls := urlPattern.FindAllString(text, -1)

	// A bare 24-char ID anywhere in the text wins, unless it is only a
	// user profile link (profiles carry the same ID shape).
	if id := noteIDPattern.FindString(text); id != "" && !profilePattern.MatchString(text) {
		res := Result{NoteID: id}
		if len(urls) > 0 {
			res.Token = queryParam(urls[0], "xsec_token")
			res.AnchorCommentID = queryParam(urls[0], "anchorCommentId")
		}
		return res, nil
	}

	if len(urls) == 0 {
		return Result{}, ErrNoLink
	}
	link := urls[0]

	if shortLinkPattern.MatchString(link) {
		return r.resolveShortLink(ctx, link)
	}
	if m := discoveryPattern.FindStringSubmatch(link); m != nil {
		return resultFromLink(m[1], link), nil
	}
	if m := explorePattern.FindStringSubmatch(link); m != nil {
		return resultFromLink(m[1], link), nil
	}
	return Result{}, ErrNoLink
}

// resolveShortLink follows the short link redirect. A redirect to the
// blocked/login page carries the real destination in a noteId query
// parameter rather than the path.
func (r *Resolver) resolveShortLink(ctx context.Context, link string) (Result, error) {
	final, err := r.follower.FinalURL(ctx, link)
	if err != nil {
		return Result{}, fmt.Errorf("follow short link: %w", err)
	}

	if strings.Contains(final, "xiaohongshu.com/404") {
		if m := noteIDQueryPattern.FindStringSubmatch(final); m != nil {
			return resultFromLink(m[1], final), nil
		}
		return Result{}, fmt.Errorf("short link landed on 404 page without note ID: %s", final)
	}

	clean := stripQuery(final)
	if m := discoveryPattern.FindStringSubmatch(clean); m != nil {
		return resultFromLink(m[1], final), nil
	}
	if m := explorePattern.FindStringSubmatch(clean); m != nil {
		return resultFromLink(m[1], final), nil
	}
	return Result{}, fmt.Errorf("short link resolved to unrecognized URL: %s", final)
}

func resultFromLink(noteID, link string) Result {
	return Result{
		NoteID:          noteID,
		Token:           queryParam(link, "xsec_token"),
		AnchorCommentID: queryParam(link, "anchorCommentId"),
	}
}

func queryParam(rawURL, key string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(key)
}

func stripQuery(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// HTTPFollower follows redirects with a browser-profile client.
type HTTPFollower struct {
	client *httpclient.HTTPClient
}

// NewHTTPFollower creates a redirect follower.
func NewHTTPFollower(client *httpclient.HTTPClient) *HTTPFollower {
	return &HTTPFollower{client: client}
}

// FinalURL GETs rawURL and returns the URL the redirect chain settled
// on. The blocked-page interstitial embeds the real destination in a
// redirectPath parameter, which is unwrapped here. When the final page
// gives no usable URL at all, the page body's og:url meta tag is the
// last resort.
func (f *HTTPFollower) FinalURL(ctx context.Context, rawURL string) (string, error) {
	if !strings.Contains(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	resp, err := f.client.Get(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if idx := strings.LastIndex(final, "redirectPath="); idx != -1 {
		if unwrapped, err := url.QueryUnescape(final[idx+len("redirectPath="):]); err == nil {
			return unwrapped, nil
		}
	}
	if noteIDPattern.MatchString(final) {
		return final, nil
	}

	if fromPage := canonicalFromPage(resp.Body); fromPage != "" {
		log.Printf("resolve: recovered canonical URL from page body: %s", fromPage)
		return fromPage, nil
	}
	return final, nil
}

// canonicalFromPage digs og:url or the canonical link tag out of a
// share page.
func canonicalFromPage(body io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return ""
	}
	if content, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok && content != "" {
		return content
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		return href
	}
	return ""
}
