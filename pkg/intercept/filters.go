// Package intercept classifies requests observed on the proxied device
// and hands matching capture signatures to the relay. The hooks are
// shaped for a mitm-style proxy addon: the proxy calls OnRequest for
// every outbound request and OnResponse before a response is returned
// to the app. Filters are stateless per request.
package intercept

import (
	"context"
	"log"
	"net/url"
	"regexp"

	"xhsfeed/pkg/relay"
)

// ObservedRequest is one outbound request seen by the proxy.
type ObservedRequest struct {
	URL     string
	Headers map[string]string
}

// ObservedResponse is a response about to be returned to the app.
// Filters may rewrite Status and Body to shape traffic.
type ObservedResponse struct {
	Request ObservedRequest
	Status  int
	Body    []byte
}

// Publisher receives captured request signatures. *relay.Client
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, noteID string, kind relay.Kind, url string, headers map[string]string) error
}

// Filter is a proxy addon hook pair.
type Filter interface {
	OnRequest(ctx context.Context, req ObservedRequest)
	OnResponse(ctx context.Context, resp *ObservedResponse)
}

const sentinelBody = `{"fuckxhs":true}`

var (
	imageFeedPattern   = regexp.MustCompile(`https://edith\.xiaohongshu\.com/api/sns/v\d+/note/imagefeed`)
	commentListPattern = regexp.MustCompile(`https?://edith\.xiaohongshu\.com/api/sns/v\d+/note/comment/list`)
)

// noteIDFromURL extracts the note_id query parameter, empty when absent
// or unparseable. The publisher treats an empty ID as a no-op.
func noteIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("note_id")
}

// FeedFilter captures the primary content call (imagefeed API). Its
// response hook replaces the app-visible response with a 404 sentinel so
// the app does not cache the feed and re-requests it on the next open.
type FeedFilter struct {
	publisher Publisher
}

// NewFeedFilter creates a filter publishing to the given relay.
func NewFeedFilter(publisher Publisher) *FeedFilter {
	return &FeedFilter{publisher: publisher}
}

func (f *FeedFilter) OnRequest(ctx context.Context, req ObservedRequest) {
	if !imageFeedPattern.MatchString(req.URL) {
		return
	}
	if err := f.publisher.Publish(ctx, noteIDFromURL(req.URL), relay.KindNote, req.URL, req.Headers); err != nil {
		log.Printf("intercept: publish note capture: %v", err)
	}
}

func (f *FeedFilter) OnResponse(ctx context.Context, resp *ObservedResponse) {
	if !imageFeedPattern.MatchString(resp.Request.URL) {
		return
	}
	resp.Status = 404
	resp.Body = []byte(sentinelBody)
}

// CommentListFilter captures the comment list call. Unlike the feed
// filter it leaves the app-visible response untouched.
type CommentListFilter struct {
	publisher Publisher
}

// NewCommentListFilter creates a filter publishing to the given relay.
func NewCommentListFilter(publisher Publisher) *CommentListFilter {
	return &CommentListFilter{publisher: publisher}
}

func (f *CommentListFilter) OnRequest(ctx context.Context, req ObservedRequest) {
	if !commentListPattern.MatchString(req.URL) {
		return
	}
	if err := f.publisher.Publish(ctx, noteIDFromURL(req.URL), relay.KindCommentList, req.URL, req.Headers); err != nil {
		log.Printf("intercept: publish comment list capture: %v", err)
	}
}

func (f *CommentListFilter) OnResponse(ctx context.Context, resp *ObservedResponse) {}

// BlockFilter suppresses analytics/telemetry/prefetch traffic by URL
// pattern, short-circuiting with a fixed sentinel instead of forwarding.
// This is deliberate traffic shaping, not an error path.
type BlockFilter struct {
	patterns []*regexp.Regexp
}

// NewBlockFilter compiles the given deny-list patterns.
func NewBlockFilter(patterns []string) (*BlockFilter, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &BlockFilter{patterns: compiled}, nil
}

func (f *BlockFilter) OnRequest(ctx context.Context, req ObservedRequest) {}

func (f *BlockFilter) OnResponse(ctx context.Context, resp *ObservedResponse) {
	for _, re := range f.patterns {
		if re.MatchString(resp.Request.URL) {
			resp.Status = 345
			resp.Body = []byte(sentinelBody)
			return
		}
	}
}

// Chain runs several filters in order against the same hooks.
type Chain []Filter

func (c Chain) OnRequest(ctx context.Context, req ObservedRequest) {
	for _, f := range c {
		f.OnRequest(ctx, req)
	}
}

func (c Chain) OnResponse(ctx context.Context, resp *ObservedResponse) {
	for _, f := range c {
		f.OnResponse(ctx, resp)
	}
}
