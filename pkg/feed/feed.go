// Package feed orchestrates the capture pipeline: resolve a link to a
// note ID, open the note on the capture device, consume the captured
// request signature from the relay, replay it, archive the raw
// payloads, and build the Note domain object.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"xhsfeed/pkg/archive"
	"xhsfeed/pkg/device"
	"xhsfeed/pkg/note"
	"xhsfeed/pkg/relay"
	"xhsfeed/pkg/resolve"
)

// ErrNotCaptured means the device opened the note but no request
// signature ever reached the relay. Usually the app served from cache.
var ErrNotCaptured = errors.New("feed: note request was not captured")

// ErrUnavailable means the replayed request succeeded but the note is
// gone (deleted, private, or region-blocked).
var ErrUnavailable = errors.New("feed: note is unavailable")

// Resolver extracts a note reference from user text.
type Resolver interface {
	Resolve(ctx context.Context, text string) (resolve.Result, error)
}

// Consumer pulls captured request signatures off the relay.
type Consumer interface {
	ConsumeWithRetry(ctx context.Context, noteID string, kind relay.Kind, attempts int, delay time.Duration) (relay.Record, error)
}

// Replayer re-issues a captured request exactly as observed.
type Replayer interface {
	GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// Config tunes the pipeline.
type Config struct {
	// GateSize caps how many fetches drive the device concurrently.
	GateSize int
	// SettleDelay is the pause after opening a note, giving the app
	// time to issue its feed request through the proxy.
	SettleDelay time.Duration
	// ConsumeAttempts and ConsumeDelay control relay polling.
	ConsumeAttempts int
	ConsumeDelay    time.Duration
}

func (c Config) withDefaults() Config {
	if c.GateSize <= 0 {
		c.GateSize = 5
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.ConsumeAttempts <= 0 {
		c.ConsumeAttempts = 3
	}
	if c.ConsumeDelay <= 0 {
		c.ConsumeDelay = 100 * time.Millisecond
	}
	return c
}

// Service runs the capture pipeline end to end.
type Service struct {
	resolver Resolver
	relay    Consumer
	device   device.Controller
	replayer Replayer
	archive  archive.Saver
	cfg      Config

	gate chan struct{}
}

// NewService wires the pipeline together.
func NewService(resolver Resolver, consumer Consumer, controller device.Controller, replayer Replayer, saver archive.Saver, cfg Config) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		resolver: resolver,
		relay:    consumer,
		device:   controller,
		replayer: replayer,
		archive:  saver,
		cfg:      cfg,
		gate:     make(chan struct{}, cfg.GateSize),
	}
}

// Fetch resolves text to a note and runs the full pipeline for it.
// opts augments what was resolved from the text; the resolved token and
// anchor win over empty option fields.
func (s *Service) Fetch(ctx context.Context, text string, opts note.Options) (*note.Note, error) {
	ref, err := s.resolver.Resolve(ctx, text)
	if err != nil {
		return nil, err
	}
	if opts.AccessToken == "" {
		opts.AccessToken = ref.Token
	}
	if opts.AccessToken != "" {
		opts.WithToken = true
	}
	if opts.AnchorCommentID == "" {
		opts.AnchorCommentID = ref.AnchorCommentID
	}
	return s.fetchNote(ctx, ref.NoteID, opts)
}

func (s *Service) fetchNote(ctx context.Context, noteID string, opts note.Options) (*note.Note, error) {
	select {
	case s.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.gate }()

	if err := s.device.OpenNote(ctx, noteID, opts.AnchorCommentID); err != nil {
		return nil, fmt.Errorf("open note on device: %w", err)
	}
	defer func() {
		if err := s.device.GoHome(context.WithoutCancel(ctx)); err != nil {
			log.Printf("feed: return device home: %v", err)
		}
	}()

	select {
	case <-time.After(s.cfg.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	rec, err := s.relay.ConsumeWithRetry(ctx, noteID, relay.KindNote, s.cfg.ConsumeAttempts, s.cfg.ConsumeDelay)
	if err != nil {
		return nil, fmt.Errorf("consume note signature: %w", err)
	}
	if rec.Empty() {
		return nil, ErrNotCaptured
	}

	rawNote, err := s.replay(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("replay note request: %w", err)
	}
	s.save(ctx, noteID, archive.KindNote, rawNote)

	payload, err := note.ParseFeedPayload(rawNote)
	if err != nil {
		return nil, fmt.Errorf("parse note payload: %w", err)
	}
	if payload.Unavailable() {
		return nil, ErrUnavailable
	}

	comments := s.fetchComments(ctx, noteID)

	n, err := note.New(ctx, payload, comments, opts)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// fetchComments is best-effort: a note renders fine without its
// comment list.
func (s *Service) fetchComments(ctx context.Context, noteID string) note.CommentPayload {
	rec, err := s.relay.ConsumeWithRetry(ctx, noteID, relay.KindCommentList, s.cfg.ConsumeAttempts, s.cfg.ConsumeDelay)
	if err != nil || rec.Empty() {
		if err != nil {
			log.Printf("feed: consume comment signature for %s: %v", noteID, err)
		}
		return note.CommentPayload{}
	}

	raw, err := s.replay(ctx, rec)
	if err != nil {
		log.Printf("feed: replay comment request for %s: %v", noteID, err)
		return note.CommentPayload{}
	}
	s.save(ctx, noteID, archive.KindCommentList, raw)

	payload, err := note.ParseCommentPayload(raw)
	if err != nil {
		log.Printf("feed: parse comment payload for %s: %v", noteID, err)
		return note.CommentPayload{}
	}
	return payload
}

func (s *Service) replay(ctx context.Context, rec relay.Record) ([]byte, error) {
	resp, err := s.replayer.GetWithHeaders(ctx, rec.URL, rec.Headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (s *Service) save(ctx context.Context, noteID string, kind archive.Kind, payload []byte) {
	if err := s.archive.Save(ctx, noteID, kind, payload); err != nil {
		log.Printf("feed: archive %s for %s: %v", kind, noteID, err)
	}
}
