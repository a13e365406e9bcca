package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to a relay server over its loopback HTTP surface. It is
// shared by the interception side (Publish) and the orchestrator side
// (Consume / ConsumeWithRetry).
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a relay client for the given base URL, e.g.
// "http://127.0.0.1:5001".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish submits a captured request signature for the given channel.
// An empty noteID is dropped without a call, mirroring store semantics.
func (c *Client) Publish(ctx context.Context, noteID string, kind Kind, url string, headers map[string]string) error {
	if noteID == "" {
		return nil
	}
	body, err := json.Marshal(setRequest{NoteID: noteID, URL: url, Headers: headers})
	if err != nil {
		return fmt.Errorf("marshal set request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/set_%s", c.baseURL, kind), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build set request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post capture: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay rejected capture: status %d", resp.StatusCode)
	}
	return nil
}

// Consume retrieves and deletes the pending record for (noteID, kind).
// A pending miss returns the zero Record with a nil error; a non-nil
// error means the relay itself was unreachable.
func (c *Client) Consume(ctx context.Context, noteID string, kind Kind) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/get_%s/%s", c.baseURL, kind, noteID), nil)
	if err != nil {
		return Record{}, fmt.Errorf("build get request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("get capture: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("unexpected relay status %d", resp.StatusCode)
	}
	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode capture: %w", err)
	}
	return rec, nil
}

// ConsumeWithRetry polls for a record up to attempts times, sleeping
// delay between tries. Used for the comment channel, where the capture
// may lag the primary one by a beat; a miss after all attempts is still
// reported as the zero Record, not an error.
func (c *Client) ConsumeWithRetry(ctx context.Context, noteID string, kind Kind, attempts int, delay time.Duration) (Record, error) {
	for i := 0; i < attempts; i++ {
		rec, err := c.Consume(ctx, noteID, kind)
		if err != nil {
			return Record{}, err
		}
		if !rec.Empty() {
			return rec, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Record{}, ctx.Err()
		}
	}
	return Record{}, nil
}
