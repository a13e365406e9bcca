// Package telegraph is a minimal client for the Telegraph publishing
// API: one account created on demand and reused for the process
// lifetime, one page per hosted document.
package telegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.telegra.ph"

// Config holds the account identity pages are published under.
type Config struct {
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string

	// ShortName is the account short name shown in the editor.
	ShortName string

	// AuthorName and AuthorURL appear on every published page.
	AuthorName string
	AuthorURL  string
}

// Client publishes documents through Telegraph. The account token is
// created lazily, probed before reuse, and re-created when the probe
// fails (tokens are not persisted anywhere).
type Client struct {
	cfg    Config
	client *http.Client

	mu          sync.Mutex
	accessToken string
}

// NewClient creates a Telegraph client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

// PublishPage renders html into a hosted page and returns its public
// URL. Satisfies render.DocumentPublisher.
func (c *Client) PublishPage(ctx context.Context, title, html string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	content, err := nodesFromHTML(html)
	if err != nil {
		return "", fmt.Errorf("convert content: %w", err)
	}

	params := url.Values{
		"access_token": {token},
		"title":        {title},
		"author_name":  {c.cfg.AuthorName},
		"author_url":   {c.cfg.AuthorURL},
		"content":      {content},
	}
	var result struct {
		URL string `json:"url"`
	}
	if err := c.call(ctx, "createPage", params, &result); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	log.Printf("telegraph: published %q at %s", title, result.URL)
	return result.URL, nil
}

// token returns a live access token, creating or re-creating the
// account as needed.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" {
		if c.probeLocked(ctx) {
			return c.accessToken, nil
		}
		log.Printf("telegraph: account probe failed, re-creating account")
		c.accessToken = ""
	}

	params := url.Values{
		"short_name":  {c.cfg.ShortName},
		"author_name": {c.cfg.AuthorName},
		"author_url":  {c.cfg.AuthorURL},
	}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.call(ctx, "createAccount", params, &result); err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	c.accessToken = result.AccessToken
	return c.accessToken, nil
}

// probeLocked checks the cached token still resolves to an account.
func (c *Client) probeLocked(ctx context.Context) bool {
	params := url.Values{"access_token": {c.accessToken}}
	var result struct {
		ShortName string `json:"short_name"`
	}
	return c.call(ctx, "getAccountInfo", params, &result) == nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !body.OK {
		return fmt.Errorf("%s: %s", method, body.Error)
	}
	if result != nil {
		if err := json.Unmarshal(body.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}
