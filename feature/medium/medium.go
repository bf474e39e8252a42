// Package medium publishes posts through the Medium REST API. Medium
// can create posts but has no update (or delete) endpoint, so edits to
// already-published posts go through the engine's interactive
// escalation instead of Update.
package medium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"crosspost/core/post"
	"crosspost/core/reconcile"

	"go.uber.org/zap"
)

// Config holds configuration for the Medium platform.
type Config struct {
	// Enabled toggles publishing to Medium.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Token is the Medium self-issued integration token.
	Token string `mapstructure:"token" default:""`
	// BaseURL is the API root, overridable for tests.
	BaseURL string `mapstructure:"base_url" default:"https://api.medium.com"`
}

// Client implements reconcile.Platform for Medium.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	// authorID is resolved once per run via /v1/me.
	authorID string
}

// New creates a Medium client.
func New(cfg Config, log *zap.Logger) *Client {
	return &Client{cfg: cfg, http: &http.Client{}, log: log}
}

func (c *Client) Name() string { return "medium" }

// CanUpdate is false: the Medium API cannot update posts. The engine
// escalates to the operator instead.
func (c *Client) CanUpdate() bool { return false }

type createPayload struct {
	Title         string   `json:"title"`
	ContentFormat string   `json:"contentFormat"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags,omitempty"`
	CanonicalURL  string   `json:"canonicalUrl,omitempty"`
	PublishStatus string   `json:"publishStatus"`
}

// Create publishes a new post under the token's user. Drafts map to
// publishStatus=draft, so Create never declines.
func (c *Client) Create(ctx context.Context, p *post.Post) (string, bool, error) {
	author, err := c.resolveAuthor(ctx)
	if err != nil {
		return "", false, err
	}

	body, err := p.Content()
	if err != nil {
		return "", false, err
	}

	s := p.Settings
	publishStatus := "public"
	if s.Draft() {
		publishStatus = "draft"
	}
	payload := createPayload{
		Title:         s.Title,
		ContentFormat: "markdown",
		Content:       body,
		Tags:          s.Tags,
		CanonicalURL:  s.CanonicalURL,
		PublishStatus: publishStatus,
	}

	var resp struct {
		Data struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	}
	url := c.cfg.BaseURL + "/v1/users/" + author + "/posts"
	if err := c.do(ctx, http.MethodPost, url, payload, http.StatusCreated, &resp); err != nil {
		return "", false, err
	}
	c.log.Info("medium: created", zap.String("post_url", resp.Data.URL))
	return resp.Data.ID, true, nil
}

// Update is unreachable through the engine (CanUpdate is false) and
// exists only to satisfy the interface.
func (c *Client) Update(ctx context.Context, p *post.Post, id string) error {
	return fmt.Errorf("medium: updating post %s: %w", id, reconcile.ErrUnsupported)
}

// Published is unsupported: the Medium API exposes no post lookup.
func (c *Client) Published(ctx context.Context, id string) (bool, error) {
	return false, reconcile.ErrUnsupported
}

// resolveAuthor fetches the token's user id, once per run.
func (c *Client) resolveAuthor(ctx context.Context) (string, error) {
	if c.authorID != "" {
		return c.authorID, nil
	}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	url := c.cfg.BaseURL + "/v1/me"
	if err := c.do(ctx, http.MethodGet, url, nil, http.StatusOK, &resp); err != nil {
		return "", err
	}
	c.authorID = resp.Data.ID
	return c.authorID, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any, want int, out any) error {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Info("medium: "+method, zap.String("url", url))
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("medium: %s %s: %w", method, url, err)
	}
	defer res.Body.Close()
	c.log.Info("medium: response", zap.Int("status_code", res.StatusCode))

	if res.StatusCode != want {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return &reconcile.StatusError{
			Platform:   c.Name(),
			Method:     method,
			URL:        url,
			StatusCode: res.StatusCode,
			Body:       string(body),
		}
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("medium: decoding %s %s response: %w", method, url, err)
		}
	}
	return nil
}
