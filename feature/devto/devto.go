// Package devto publishes posts through the dev.to REST API
// (https://developers.forem.com/api). dev.to supports create, update,
// and read, so it exercises the full state machine without escalations.
package devto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"crosspost/core/post"
	"crosspost/core/reconcile"

	"go.uber.org/zap"
)

// Config holds configuration for the dev.to platform.
type Config struct {
	// Enabled toggles publishing to dev.to.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// APIKey is the dev.to API key.
	APIKey string `mapstructure:"api_key" default:""`
	// BaseURL is the API root, overridable for tests.
	BaseURL string `mapstructure:"base_url" default:"https://dev.to"`
}

// Client implements reconcile.Platform for dev.to.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// New creates a dev.to client.
func New(cfg Config, log *zap.Logger) *Client {
	return &Client{cfg: cfg, http: &http.Client{}, log: log}
}

func (c *Client) Name() string { return "devto" }

// CanUpdate is true: dev.to exposes PUT /api/articles/{id}.
func (c *Client) CanUpdate() bool { return true }

// article is the outgoing payload. Optional fields are omitted when
// unset, never sent as null.
type article struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	Series       string   `json:"series,omitempty"`
	MainImage    string   `json:"main_image,omitempty"`
	CanonicalURL string   `json:"canonical_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

type articleRequest struct {
	Article article `json:"article"`
}

func (c *Client) payload(p *post.Post) (*articleRequest, error) {
	body, err := p.Content()
	if err != nil {
		return nil, err
	}
	s := p.Settings
	return &articleRequest{Article: article{
		Title:        s.Title,
		BodyMarkdown: body,
		Published:    !s.Draft(),
		Series:       s.Series,
		MainImage:    p.CoverURL,
		CanonicalURL: s.CanonicalURL,
		Description:  s.Description,
		Tags:         s.Tags,
	}}, nil
}

// Create posts a new article. dev.to represents drafts natively
// (published: false), so Create never declines.
func (c *Client) Create(ctx context.Context, p *post.Post) (string, bool, error) {
	payload, err := c.payload(p)
	if err != nil {
		return "", false, err
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	url := c.cfg.BaseURL + "/api/articles"
	if err := c.do(ctx, http.MethodPost, url, payload, http.StatusCreated, &resp); err != nil {
		return "", false, err
	}
	return strconv.FormatInt(resp.ID, 10), true, nil
}

// Update replaces the article's content and settings in place.
func (c *Client) Update(ctx context.Context, p *post.Post, id string) error {
	payload, err := c.payload(p)
	if err != nil {
		return err
	}
	url := c.cfg.BaseURL + "/api/articles/" + id
	return c.do(ctx, http.MethodPut, url, payload, http.StatusOK, nil)
}

// Published checks whether the article still exists: 200 yes, 404 no,
// anything else is fatal.
func (c *Client) Published(ctx context.Context, id string) (bool, error) {
	url := c.cfg.BaseURL + "/api/articles/" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	c.log.Info("devto: GET", zap.String("url", url))
	res, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("devto: GET %s: %w", url, err)
	}
	defer res.Body.Close()
	c.log.Info("devto: response", zap.Int("status_code", res.StatusCode))

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return false, &reconcile.StatusError{
		Platform:   c.Name(),
		Method:     http.MethodGet,
		URL:        url,
		StatusCode: res.StatusCode,
		Body:       string(body),
	}
}

func (c *Client) do(ctx context.Context, method, url string, payload any, want int, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	c.log.Info("devto: "+method, zap.String("url", url))
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("devto: %s %s: %w", method, url, err)
	}
	defer res.Body.Close()
	c.log.Info("devto: response", zap.Int("status_code", res.StatusCode))

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
			return fmt.Errorf("devto: decoding %s %s response: %w", method, url, err)
		}
	}
	return nil
}
