// Package hashnode publishes posts through the Hashnode GraphQL API
// (https://gql.hashnode.com). publishPost cannot create drafts, so
// draft posts are a defined skip on this platform.
package hashnode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"crosspost/core/post"
	"crosspost/core/reconcile"

	"go.uber.org/zap"
)

// Config holds configuration for the Hashnode platform.
type Config struct {
	// Enabled toggles publishing to Hashnode.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Token is the Hashnode personal access token.
	Token string `mapstructure:"token" default:""`
	// PublicationID is the publication posts are published under.
	PublicationID string `mapstructure:"publication_id" default:""`
	// Endpoint is the GraphQL endpoint, overridable for tests.
	Endpoint string `mapstructure:"endpoint" default:"https://gql.hashnode.com"`
}

// Client implements reconcile.Platform for Hashnode.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// New creates a Hashnode client.
func New(cfg Config, log *zap.Logger) *Client {
	return &Client{cfg: cfg, http: &http.Client{}, log: log}
}

func (c *Client) Name() string { return "hashnode" }

// CanUpdate is true: Hashnode exposes an updatePost mutation.
func (c *Client) CanUpdate() bool { return true }

const publishMutation = `mutation PublishPost($input: PublishPostInput!) {
  publishPost(input: $input) { post { id } }
}`

const updateMutation = `mutation UpdatePost($input: UpdatePostInput!) {
  updatePost(input: $input) { post { id } }
}`

const postQuery = `query Post($id: ID!) {
  post(id: $id) { id }
}`

type tagInput struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type coverImageInput struct {
	CoverImageURL string `json:"coverImageURL"`
}

// postInput covers both publishPost and updatePost; unset optional
// fields are omitted from the variables object.
type postInput struct {
	ID                 string           `json:"id,omitempty"`
	Title              string           `json:"title"`
	ContentMarkdown    string           `json:"contentMarkdown"`
	PublicationID      string           `json:"publicationId,omitempty"`
	Slug               string           `json:"slug,omitempty"`
	Subtitle           string           `json:"subtitle,omitempty"`
	Tags               []tagInput       `json:"tags,omitempty"`
	OriginalArticleURL string           `json:"originalArticleURL,omitempty"`
	CoverImageOptions  *coverImageInput `json:"coverImageOptions,omitempty"`
}

func (c *Client) input(p *post.Post) (*postInput, error) {
	body, err := p.Content()
	if err != nil {
		return nil, err
	}
	s := p.Settings

	in := &postInput{
		Title:              s.Title,
		ContentMarkdown:    body,
		Slug:               s.Slug,
		Subtitle:           s.Description,
		OriginalArticleURL: s.CanonicalURL,
	}
	for _, t := range s.Tags {
		in.Tags = append(in.Tags, tagInput{Slug: slugify(t), Name: t})
	}
	if p.CoverURL != "" {
		in.CoverImageOptions = &coverImageInput{CoverImageURL: p.CoverURL}
	}
	return in, nil
}

// Create publishes a new post. Draft posts are declined: publishPost
// always publishes, and routing drafts elsewhere (createDraft) would
// hand back an identifier update calls cannot use.
func (c *Client) Create(ctx context.Context, p *post.Post) (string, bool, error) {
	if p.Settings.Draft() {
		c.log.Info("hashnode: draft post, declining", zap.String("post", string(p.Key)))
		return "", false, nil
	}

	in, err := c.input(p)
	if err != nil {
		return "", false, err
	}
	in.PublicationID = c.cfg.PublicationID

	var resp struct {
		PublishPost struct {
			Post struct {
				ID string `json:"id"`
			} `json:"post"`
		} `json:"publishPost"`
	}
	if err := c.query(ctx, publishMutation, map[string]any{"input": in}, &resp); err != nil {
		return "", false, err
	}
	return resp.PublishPost.Post.ID, true, nil
}

// Update applies the post's current content and settings.
func (c *Client) Update(ctx context.Context, p *post.Post, id string) error {
	in, err := c.input(p)
	if err != nil {
		return err
	}
	in.ID = id

	var resp struct {
		UpdatePost struct {
			Post struct {
				ID string `json:"id"`
			} `json:"post"`
		} `json:"updatePost"`
	}
	return c.query(ctx, updateMutation, map[string]any{"input": in}, &resp)
}

// Published checks whether the post still exists. Hashnode returns a
// null post for unknown identifiers.
func (c *Client) Published(ctx context.Context, id string) (bool, error) {
	var resp struct {
		Post *struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if err := c.query(ctx, postQuery, map[string]any{"id": id}, &resp); err != nil {
		return false, err
	}
	return resp.Post != nil, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

// query posts one GraphQL operation. A non-200 response or an errors
// array is fatal, except that Published tolerates null results above.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	raw, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.Token)

	c.log.Info("hashnode: POST", zap.String("url", c.cfg.Endpoint))
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("hashnode: POST %s: %w", c.cfg.Endpoint, err)
	}
	defer res.Body.Close()
	c.log.Info("hashnode: response", zap.Int("status_code", res.StatusCode))

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return &reconcile.StatusError{
			Platform:   c.Name(),
			Method:     http.MethodPost,
			URL:        c.cfg.Endpoint,
			StatusCode: res.StatusCode,
			Body:       string(body),
		}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("hashnode: decoding response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("hashnode: graphql errors: %s", strings.Join(msgs, "; "))
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("hashnode: decoding data: %w", err)
		}
	}
	return nil
}

// slugify lowercases a tag name into Hashnode's slug shape.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
