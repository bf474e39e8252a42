package reconcile

import (
	"context"
	"errors"

	"crosspost/core/post"
)

// ErrUnsupported is returned by Published when a platform's API has no
// way to read back a post (Medium). The status command reports such
// platforms as unverifiable rather than treating this as a failure.
var ErrUnsupported = errors.New("operation not supported by platform API")

// Platform defines the interface for platform-specific publishing
// logic. Each implementation (feature/devto, feature/medium,
// feature/hashnode) maps the generic post settings onto its API's
// payload, omitting unset optional fields rather than sending nulls.
type Platform interface {
	// Name returns the unique platform name used as the key in the
	// status file (e.g., "devto").
	Name() string

	// Create publishes a new post and returns the platform-assigned
	// identifier. ok=false is a defined skip: the platform cannot
	// represent the requested state (e.g., a draft on a platform
	// without draft support). Any non-success API response is an error.
	Create(ctx context.Context, p *post.Post) (id string, ok bool, err error)

	// CanUpdate reports whether the platform API supports updating an
	// existing post. Platforms returning false trigger the interactive
	// escalation in the engine instead of Update.
	CanUpdate() bool

	// Update applies the post's current content and settings to the
	// existing platform post with the given identifier.
	Update(ctx context.Context, p *post.Post, id string) error

	// Published checks whether the remote post with the given
	// identifier still exists. Returns ErrUnsupported when the API has
	// no read endpoint.
	Published(ctx context.Context, id string) (bool, error)
}

// CoverResolver resolves a post's main_image into a URL platforms can
// fetch. A nil resolver leaves main_image untouched.
type CoverResolver interface {
	Resolve(ctx context.Context, p *post.Post) error
}
