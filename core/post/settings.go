package post

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings is the structured metadata sidecar of a post. Optional
// fields left unset here must be omitted from outgoing platform
// payloads, never sent as null or empty.
type Settings struct {
	// Title is the article title. Required.
	Title string `json:"title"`
	// Slug is the URL slug, where the platform supports one.
	Slug string `json:"slug,omitempty"`
	// DraftFlag marks the post as a draft. Required; a pointer so that
	// an absent field can be told apart from an explicit false.
	DraftFlag *bool `json:"draft"`
	// MainImage is the cover image: either an absolute URL or a path
	// inside the repository (uploaded by the covers resolver).
	MainImage string `json:"main_image,omitempty"`
	// Description is the article summary / subtitle.
	Description string `json:"description,omitempty"`
	// Tags is the ordered tag list.
	Tags []string `json:"tags,omitempty"`
	// CanonicalURL points at the canonical copy of the article.
	CanonicalURL string `json:"canonical_url,omitempty"`
	// Series is the dev.to series name (platform-specific extra).
	Series string `json:"series,omitempty"`
}

// Draft reports the draft flag. Valid settings always carry one.
func (s *Settings) Draft() bool {
	return s.DraftFlag != nil && *s.DraftFlag
}

// LoadSettings reads and validates a settings file.
func LoadSettings(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if s.Title == "" {
		return nil, fmt.Errorf("settings %s: title is required", path)
	}
	if s.DraftFlag == nil {
		return nil, fmt.Errorf("settings %s: draft is required", path)
	}

	return &s, nil
}
