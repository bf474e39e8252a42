package post

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ContentSuffix is the file suffix for a post's Markdown body.
	ContentSuffix = ".md"
	// SettingsSuffix is the file suffix for a post's settings sidecar.
	SettingsSuffix = ".json"
)

// Key identifies a logical article by its path under the content
// directory, with the file suffix stripped. Both resources of a post
// share one key: "blog-posts/hello-world" covers
// "blog-posts/hello-world.md" and "blog-posts/hello-world.json".
type Key string

// KeyForPath derives the post key from a changed file path. ok is false
// when the path is not a post resource (wrong directory or suffix).
func KeyForPath(path, contentDir string) (Key, bool) {
	prefix := strings.TrimSuffix(contentDir, "/") + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	switch {
	case strings.HasSuffix(path, ContentSuffix):
		return Key(strings.TrimSuffix(path, ContentSuffix)), true
	case strings.HasSuffix(path, SettingsSuffix):
		return Key(strings.TrimSuffix(path, SettingsSuffix)), true
	}
	return "", false
}

// ContentPath returns the repository-relative path of the Markdown body.
func (k Key) ContentPath() string {
	return string(k) + ContentSuffix
}

// SettingsPath returns the repository-relative path of the settings file.
func (k Key) SettingsPath() string {
	return string(k) + SettingsSuffix
}

// Post bundles a post's key with its loaded resources. Root is the
// absolute path of the repository worktree; resource paths are resolved
// against it.
type Post struct {
	Key      Key
	Root     string
	Settings *Settings

	// CoverURL is the resolved public URL for the cover image. Set by
	// the covers resolver when main_image points at a file inside the
	// repository; otherwise equal to Settings.MainImage.
	CoverURL string
}

// Load reads and validates both resources of a post. A missing resource
// file is an error naming the missing path.
func Load(root string, key Key) (*Post, error) {
	for _, rel := range []string{key.ContentPath(), key.SettingsPath()} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			return nil, fmt.Errorf("post %s: missing resource %s: %w", key, rel, err)
		}
	}

	settings, err := LoadSettings(filepath.Join(root, key.SettingsPath()))
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", key, err)
	}

	return &Post{
		Key:      key,
		Root:     root,
		Settings: settings,
		CoverURL: settings.MainImage,
	}, nil
}

// Content reads the Markdown body verbatim from the working copy.
func (p *Post) Content() (string, error) {
	b, err := os.ReadFile(filepath.Join(p.Root, p.Key.ContentPath()))
	if err != nil {
		return "", fmt.Errorf("post %s: reading content: %w", p.Key, err)
	}
	return string(b), nil
}
