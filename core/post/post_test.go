package post

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyForPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantKey Key
		wantOK  bool
	}{
		{
			name:    "content file",
			path:    "blog-posts/hello-world.md",
			wantKey: "blog-posts/hello-world",
			wantOK:  true,
		},
		{
			name:    "settings file",
			path:    "blog-posts/hello-world.json",
			wantKey: "blog-posts/hello-world",
			wantOK:  true,
		},
		{
			name:   "outside content dir",
			path:   "README.md",
			wantOK: false,
		},
		{
			name:   "status file is not a post",
			path:   "status.yml",
			wantOK: false,
		},
		{
			name:   "unrecognized suffix",
			path:   "blog-posts/cover.png",
			wantOK: false,
		},
		{
			name:    "nested post",
			path:    "blog-posts/2024/retrospective.md",
			wantKey: "blog-posts/2024/retrospective",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := KeyForPath(tt.path, "blog-posts")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKey, key)
			}
		})
	}
}

func TestKeyResourcePaths(t *testing.T) {
	key := Key("blog-posts/hello-world")
	assert.Equal(t, "blog-posts/hello-world.md", key.ContentPath())
	assert.Equal(t, "blog-posts/hello-world.json", key.SettingsPath())
}

func writePost(t *testing.T, root string, key Key, content, settings string) {
	t.Helper()
	for rel, data := range map[string]string{
		key.ContentPath():  content,
		key.SettingsPath(): settings,
	} {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	key := Key("blog-posts/hello-world")
	writePost(t, root, key, "# Hello\n", `{"title": "Hello", "draft": false, "tags": ["intro"]}`)

	p, err := Load(root, key)
	require.NoError(t, err)
	assert.Equal(t, "Hello", p.Settings.Title)
	assert.False(t, p.Settings.Draft())
	assert.Equal(t, []string{"intro"}, p.Settings.Tags)

	body, err := p.Content()
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n", body)
}

func TestLoadMissingResource(t *testing.T) {
	root := t.TempDir()
	key := Key("blog-posts/hello-world")

	// Content only, settings sidecar missing
	path := filepath.Join(root, key.ContentPath())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("# Hello\n"), 0o644))

	_, err := Load(root, key)
	require.Error(t, err)
	// The error must name the missing path so the operator can fix it
	assert.Contains(t, err.Error(), key.SettingsPath())
}

func TestLoadSettingsValidation(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{
			name: "valid",
			json: `{"title": "Hello", "draft": true}`,
		},
		{
			name:    "missing title",
			json:    `{"draft": false}`,
			wantErr: "title is required",
		},
		{
			name:    "missing draft",
			json:    `{"title": "Hello"}`,
			wantErr: "draft is required",
		},
		{
			name:    "malformed",
			json:    `{"title": `,
			wantErr: "parsing settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.json), 0o644))

			s, err := LoadSettings(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s.DraftFlag)
		})
	}
}

func TestSettingsDraftExplicitFalse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title": "Hello", "draft": false}`), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, s.Draft())
}
