package status

import (
	"fmt"
	"os"
	"path/filepath"

	"crosspost/core/gitrepo"
	"crosspost/core/post"

	"gopkg.in/yaml.v3"
)

// PlatformStatus records what crosspost last did for one post on one
// platform. An empty PostID means the post was never successfully
// created there, and the next run will create rather than update.
type PlatformStatus struct {
	PostID string `yaml:"post_id,omitempty"`
}

// PostStatus maps platform name to PlatformStatus for one post.
type PostStatus map[string]PlatformStatus

// Status is the full persisted state: post key to PostStatus. Entries
// are only ever added or overwritten, never removed automatically.
type Status map[post.Key]PostStatus

// Get returns the post's status, or an empty PostStatus when the post
// has never been published anywhere. A null entry in a hand-edited
// status file unmarshals to a nil map; Get normalizes that to an empty
// one so callers can always write into the result.
func (s Status) Get(key post.Key) PostStatus {
	if ps, ok := s[key]; ok && ps != nil {
		return ps
	}
	return PostStatus{}
}

// Store reads and writes the status file. Loads go through git so the
// engine can ask for the state as of a specific revision; saves go to
// the working copy, which the engine commits at the end of a run.
type Store struct {
	repo *gitrepo.Repo
	file string
}

// NewStore creates a store for the status file at the given
// repository-relative path.
func NewStore(repo *gitrepo.Repo, file string) *Store {
	return &Store{repo: repo, file: file}
}

// File returns the repository-relative status file path.
func (st *Store) File() string {
	return st.file
}

// Load deserializes the status file as it existed at a revision. A
// missing or empty file yields an empty Status, not an error: a
// repository that has never published anything has no status file yet.
func (st *Store) Load(rev string) (Status, error) {
	raw, ok, err := st.repo.FileAt(rev, st.file)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return Status{}, nil
	}

	var s Status
	if err := yaml.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("parsing %s at %s: %w", st.file, rev, err)
	}
	if s == nil {
		s = Status{}
	}
	return s, nil
}

// Save serializes the full status to the working copy. yaml.v3 emits
// map keys in sorted order, so repeated saves of the same state produce
// identical bytes and reviewable diffs.
func (st *Store) Save(s Status) error {
	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing status: %w", err)
	}
	path := filepath.Join(st.repo.Root(), st.file)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", st.file, err)
	}
	return nil
}

// Dirty reports whether the working copy of the status file differs
// from its contents at the given revision.
func (st *Store) Dirty(rev string) (bool, error) {
	committed, _, err := st.repo.FileAt(rev, st.file)
	if err != nil {
		return false, err
	}
	current, err := os.ReadFile(filepath.Join(st.repo.Root(), st.file))
	if os.IsNotExist(err) {
		return committed != "", nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", st.file, err)
	}
	return string(current) != committed, nil
}
