package gitrepo

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrDirtyWorktree is returned by RequireClean when the working tree
// has uncommitted modifications.
var ErrDirtyWorktree = errors.New("working tree has uncommitted changes")

// Repo wraps a git repository and exposes the operations crosspost
// needs: revision resolution, changed paths between two commits,
// cleanliness checks, file contents at a revision, and staging plus
// committing the status file.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, searching parent
// directories for the .git directory.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolving worktree: %w", err)
	}

	return &Repo{repo: r, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path of the repository worktree.
func (r *Repo) Root() string {
	return r.root
}

// Resolve turns a revision expression (HEAD, HEAD^, a hash, a branch
// name) into a commit hash. An unresolvable revision is an error; a
// repository with a single commit has no HEAD^ and fails here rather
// than being treated as "no changes".
func (r *Repo) Resolve(rev string) (string, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	return h.String(), nil
}

// ChangedPaths lists the repository-relative paths that differ between
// two commits. Renames contribute both sides.
func (r *Repo) ChangedPaths(from, to string) ([]string, error) {
	fromTree, err := r.treeAt(from)
	if err != nil {
		return nil, err
	}
	toTree, err := r.treeAt(to)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", from, to, err)
	}

	seen := make(map[string]struct{})
	var paths []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		paths = append(paths, name)
	}
	for _, ch := range changes {
		add(ch.From.Name)
		add(ch.To.Name)
	}
	return paths, nil
}

func (r *Repo) treeAt(rev string) (*object.Tree, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", h, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", h, err)
	}
	return tree, nil
}

// FileAt returns the contents of path as of the given revision. A path
// absent from that commit yields ok=false and no error.
func (r *Repo) FileAt(rev, path string) (string, bool, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", false, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*h)
	if err != nil {
		return "", false, fmt.Errorf("reading commit %s: %w", h, err)
	}
	f, err := commit.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s at %s: %w", path, rev, err)
	}
	contents, err := f.Contents()
	if err != nil {
		return "", false, fmt.Errorf("reading %s at %s: %w", path, rev, err)
	}
	return contents, true, nil
}

// RequireClean fails with ErrDirtyWorktree when tracked files have
// uncommitted modifications. Untracked files are allowed: scratch
// files next to the content must not block a run. The porcelain-style
// status dump is included so the operator can see what is dirty
// without re-running git themselves.
func (r *Repo) RequireClean() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("resolving worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("reading worktree status: %w", err)
	}
	dirty := git.Status{}
	for path, fs := range status {
		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			continue
		}
		dirty[path] = fs
	}
	if len(dirty) > 0 {
		return fmt.Errorf("%w:\n%s", ErrDirtyWorktree, dirty.String())
	}
	return nil
}

// CommitFile stages path and commits it with the given message.
func (r *Repo) CommitFile(path, message, authorName, authorEmail string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("resolving worktree: %w", err)
	}
	if _, err := wt.Add(path); err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing %s: %w", path, err)
	}
	return nil
}
