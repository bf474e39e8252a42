package reconcile

import (
	"fmt"
	"sort"

	"crosspost/core/gitrepo"
	"crosspost/core/post"
)

// ChangedPosts computes the set of post keys whose content or settings
// differ between two revisions, restricted to the content directory and
// recognized suffixes. A post with both resources edited appears once.
// The result is sorted so runs process posts in a stable order; set
// membership, not order, is what correctness depends on.
//
// An unreadable history (missing parent commit, corrupt repository) is
// a fatal error, never an empty result.
func ChangedPosts(repo *gitrepo.Repo, from, to, contentDir string) ([]post.Key, error) {
	paths, err := repo.ChangedPaths(from, to)
	if err != nil {
		return nil, fmt.Errorf("detecting changed posts: %w", err)
	}

	set := make(map[post.Key]struct{})
	for _, p := range paths {
		if key, ok := post.KeyForPath(p, contentDir); ok {
			set[key] = struct{}{}
		}
	}

	keys := make([]post.Key, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}
