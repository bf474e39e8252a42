// Package gitrepo wraps go-git to provide the version control
// collaborator for a publish run.
//
// crosspost reasons about committed revisions only: it diffs two
// commits to find changed posts, reads the status file as of a
// revision, refuses to run on a dirty worktree, and commits the
// updated status file when a run changed it. All of those operations
// live here so the reconcile engine never touches git directly.
package gitrepo
