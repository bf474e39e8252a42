// Package reconcile contains the publish engine: the logic that
// decides, for every changed post and every configured platform,
// whether to create a new remote post or update an existing one, and
// that keeps the status file in step with what actually happened.
//
// # Per-pair state machine
//
// For one (post, platform) pair:
//
//	no stored identifier  -> Create -> identifier stored | skipped
//	stored identifier     -> Update -> identifier kept
//	stored identifier, no update API -> escalation:
//	    manual   (operator edits remote post by hand, identifier kept)
//	    recreate (operator deletes remote post, Create runs again)
//	    abort
//
// The status file is persisted after every pair, so a failure on pair
// N never loses the results of pairs 1..N-1, and re-running after a
// fix is safe: already-recorded pairs turn into updates, not duplicate
// creates.
//
// # Collaborators
//
// The Platform interface is implemented once per target platform under
// feature/. The git repository, status store, cover resolver, history
// log, and escalation prompter are injected, which keeps the engine
// testable with fakes end to end.
package reconcile
