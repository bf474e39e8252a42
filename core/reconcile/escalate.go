package reconcile

import "crosspost/core/post"

// Decision is the operator's choice when a platform with a stored post
// has no update API.
type Decision int

const (
	// DecisionManual: the operator applies the edit outside this tool.
	// The stored identifier stays as is and no further action is taken.
	DecisionManual Decision = iota
	// DecisionRecreate: delete the remote post by hand and let the
	// engine create a fresh one. Destroys remote statistics, so the
	// engine demands an explicit deletion confirmation before the
	// create call is made.
	DecisionRecreate
	// DecisionAbort stops the run.
	DecisionAbort
)

// Prompter supplies the operator's decisions for the no-update-API
// escalation. The cmd layer implements it on stdin; tests inject a
// scripted prompter.
type Prompter interface {
	// Choose asks how to handle an edit to a post already published on
	// a platform that cannot update posts.
	Choose(platform string, key post.Key, postID string) (Decision, error)

	// ConfirmDeleted asks whether the operator has deleted the remote
	// post, gating the recreate. A false answer aborts the run.
	ConfirmDeleted(platform string, postID string) (bool, error)
}
