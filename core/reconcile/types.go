package reconcile

// Options controls a publish run.
type Options struct {
	// From and To are the revisions the change detector diffs.
	// Defaults: HEAD^ and HEAD.
	From string
	To   string

	// ContentDir is the repository-relative directory containing posts.
	ContentDir string

	// DryRun reports what the run would do without any network call,
	// status write, or commit.
	DryRun bool

	// CommitMessage is the fixed marker message used when committing
	// the status file.
	CommitMessage string

	// AuthorName and AuthorEmail sign the status commit.
	AuthorName  string
	AuthorEmail string
}

// Action is what the engine did (or, in dry-run, would do) for one
// (post, platform) pair.
type Action string

const (
	// ActionCreate: no stored identifier, the post was created.
	ActionCreate Action = "create"
	// ActionUpdate: stored identifier, the post was updated in place.
	ActionUpdate Action = "update"
	// ActionSkip: the adapter declined to represent the post.
	ActionSkip Action = "skip"
	// ActionManual: the operator chose to update outside this tool.
	ActionManual Action = "manual"
	// ActionRecreate: the remote post was deleted by hand and created
	// again with a new identifier.
	ActionRecreate Action = "recreate"
)

// Summary aggregates one run.
type Summary struct {
	// RunID tags every log line and history row of this run.
	RunID string

	// Posts is the number of changed posts processed.
	Posts int

	// Per-action pair counts.
	Created   int
	Updated   int
	Skipped   int
	Manual    int
	Recreated int

	// Committed reports whether the status file was committed.
	Committed bool
}

func (s *Summary) count(a Action) {
	switch a {
	case ActionCreate:
		s.Created++
	case ActionUpdate:
		s.Updated++
	case ActionSkip:
		s.Skipped++
	case ActionManual:
		s.Manual++
	case ActionRecreate:
		s.Recreated++
	}
}
