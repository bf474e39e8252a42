package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crosspost/core/gitrepo"
	"crosspost/core/history"
	"crosspost/core/post"
	"crosspost/core/status"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fakePlatform is a scripted Platform with call counters.
type fakePlatform struct {
	name      string
	canUpdate bool
	createFn  func(context.Context, *post.Post) (string, bool, error)
	updateFn  func(context.Context, *post.Post, string) error

	creates     int
	updates     int
	updatedWith []string
}

func (f *fakePlatform) Name() string    { return f.name }
func (f *fakePlatform) CanUpdate() bool { return f.canUpdate }

func (f *fakePlatform) Create(ctx context.Context, p *post.Post) (string, bool, error) {
	f.creates++
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return fmt.Sprintf("%s-%d", f.name, f.creates), true, nil
}

func (f *fakePlatform) Update(ctx context.Context, p *post.Post, id string) error {
	f.updates++
	f.updatedWith = append(f.updatedWith, id)
	if f.updateFn != nil {
		return f.updateFn(ctx, p, id)
	}
	return nil
}

func (f *fakePlatform) Published(ctx context.Context, id string) (bool, error) {
	return true, nil
}

// scriptedPrompter answers escalations without a terminal.
type scriptedPrompter struct {
	decision Decision
	deleted  bool

	chooseCalls  int
	confirmCalls int
}

func (s *scriptedPrompter) Choose(platform string, key post.Key, postID string) (Decision, error) {
	s.chooseCalls++
	return s.decision, nil
}

func (s *scriptedPrompter) ConfirmDeleted(platform, postID string) (bool, error) {
	s.confirmCalls++
	return s.deleted, nil
}

func initRepo(t *testing.T) (*gitrepo.Repo, string) {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	repo, err := gitrepo.Open(dir)
	require.NoError(t, err)
	return repo, dir
}

func write(t *testing.T, root, rel, data string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func commitAll(t *testing.T, root, msg string) string {
	t.Helper()
	r, err := git.PlainOpen(root)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@localhost", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

const helloSettings = `{"title": "Hello World", "draft": false, "tags": ["intro"]}`

func writeHelloPost(t *testing.T, root, body string) {
	t.Helper()
	write(t, root, "blog-posts/hello-world.md", body)
	write(t, root, "blog-posts/hello-world.json", helloSettings)
}

func newTestEngine(repo *gitrepo.Repo, store *status.Store, platforms []Platform, prompter Prompter, hist *history.Log, opts Options) *Engine {
	if opts.ContentDir == "" {
		opts.ContentDir = "blog-posts"
	}
	if opts.CommitMessage == "" {
		opts.CommitMessage = "auto-commit: update status.yml"
	}
	opts.AuthorName = "test"
	opts.AuthorEmail = "test@localhost"
	return NewEngine(repo, store, platforms, prompter, nil, hist, zap.NewNop(), opts)
}

func TestRunCreatesNewPost(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Posts)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, devto.creates)
	assert.Zero(t, devto.updates)
	assert.True(t, summary.Committed)

	// The status file is committed, leaving the tree clean.
	require.NoError(t, repo.RequireClean())
	st, err := store.Load("HEAD")
	require.NoError(t, err)
	assert.Equal(t, "devto-1", st.Get("blog-posts/hello-world")["devto"].PostID)
}

func TestCreateThenUpdateTransition(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{})

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	// Content edit, no settings change: the second run updates with the
	// identifier the first run stored.
	write(t, root, "blog-posts/hello-world.md", "# Hello v2\n")
	commitAll(t, root, "edit hello")

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Zero(t, summary.Created)
	assert.Equal(t, 1, devto.creates)
	assert.Equal(t, []string{"devto-1"}, devto.updatedWith)

	// The stored identifier is unchanged.
	st, err := store.Load("HEAD")
	require.NoError(t, err)
	assert.Equal(t, "devto-1", st.Get("blog-posts/hello-world")["devto"].PostID)
}

func TestRerunWithoutChangesIsIdempotent(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{})

	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	first, err := store.Load("HEAD")
	require.NoError(t, err)

	// The run committed only status.yml, so the next diff contains no
	// post resources: zero creates, zero updates, status unchanged.
	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Posts)
	assert.Equal(t, 1, devto.creates)
	assert.Zero(t, devto.updates)
	assert.False(t, summary.Committed)

	second, err := store.Load("HEAD")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAdapterDeclineIsSkipNotFailure(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")

	declining := &fakePlatform{
		name:      "hashnode",
		canUpdate: true,
		createFn: func(context.Context, *post.Post) (string, bool, error) {
			return "", false, nil
		},
	}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{declining}, &scriptedPrompter{}, nil, Options{})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Created)

	// No identifier stored: the next run will create again.
	st, err := store.Load("HEAD")
	require.NoError(t, err)
	assert.Equal(t, "", st.Get("blog-posts/hello-world")["hashnode"].PostID)
}

func TestMissingSettingsFailsBeforeAnyPlatformCall(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	// Content without its settings sidecar, plus a perfectly valid
	// second post: neither may reach a platform.
	write(t, root, "blog-posts/broken.md", "# Broken\n")
	write(t, root, "blog-posts/ok.md", "# OK\n")
	write(t, root, "blog-posts/ok.json", `{"title": "OK", "draft": false}`)
	commitAll(t, root, "add posts")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{})

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blog-posts/broken.json")
	assert.Zero(t, devto.creates, "no network call may happen for any post in the batch")
}

func TestStatusPersistedBeforeLaterPairFails(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")

	platformA := &fakePlatform{name: "devto", canUpdate: true}
	platformB := &fakePlatform{
		name:      "hashnode",
		canUpdate: true,
		createFn: func(context.Context, *post.Post) (string, bool, error) {
			return "", false, fmt.Errorf("boom")
		},
	}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{platformA, platformB}, &scriptedPrompter{}, nil, Options{})

	_, err := engine.Run(context.Background())
	require.Error(t, err)

	// A's success survives the abort on B: the working copy of the
	// status file records the identifier even though nothing was
	// committed.
	raw, err := os.ReadFile(filepath.Join(root, "status.yml"))
	require.NoError(t, err)
	var st status.Status
	require.NoError(t, yaml.Unmarshal(raw, &st))
	assert.Equal(t, "devto-1", st.Get("blog-posts/hello-world")["devto"].PostID)
	assert.Equal(t, "", st.Get("blog-posts/hello-world")["hashnode"].PostID)
}

func TestDirtyWorktreeIsFatal(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")
	write(t, root, "README.md", "dirty")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{})

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gitrepo.ErrDirtyWorktree)
	assert.Zero(t, devto.creates)
}

func TestDryRunMakesNoCallsAndNoWrites(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{DryRun: true})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created, "dry-run reports the planned create")
	assert.Zero(t, devto.creates)
	assert.False(t, summary.Committed)
	assert.NoFileExists(t, filepath.Join(root, "status.yml"))
}

func escalationSetup(t *testing.T) (*gitrepo.Repo, string, *status.Store) {
	t.Helper()
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	writeHelloPost(t, root, "# Hello\n")
	write(t, root, "status.yml", "blog-posts/hello-world:\n  medium:\n    post_id: m-1\n")
	commitAll(t, root, "init")
	write(t, root, "blog-posts/hello-world.md", "# Hello v2\n")
	commitAll(t, root, "edit hello")
	return repo, root, status.NewStore(repo, "status.yml")
}

func TestEscalationManualKeepsIdentifier(t *testing.T) {
	repo, _, store := escalationSetup(t)
	medium := &fakePlatform{name: "medium", canUpdate: false}
	prompter := &scriptedPrompter{decision: DecisionManual}
	engine := newTestEngine(repo, store, []Platform{medium}, prompter, nil, Options{})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Manual)
	assert.Equal(t, 1, prompter.chooseCalls)
	assert.Zero(t, medium.creates)
	assert.Zero(t, medium.updates)

	st, err := store.Load("HEAD")
	require.NoError(t, err)
	assert.Equal(t, "m-1", st.Get("blog-posts/hello-world")["medium"].PostID)
}

func TestEscalationRecreateStoresNewIdentifier(t *testing.T) {
	repo, _, store := escalationSetup(t)
	medium := &fakePlatform{name: "medium", canUpdate: false}
	prompter := &scriptedPrompter{decision: DecisionRecreate, deleted: true}
	engine := newTestEngine(repo, store, []Platform{medium}, prompter, nil, Options{})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recreated)
	assert.Equal(t, 1, prompter.confirmCalls)
	assert.Equal(t, 1, medium.creates)

	st, err := store.Load("HEAD")
	require.NoError(t, err)
	assert.Equal(t, "medium-1", st.Get("blog-posts/hello-world")["medium"].PostID)
}

func TestEscalationRecreateRequiresDeletionConfirmed(t *testing.T) {
	repo, _, store := escalationSetup(t)
	medium := &fakePlatform{name: "medium", canUpdate: false}
	prompter := &scriptedPrompter{decision: DecisionRecreate, deleted: false}
	engine := newTestEngine(repo, store, []Platform{medium}, prompter, nil, Options{})

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deletion not confirmed")
	assert.Zero(t, medium.creates, "create must not run before deletion is confirmed")
}

func TestEscalationAbort(t *testing.T) {
	repo, _, store := escalationSetup(t)
	medium := &fakePlatform{name: "medium", canUpdate: false}
	prompter := &scriptedPrompter{decision: DecisionAbort}
	engine := newTestEngine(repo, store, []Platform{medium}, prompter, nil, Options{})

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted by operator")
}

func TestNullStatusEntryForcesCreate(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	writeHelloPost(t, root, "# Hello\n")
	// A hand-edited status file with a key but nothing under it.
	write(t, root, "status.yml", "blog-posts/hello-world:\n")
	commitAll(t, root, "init")
	write(t, root, "blog-posts/hello-world.md", "# Hello v2\n")
	commitAll(t, root, "edit hello")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, devto.creates)

	st, err := store.Load("HEAD")
	require.NoError(t, err)
	assert.Equal(t, "devto-1", st.Get("blog-posts/hello-world")["devto"].PostID)
}

func TestUntrackedFilesDoNotAbortRun(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")
	write(t, root, "scratch.txt", "notes")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.True(t, summary.Committed)
}

func TestReplayReproducingCommittedStatusDoesNotRecommit(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	from := commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	to := commitAll(t, root, "add hello")
	// The status commit a previous run of the same range produced.
	write(t, root, "status.yml", "blog-posts/hello-world:\n    devto:\n        post_id: devto-1\n")
	commitAll(t, root, "auto-commit: update status.yml")

	devto := &fakePlatform{name: "devto", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto}, &scriptedPrompter{}, nil, Options{From: from, To: to})

	// The replay re-creates (status as of `to` is empty) and writes the
	// same bytes HEAD already carries: no empty commit.
	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.False(t, summary.Committed)
	require.NoError(t, repo.RequireClean())
}

func TestHistoryRecordsPairs(t *testing.T) {
	repo, root := initRepo(t)
	write(t, root, "README.md", "readme")
	commitAll(t, root, "init")
	writeHelloPost(t, root, "# Hello\n")
	commitAll(t, root, "add hello")

	hist, err := history.Open(history.Config{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)

	devto := &fakePlatform{name: "devto", canUpdate: true}
	hashnode := &fakePlatform{name: "hashnode", canUpdate: true}
	store := status.NewStore(repo, "status.yml")
	engine := newTestEngine(repo, store, []Platform{devto, hashnode}, &scriptedPrompter{}, hist, Options{})

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)

	entries, err := hist.ForRun(summary.RunID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "devto", entries[0].Platform)
	assert.Equal(t, "hashnode", entries[1].Platform)
	for _, e := range entries {
		assert.Equal(t, "blog-posts/hello-world", e.Post)
		assert.Equal(t, string(ActionCreate), e.Action)
		assert.NotEmpty(t, e.PostID)
	}
}
