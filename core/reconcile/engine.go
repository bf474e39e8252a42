package reconcile

import (
	"context"
	"fmt"

	"crosspost/core/gitrepo"
	"crosspost/core/history"
	"crosspost/core/logger"
	"crosspost/core/post"
	"crosspost/core/status"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine orchestrates one publish run: change detection, status
// loading, per-pair create/update dispatch, and the final status
// commit. All collaborators are injected; the engine itself never
// talks to git, disk, or the network directly.
type Engine struct {
	repo      *gitrepo.Repo
	store     *status.Store
	platforms []Platform
	prompter  Prompter
	covers    CoverResolver // nil: main_image passes through
	history   *history.Log  // nil: history disabled
	log       *zap.Logger
	opts      Options
}

// NewEngine wires an engine. covers and hist may be nil.
func NewEngine(repo *gitrepo.Repo, store *status.Store, platforms []Platform, prompter Prompter, covers CoverResolver, hist *history.Log, log *zap.Logger, opts Options) *Engine {
	if opts.From == "" {
		opts.From = "HEAD^"
	}
	if opts.To == "" {
		opts.To = "HEAD"
	}
	return &Engine{
		repo:      repo,
		store:     store,
		platforms: platforms,
		prompter:  prompter,
		covers:    covers,
		history:   hist,
		log:       log,
		opts:      opts,
	}
}

// Run executes the publish algorithm:
//
//  1. assert the working tree is clean
//  2. detect posts changed between From and To
//  3. verify every changed post's resources exist, before any network call
//  4. for every post x platform, create or update and persist status
//     after each pair
//  5. commit the status file when it changed
//
// Any error aborts immediately; pairs persisted before the failure stay
// persisted, which is what makes re-runs safe.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	if err := e.repo.RequireClean(); err != nil {
		return nil, err
	}

	from, err := e.repo.Resolve(e.opts.From)
	if err != nil {
		return nil, err
	}
	to, err := e.repo.Resolve(e.opts.To)
	if err != nil {
		return nil, err
	}

	keys, err := ChangedPosts(e.repo, from, to, e.opts.ContentDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RunID: uuid.NewString(), Posts: len(keys)}
	e.log.Info("starting publish run",
		zap.String("run_id", summary.RunID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("changed_posts", len(keys)),
		zap.Bool("dry_run", e.opts.DryRun))

	if len(keys) == 0 {
		e.log.Info("nothing to do")
		return summary, nil
	}

	// Fail fast on missing resources for the whole batch before the
	// first platform call.
	posts := make(map[post.Key]*post.Post, len(keys))
	for _, key := range keys {
		p, err := post.Load(e.repo.Root(), key)
		if err != nil {
			return nil, err
		}
		posts[key] = p
	}

	st, err := e.store.Load(to)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		p := posts[key]
		if e.covers != nil && !e.opts.DryRun {
			if err := e.covers.Resolve(ctx, p); err != nil {
				return nil, err
			}
		}
		for _, platform := range e.platforms {
			action, err := e.processPair(ctx, st, p, platform)
			if err != nil {
				return nil, err
			}
			summary.count(action)
			if e.history != nil && !e.opts.DryRun {
				id := st.Get(key)[platform.Name()].PostID
				if err := e.history.Record(summary.RunID, string(key), platform.Name(), string(action), id); err != nil {
					return nil, err
				}
			}
		}
	}

	committed, err := e.commitStatus()
	if err != nil {
		return nil, err
	}
	summary.Committed = committed

	e.log.Info("publish run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("manual", summary.Manual),
		zap.Int("recreated", summary.Recreated),
		zap.Bool("status_committed", committed))
	return summary, nil
}

// processPair runs the per-pair state machine: no stored identifier
// means create, a stored identifier means update (or the escalation
// when the platform cannot update). The mutated status is persisted
// before returning so a later failure cannot lose this pair's result.
func (e *Engine) processPair(ctx context.Context, st status.Status, p *post.Post, platform Platform) (Action, error) {
	name := platform.Name()
	l := logger.WithPair(e.log, string(p.Key), name)

	ps := st.Get(p.Key)
	entry := ps[name]

	if e.opts.DryRun {
		action := ActionCreate
		if entry.PostID != "" {
			action = ActionUpdate
			if !platform.CanUpdate() {
				action = ActionManual
			}
		}
		l.Info("dry-run: planned action", zap.String("action", string(action)))
		return action, nil
	}

	var action Action
	switch {
	case entry.PostID == "":
		l.Info("no stored identifier, creating")
		id, ok, err := platform.Create(ctx, p)
		if err != nil {
			return "", fmt.Errorf("creating %s on %s: %w", p.Key, name, err)
		}
		if !ok {
			l.Warn("platform declined the post, skipping")
			action = ActionSkip
			break
		}
		l.Info("created", zap.String("post_id", id))
		ps[name] = status.PlatformStatus{PostID: id}
		action = ActionCreate

	case platform.CanUpdate():
		l.Info("stored identifier found, updating", zap.String("post_id", entry.PostID))
		if err := platform.Update(ctx, p, entry.PostID); err != nil {
			return "", fmt.Errorf("updating %s on %s: %w", p.Key, name, err)
		}
		action = ActionUpdate

	default:
		var err error
		action, ps, err = e.escalate(ctx, l, ps, p, platform, entry.PostID)
		if err != nil {
			return "", err
		}
	}

	if len(ps) > 0 {
		st[p.Key] = ps
	}
	if err := e.store.Save(st); err != nil {
		return "", err
	}
	return action, nil
}

// escalate handles an edit to a post already published on a platform
// without an update API. The operator chooses: apply the edit by hand
// (identifier kept), or delete the remote post and have it recreated
// (identifier replaced), or abort.
func (e *Engine) escalate(ctx context.Context, l *zap.Logger, ps status.PostStatus, p *post.Post, platform Platform, postID string) (Action, status.PostStatus, error) {
	name := platform.Name()
	l.Warn("platform has no update API, escalating", zap.String("post_id", postID))

	decision, err := e.prompter.Choose(name, p.Key, postID)
	if err != nil {
		return "", ps, err
	}

	switch decision {
	case DecisionManual:
		l.Info("operator will update manually, identifier unchanged")
		return ActionManual, ps, nil

	case DecisionRecreate:
		deleted, err := e.prompter.ConfirmDeleted(name, postID)
		if err != nil {
			return "", ps, err
		}
		if !deleted {
			return "", ps, fmt.Errorf("recreate of %s on %s aborted: remote deletion not confirmed", p.Key, name)
		}
		id, ok, err := platform.Create(ctx, p)
		if err != nil {
			return "", ps, fmt.Errorf("recreating %s on %s: %w", p.Key, name, err)
		}
		if !ok {
			// Remote post is gone but the platform declined the new
			// state. Clear the identifier so the next run creates.
			l.Warn("platform declined the recreated post")
			ps[name] = status.PlatformStatus{}
			return ActionSkip, ps, nil
		}
		l.Info("recreated", zap.String("post_id", id))
		ps[name] = status.PlatformStatus{PostID: id}
		return ActionRecreate, ps, nil

	default:
		return "", ps, fmt.Errorf("run aborted by operator during escalation for %s on %s", p.Key, name)
	}
}

// commitStatus commits the status file when the working copy differs
// from its contents at HEAD. HEAD, not Options.To: a replay of an
// older revision range that reproduces the already-committed state
// must not produce an empty commit.
func (e *Engine) commitStatus() (bool, error) {
	if e.opts.DryRun {
		return false, nil
	}
	dirty, err := e.store.Dirty("HEAD")
	if err != nil {
		return false, err
	}
	if !dirty {
		return false, nil
	}
	if err := e.repo.CommitFile(e.store.File(), e.opts.CommitMessage, e.opts.AuthorName, e.opts.AuthorEmail); err != nil {
		return false, err
	}
	return true, nil
}
