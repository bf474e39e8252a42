package cmd

import (
	"context"
	"fmt"

	"crosspost/core/config"
	"crosspost/core/covers"
	"crosspost/core/gitrepo"
	"crosspost/core/history"
	"crosspost/core/logger"
	"crosspost/core/reconcile"
	"crosspost/core/status"
	"crosspost/core/storage"
	"crosspost/feature/devto"
	"crosspost/feature/hashnode"
	"crosspost/feature/medium"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for publish command
	fromRev       string
	toRev         string
	dryRunPublish bool
	manualAnswers bool
)

// publishCmd runs the reconciler over the posts changed between two
// revisions.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish posts changed between two revisions",
	Long: `Publish posts whose content or settings changed between two revisions
(HEAD^ and HEAD by default) to every enabled platform.

Posts with no stored identifier are created; posts with one are updated.
The status file is persisted after every (post, platform) pair and
committed at the end of the run when it changed.

Examples:
  # Publish what the last commit changed
  crosspost publish

  # Report planned actions without any network call
  crosspost publish --dry-run

  # Replay a specific revision range
  crosspost publish --from v1.2 --to HEAD

  # Non-interactive: answer escalations with proceed-manually
  crosspost publish --manual`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&fromRev, "from", "HEAD^", "Previous revision to diff from")
	publishCmd.Flags().StringVar(&toRev, "to", "HEAD", "Current revision to diff to")
	publishCmd.Flags().BoolVar(&dryRunPublish, "dry-run", false, "Report planned actions without publishing")
	publishCmd.Flags().BoolVar(&manualAnswers, "manual", false, "Answer update escalations with proceed-manually (non-interactive)")

	RootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Open the repository containing the working directory
	repo, err := gitrepo.Open(".")
	if err != nil {
		return err
	}

	store := status.NewStore(repo, cfg.Content.StatusFile)

	// Prompt for missing credentials before anything else runs, so a
	// half-finished run never stalls on a secret prompt mid-batch.
	platforms, err := buildPlatforms(cfg, l, !dryRunPublish)
	if err != nil {
		return err
	}
	if len(platforms) == 0 {
		return fmt.Errorf("no platform is enabled; set PLATFORMS_DEVTO_ENABLED=true (or medium/hashnode) first")
	}

	var resolver reconcile.CoverResolver
	if cfg.Covers.Enabled {
		client, err := storage.NewClient(cfg.Covers.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to cover storage: %w", err)
		}
		resolver = covers.NewResolver(client, cfg.Covers.Storage)
	}

	var hist *history.Log
	if cfg.History.Enabled {
		hist, err = history.Open(cfg.History)
		if err != nil {
			return err
		}
	}

	var prompter reconcile.Prompter = newStdinPrompter()
	if manualAnswers {
		prompter = manualPrompter{}
	}

	engine := reconcile.NewEngine(repo, store, platforms, prompter, resolver, hist, l, reconcile.Options{
		From:          fromRev,
		To:            toRev,
		ContentDir:    cfg.Content.Dir,
		DryRun:        dryRunPublish,
		CommitMessage: cfg.Content.CommitMessage,
		AuthorName:    cfg.Content.AuthorName,
		AuthorEmail:   cfg.Content.AuthorEmail,
	})

	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	l.Info("summary",
		zap.Int("posts", summary.Posts),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("manual", summary.Manual),
		zap.Int("recreated", summary.Recreated))
	return nil
}

// buildPlatforms constructs a client per enabled platform. When
// needSecrets is set, missing credentials are prompted for on the
// terminal (no echo); dry runs skip the prompts since nothing will be
// sent anywhere.
func buildPlatforms(cfg *config.Config, l *zap.Logger, needSecrets bool) ([]reconcile.Platform, error) {
	var platforms []reconcile.Platform

	if cfg.Platforms.Devto.Enabled {
		if cfg.Platforms.Devto.APIKey == "" && needSecrets {
			key, err := promptSecret("devto api key")
			if err != nil {
				return nil, err
			}
			cfg.Platforms.Devto.APIKey = key
		}
		platforms = append(platforms, devto.New(cfg.Platforms.Devto, l))
	}

	if cfg.Platforms.Medium.Enabled {
		if cfg.Platforms.Medium.Token == "" && needSecrets {
			token, err := promptSecret("medium token")
			if err != nil {
				return nil, err
			}
			cfg.Platforms.Medium.Token = token
		}
		platforms = append(platforms, medium.New(cfg.Platforms.Medium, l))
	}

	if cfg.Platforms.Hashnode.Enabled {
		if cfg.Platforms.Hashnode.Token == "" && needSecrets {
			token, err := promptSecret("hashnode token")
			if err != nil {
				return nil, err
			}
			cfg.Platforms.Hashnode.Token = token
		}
		platforms = append(platforms, hashnode.New(cfg.Platforms.Hashnode, l))
	}

	return platforms, nil
}
