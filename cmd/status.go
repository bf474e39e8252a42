package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"crosspost/core/config"
	"crosspost/core/gitrepo"
	"crosspost/core/logger"
	"crosspost/core/post"
	"crosspost/core/reconcile"
	"crosspost/core/status"

	"github.com/spf13/cobra"
)

var checkRemote bool

// statusCmd prints the stored publication state, optionally verifying
// stored identifiers against each platform's read API.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-post per-platform publication state",
	Long: `Show the publication state recorded in the status file as of HEAD.

With --check, every stored identifier is looked up on its platform and
reported as live or missing. Platforms without a read API (Medium) are
reported as unverifiable.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&checkRemote, "check", false, "Verify stored identifiers against the platform APIs")

	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	repo, err := gitrepo.Open(".")
	if err != nil {
		return err
	}

	store := status.NewStore(repo, cfg.Content.StatusFile)
	st, err := store.Load("HEAD")
	if err != nil {
		return err
	}

	if len(st) == 0 {
		fmt.Println("no posts published yet")
		return nil
	}

	var checkers map[string]reconcile.Platform
	if checkRemote {
		platforms, err := buildPlatforms(cfg, l, true)
		if err != nil {
			return err
		}
		checkers = make(map[string]reconcile.Platform, len(platforms))
		for _, p := range platforms {
			checkers[p.Name()] = p
		}
	}

	keys := make([]post.Key, 0, len(st))
	for key := range st {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		fmt.Println(key)
		ps := st[key]
		names := make([]string, 0, len(ps))
		for name := range ps {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			entry := ps[name]
			if entry.PostID == "" {
				fmt.Printf("  %-10s (no identifier, next run creates)\n", name)
				continue
			}
			line := fmt.Sprintf("  %-10s %s", name, entry.PostID)
			if platform, ok := checkers[name]; ok {
				live, err := platform.Published(ctx, entry.PostID)
				switch {
				case errors.Is(err, reconcile.ErrUnsupported):
					line += "  [unverifiable]"
				case err != nil:
					return err
				case live:
					line += "  [live]"
				default:
					line += "  [missing remotely]"
				}
			}
			fmt.Println(line)
		}
	}
	return nil
}
