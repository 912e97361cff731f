package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/syncer"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-sync whenever the source tree changes",
	Long: `Sync once, then watch the project directory and sync again after files
or directories are created, removed or renamed.

Bursts of changes are coalesced: a pass starts once no relevant event has
arrived for watch.debounce (default 500ms). Passes never overlap. A failed
pass is reported and watching continues. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// runWatch runs the initial sync and then syncs on every settled change.
func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	formatter, err := buildFormatter()
	if err != nil {
		return err
	}

	opts := syncOptions(cfg, root, excludePatterns(cmd))

	matcher, err := filter.NewMatcher(filter.DefaultExclusions, opts.Exclude...)
	if err != nil {
		return &syncer.PhaseError{Phase: syncer.PhaseConfig, Err: err}
	}

	w, err := watcher.New(matcher, cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(root); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.Get("watcher")
	pass := func(ctx context.Context) error {
		res, err := syncer.Run(ctx, opts)
		if err != nil {
			return err
		}
		if !res.Plan.Changed() && len(res.Written) == 0 {
			log.Debug("no changes", "project", res.ProjectPath)
			return nil
		}
		return report(cmd.OutOrStdout(), formatter, res)
	}

	if err := pass(ctx); err != nil {
		return err
	}
	printInfo("Watching %s (%d directories)", root, w.WatchedPaths())

	return w.Run(ctx, pass)
}
