package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize/english"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/config"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/output"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/syncer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runSync is the root command handler: one sync pass and a report.
func runSync(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	formatter, err := buildFormatter()
	if err != nil {
		return err
	}

	opts := syncOptions(cfg, root, excludePatterns(cmd))
	opts.DryRun = viper.GetBool("dry_run")
	opts.Check = viper.GetBool("check")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printVerbose("Syncing %s", root)
	res, err := syncer.Run(ctx, opts)
	if res != nil {
		if rerr := report(cmd.OutOrStdout(), formatter, res); rerr != nil {
			return rerr
		}
	}
	if errors.Is(err, syncer.ErrOutOfDate) {
		return fmt.Errorf("%w: %s would change", err, english.Plural(len(res.OutOfDate), "document", ""))
	}
	return err
}

// resolveRoot returns the absolute project directory from the arguments.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", abs)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

// syncOptions builds the sync options shared by one-shot and watch runs.
// extra exclusion patterns are appended to the configured ones.
func syncOptions(c *config.Config, root string, extra []string) syncer.Options {
	return syncer.Options{
		Root:           root,
		Project:        viper.GetString("project"),
		Exclude:        mergeExclude(c.Exclude, extra),
		Categories:     c.CategoryRules(),
		FollowSymlinks: viper.GetBool("follow_symlinks"),
	}
}

// excludePatterns returns the --exclude values given on the command line.
func excludePatterns(cmd *cobra.Command) []string {
	patterns, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return nil
	}
	return patterns
}

// mergeExclude returns configured followed by extra, without duplicates.
func mergeExclude(configured, extra []string) []string {
	seen := make(map[string]struct{}, len(configured)+len(extra))
	merged := make([]string, 0, len(configured)+len(extra))
	for _, list := range [][]string{configured, extra} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

// buildFormatter returns the report formatter selected by --output.
func buildFormatter() (output.Formatter, error) {
	name := viper.GetString("output")
	if name == "" {
		name = config.DefaultOutput
	}

	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, output.Available())
	}

	if tmpl := viper.GetString("template"); tmpl != "" {
		tf, ok := formatter.(*output.TemplateFormatter)
		if !ok {
			return nil, fmt.Errorf("--template requires --output template")
		}
		tf.SetTemplate(tmpl)
	}
	return formatter, nil
}

// report renders res to w. Quiet mode suppresses the pretty report only.
func report(w io.Writer, formatter output.Formatter, res *syncer.Result) error {
	if _, pretty := formatter.(*output.PrettyFormatter); pretty && getQuiet() {
		return nil
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, output.FromResult(res)); err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
