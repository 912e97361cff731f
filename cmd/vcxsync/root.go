package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/config"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "vcxsync [path]",
		Short: "Keep a Visual C++ project in step with its source tree",
		Long: `vcxsync mirrors the directory tree next to a .vcxproj into the project's
build item list and its .vcxproj.filters groups.

Each run adds groups for new directories, drops groups for deleted ones,
tracks added and removed files, and rewrites both documents. Filter
identifiers of surviving groups are kept stable.

Examples:
  vcxsync                     # Sync the project in the current directory
  vcxsync ../Engine           # Sync another project directory
  vcxsync -E 'third_party'    # Also exclude third_party
  vcxsync --dry-run -o plain  # Preview changes as a table
  vcxsync --check             # Fail if the project is out of date
  vcxsync watch               # Re-sync whenever the tree changes`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: initConfig,
		RunE:              runSync,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/vcxsync/config.yaml)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "E", nil, "exclusion patterns added to the configured ones (can be specified multiple times)")
	rootCmd.PersistentFlags().String("project", "", "project file to sync when the directory holds several")
	rootCmd.PersistentFlags().Bool("follow-symlinks", false, "descend into symlinked files and directories")
	rootCmd.PersistentFlags().StringP("output", "o", "", "report format (pretty, plain, json, yaml, paths, template)")
	rootCmd.PersistentFlags().String("template", "", "Go template for --output template")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	rootCmd.Flags().BoolP("dry-run", "n", false, "show changes without writing")
	rootCmd.Flags().Bool("check", false, "exit non-zero when the project is out of date")

	bindFlags()
}

// bindFlags binds flags to viper. --exclude is not bound: it extends the
// configured list instead of replacing it (see excludePatterns).
func bindFlags() {
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
	_ = viper.BindPFlag("follow_symlinks", rootCmd.PersistentFlags().Lookup("follow-symlinks"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("template", rootCmd.PersistentFlags().Lookup("template"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("check", rootCmd.Flags().Lookup("check"))
}

// initConfig loads configuration and starts logging before any command runs.
func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.LoadViper(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	return logging.Init(loggingConfig(cfg, getVerbose(), getQuiet()))
}

// loggingConfig maps the configuration and console flags to a logging setup.
// Console output goes to stderr so reports on stdout stay parseable.
func loggingConfig(c *config.Config, verbose, quiet bool) logging.Config {
	lc := logging.Config{
		Level:        c.Logging.Level,
		Path:         c.Logging.Path,
		Components:   c.Logging.Components,
		ConsoleLevel: "warn",
	}
	switch {
	case quiet:
		lc.ConsoleLevel = "error"
	case verbose:
		lc.ConsoleLevel = "debug"
	}
	return lc
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
