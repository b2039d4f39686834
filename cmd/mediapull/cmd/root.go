// Package cmd implements the CLI commands for mediapull.
package cmd

import (
	"fmt"
	"os"

	"github.com/jmylchreest/mediapull/internal/config"
	"github.com/jmylchreest/mediapull/internal/observability"
	"github.com/jmylchreest/mediapull/internal/version"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	dryRun    bool

	// loadedConfig holds the configuration resolved by initConfig,
	// available to every subcommand's RunE.
	loadedConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "mediapull",
	Short:   "Acquire, filter, process, organize, and export social-link-aggregator posts",
	Version: version.Short(),
	Long: `mediapull resolves a set of subreddit/user/saved/upvoted/URL targets,
scrapes their posts, runs them through a configurable filter chain, dispatches
each surviving post to a content handler (image, gallery, video, text,
external link, crosspost, poll), organizes the resulting files, and exports
the run's metadata to one or more output formats.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfigAndLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./config.yaml, /etc/mediapull, $HOME/.mediapull)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json); overrides config")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "run acquisition, filtering, and export only, skipping processing and organization")
}

// initConfigAndLogging loads configuration (file + MEDIAPULL_ env vars +
// defaults) and configures the slog default logger from it, with
// --log-level/--log-format/--dry-run flags taking precedence when set.
func initConfigAndLogging() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if dryRun {
		cfg.Executor.DryRun = true
	}

	observability.SetDefault(observability.NewLoggerWithWriter(cfg.Logging, os.Stderr))
	loadedConfig = cfg
	return nil
}
