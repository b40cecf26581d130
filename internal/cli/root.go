// Package cli provides the command-line interface for loremaster.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantumflow/loremaster/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configPath string
	verbose    bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *slog.Logger

	// closers run in reverse order after every command
	closers []func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loremaster",
	Short: "Conversation analysis for multi-agent campaign routing",
	Long: `Loremaster inspects the recent history of a campaign thread and reports
topic shifts, agent performance, behavioral patterns and continuity signals
that a router can use to pick the next agent.

It never picks the agent itself: every result is advisory.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Log.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		var cleanup func() error
		logger, cleanup = config.SetupLogger(cfg.Log.File, level)
		slog.SetDefault(logger)
		closers = append(closers, cleanup)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		runClosers(cmd.ErrOrStderr())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// ctx is cancelled on SIGINT or SIGTERM by the caller.
func Execute(ctx context.Context) error {
	defer runClosers(os.Stderr)
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./loremaster.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(importCmd)
}

// onClose registers cleanup to run once the command finishes
func onClose(fn func() error) {
	closers = append(closers, fn)
}

func runClosers(stderr io.Writer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			fmt.Fprintf(stderr, "Warning: cleanup failed: %v\n", err)
		}
	}
	closers = nil
}
