// Package main is the keyaid CLI: a local-only keystroke capture, redaction,
// and search daemon. Most subcommands operate directly on the on-disk store
// (KeyAI Desktop runs single-user, single-process, with no server to talk
// to); `keyaid run` is the one subcommand that stays resident, owning the
// capture hook for as long as it is foregrounded.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
)

var (
	verbose    bool
	configPath string
	dbPath     string
	timeout    time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "keyaid",
	Short: "KeyAI Desktop - local, privacy-preserving keystroke capture and search",
	Long: `keyaid captures keystrokes on this machine, redacts personal data before
anything touches disk, and serves lexical, semantic, and hybrid search over
the redacted history. Everything stays on the local filesystem.

Run "keyaid run" to start capturing. Every other subcommand reads or writes
the store directly and exits.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config YAML (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override the configured store path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "operation timeout for one-shot commands")

	rootCmd.AddCommand(
		runCmd,
		searchCmd,
		suggestCmd,
		statsCmd,
		healthCmd,
		optimizeCmd,
		clearCmd,
		exportCmd,
		importCmd,
		backupCmd,
		configCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
