// Package cmd defines and implements the CLI commands for the archiver
// executable.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/config"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nanahapi-history",
		Short: "Maintains the channel's video archive metadata.",
		Long: `nanahapi-history harvests video metadata from the channel's listing
pages, resolves each video through progressively less reliable information
tiers, and merges the results into the per-channel JSON archive the site is
rendered from. A sibling checklinks command verifies archived links are
still reachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A local .env is optional; it only exists on dev machines.
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newCheckLinksCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() error {
	if err := newRootCmd().Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return err
	}
	return nil
}
