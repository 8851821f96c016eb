package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoster/parkwork/internal/config"
	"github.com/mkoster/parkwork/internal/logger"
	"github.com/mkoster/parkwork/internal/store"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parkwork",
		Short: "Aggregate Seattle park volunteer events from multiple sources",
		Long: `parkwork fetches volunteer and community event listings from several
Seattle park organizations, merges duplicate listings of the same
real-world event, and publishes the combined calendar.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Path to the config file")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newInitDBCmd())
	cmd.AddCommand(newETLCmd())
	cmd.AddCommand(newCanonicalizeCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSiteCmd())

	return cmd
}

// loadConfig reads the configured YAML file and resolves its timezone.
func loadConfig() (config.Config, *time.Location, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return cfg, nil, fmt.Errorf("resolving timezone: %w", err)
	}
	return cfg, loc, nil
}

func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DatabasePath, err)
	}
	return st, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
