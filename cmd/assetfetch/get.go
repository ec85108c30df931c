package main

import (
	"context"

	"assetfetch/internal/app"

	"github.com/spf13/cobra"
)

func newGetCmd(global *globalOptions) *cobra.Command {
	var (
		noHashCheck bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "get <version>",
		Short: "Download a version; release and snapshot select the latest ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			if noHashCheck {
				disabled := false
				cfg.CheckLibraryHashes = &disabled
			}

			return runWithConfig(cmd.Context(), cfg, func(ctx context.Context, a *app.App) error {
				if dryRun {
					_, err := a.Plan(ctx, args[0])
					return err
				}
				_, err := a.Acquire(ctx, args[0])
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&noHashCheck, "no-hash-check", false, "Skip hash verification of libraries, assets and jars")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve metadata and print the plan without downloading game files")

	return cmd
}
