package main

import (
	"context"

	"assetfetch/internal/app"
	"assetfetch/internal/config"

	"github.com/spf13/cobra"
)

func newMirrorsCmd(global *globalOptions) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "mirrors",
		Short: "List download sources, or pick one interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), global, func(ctx context.Context, a *app.App) error {
				if !pick {
					a.Sources()
					return nil
				}
				name, err := a.Menu(ctx).PickSource()
				if err != nil {
					return err
				}
				if global.configPath == "" {
					return nil
				}
				return config.SetDownloadSource(global.configPath, name)
			})
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "Choose the download source interactively and save it")
	return cmd
}
