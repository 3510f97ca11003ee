package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newSnapshotCommand() *cobra.Command {
	var more int

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Initialize once and print the live list as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if err := rt.engine.Initialize(ctx); err != nil {
				rt.logger.Warn().Err(err).Msg("initialize")
			}
			for i := 0; i < more; i++ {
				if _, err := rt.engine.LoadMore(ctx, 0); err != nil {
					rt.logger.Warn().Err(err).Msg("load more")
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rt.engine.Entries())
		},
	}
	cmd.Flags().IntVar(&more, "more", 0, "number of extra pages to load after initializing")
	return cmd
}
