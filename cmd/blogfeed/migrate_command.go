package main

import (
	"blogfeed/internal/app"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations for the post store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.logger()
			if err != nil {
				return err
			}
			pool, err := app.OpenPostgres(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			pool.Close()
			return nil
		},
	}
}
