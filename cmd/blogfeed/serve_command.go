package main

import (
	"blogfeed/internal/app"

	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.logger()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
}
