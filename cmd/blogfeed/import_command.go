package main

import (
	"fmt"
	"os"

	"blogfeed/internal/app"
	"blogfeed/internal/usecase"
	"blogfeed/storage"

	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import markdown posts from a directory into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.logger()
			if err != nil {
				return err
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("content directory: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", args[0])
			}
			pool, err := app.OpenPostgres(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			db := storage.NewPostgresPostDB(pool, log)
			defer db.Close()

			source := storage.NewMarkdownPostStore(os.DirFS(args[0]), log)
			saved, err := usecase.NewImportUseCase(source, db, log).Import(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d post(s)\n", saved)
			return nil
		},
	}
}
