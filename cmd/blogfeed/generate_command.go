package main

import (
	"fmt"
	"strconv"

	"blogfeed/internal/app"
	"blogfeed/internal/usecase"
	"blogfeed/internal/worker"

	"github.com/spf13/cobra"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var maxItems int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the feed once and write it to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.logger()
			if err != nil {
				return err
			}
			generator, err := app.NewGenerator(cfg, log)
			if err != nil {
				return err
			}
			source, err := app.NewSource(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer source.Close()

			builder := usecase.NewFeedBuildUseCase(source, generator, cfg.Production, log)
			result, err := builder.Build(cmd.Context(), maxItems)
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				if _, err := cmd.OutOrStdout().Write(result.XML); err != nil {
					return err
				}
			} else if err := worker.WriteFileAtomic(outPath, result.XML); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), renderTable(
				[]string{"Items", "Skipped", "Dropped", "Production", "Output"},
				[][]string{{
					strconv.Itoa(result.ItemCount),
					strconv.Itoa(result.SkippedCount),
					strconv.Itoa(result.DroppedCount),
					strconv.FormatBool(cfg.Production),
					displayPath(outPath),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "Override the configured item cap")
	return cmd
}

func displayPath(p string) string {
	if p == "" || p == "-" {
		return "stdout"
	}
	return p
}
