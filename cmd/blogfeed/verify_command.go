package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"blogfeed/internal/adapter/fetcher"
	"blogfeed/internal/adapter/verifier"
	"blogfeed/internal/logger"

	"github.com/spf13/cobra"
)

func newVerifyCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "verify <file|url>",
		Short: "Parse a feed and report RSS 2.0 problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewWithWriters(cmd.ErrOrStderr(), cmd.ErrOrStderr(), slog.LevelWarn)
			target := args[0]
			reader, err := openFeed(cmd.Context(), fetcher.NewHTTPFetcher(log, timeout, "blogfeed-verify"), target)
			if err != nil {
				return err
			}
			defer reader.Close()

			report, err := verifier.New(log).Verify(cmd.Context(), reader)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Title", "Type", "Items", "Self link", "Problems"},
				[][]string{{
					report.Title,
					report.FeedType + " " + report.FeedVersion,
					strconv.Itoa(report.Items),
					report.SelfLink,
					strconv.Itoa(len(report.Problems)),
				}},
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight},
			))
			for _, p := range report.Problems {
				fmt.Fprintln(cmd.OutOrStdout(), "  - "+p)
			}
			if !report.OK() {
				return fmt.Errorf("feed %s has %d problem(s)", target, len(report.Problems))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP timeout when verifying a URL")
	return cmd
}

type feedFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

func openFeed(ctx context.Context, f feedFetcher, target string) (io.ReadCloser, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return f.Fetch(ctx, target)
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	return file, nil
}
