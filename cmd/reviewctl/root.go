package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/reviewscope/api/handler"
)

// NewRootCmd creates the root command for reviewctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewctl",
		Short: "Collect business reviews from a public map listing",
		Long: `reviewctl drives a headless browser to a business listing, opens its
review feed, scrolls it and prints the reviews as JSON.

Configuration is read from REVIEWSCOPE_* environment variables, the same
ones the reviewscope server uses. Flags override them per invocation.`,
		Version:       handler.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewSelectorsCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
