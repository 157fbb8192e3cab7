// Package cmd defines and implements the CLI commands for the feedbot executable.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRunCmd creates the 'run' subcommand, which executes a single pipeline
// pass: fetch, filter, write the feed, and optionally publish to the sink.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes one fetch-filter-publish pipeline pass",
		RunE:  runRunCommand,
	}
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	result, err := a.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	a.Logger.Info("pipeline run finished",
		zap.Bool("success", result.Success),
		zap.Int("papers", result.PapersCount),
		zap.String("output_file", result.OutputFile),
		zap.Duration("elapsed", result.Elapsed),
	)
	for _, soft := range result.SoftFailures {
		a.Logger.Warn("pipeline soft failure", zap.String("detail", soft))
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}
