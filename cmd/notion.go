package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/feed"
	"github.com/paperwheel/arxiv-feed-bot/internal/notion"
	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// newNotionCmd creates the 'notion' command group for managing the sink
// database directly, outside of a pipeline run.
func newNotionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notion",
		Short: "Manages the Notion sink database",
	}
	cmd.AddCommand(newNotionCheckCmd())
	cmd.AddCommand(newNotionSetupCmd())
	cmd.AddCommand(newNotionPublishCmd())
	cmd.AddCommand(newNotionBackfillCmd())
	return cmd
}

func newNotionCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verifies connectivity and credentials against the sink database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			client, err := a.NotionClient()
			if err != nil {
				return err
			}
			db, err := client.GetDatabase(cmd.Context())
			if err != nil {
				return fmt.Errorf("check database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected to database %q (%s) with %d properties\n",
				db.Title, db.ID, len(db.Properties))
			return nil
		},
	}
}

func newNotionSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Reconciles the sink database schema with the feed's fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			client, err := a.NotionClient()
			if err != nil {
				return err
			}

			// Schema discovery uses the latest feed document when one exists;
			// the well-known properties are ensured either way.
			var fields []string
			if path, err := feed.Latest(a.Config.Paths.OutputDir); err == nil {
				if fields, err = feed.FirstItemFields(path); err != nil {
					a.Logger.Warn("could not read feed fields", zap.Error(err))
				}
			}

			schema, soft := notion.NewReconciler(client, a.Logger).Reconcile(cmd.Context(), fields)
			for _, s := range soft {
				a.Logger.Warn("schema reconciliation issue", zap.String("detail", s))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database schema has %d properties\n", len(schema))
			return nil
		},
	}
}

func newNotionPublishCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publishes records from the latest feed to the sink",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			publisher, err := a.NotionPublisher()
			if err != nil {
				return err
			}
			path, records, err := a.LatestRecords()
			if err != nil {
				return fmt.Errorf("load latest feed: %w", err)
			}
			if limit <= 0 {
				limit = a.Config.Notion.PublishLimit
			}
			a.Logger.Info("publishing feed",
				zap.String("feed", path),
				zap.Int("records", len(records)),
				zap.Int("limit", limit),
			)

			result := publisher.Publish(cmd.Context(), records, limit)
			printPublishResult(cmd, result)
			for _, soft := range result.SoftFailures {
				a.Logger.Warn("publish soft failure", zap.String("detail", soft))
			}
			return batchError("publish", result)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum pages to create (0 uses the configured limit)")
	return cmd
}

func newNotionBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Updates existing sink pages by title and creates the missing ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			publisher, err := a.NotionPublisher()
			if err != nil {
				return err
			}
			path, records, err := a.LatestRecords()
			if err != nil {
				return fmt.Errorf("load latest feed: %w", err)
			}
			a.Logger.Info("backfilling feed", zap.String("feed", path), zap.Int("records", len(records)))

			result, err := publisher.Backfill(cmd.Context(), records)
			if err != nil {
				return fmt.Errorf("backfill: %w", err)
			}
			printPublishResult(cmd, result)
			return batchError("backfill", result)
		},
	}
}

func printPublishResult(cmd *cobra.Command, result pipeline.PublishResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d skipped=%d errors=%d\n",
		result.Created, result.Updated, result.Skipped, len(result.Errors))
}

// batchError decides the process outcome of a sink batch. Only per-record
// delivery errors fail the command; a batch that skips everything because
// the ledger is already up to date is a normal rerun and exits zero.
func batchError(op string, result pipeline.PublishResult) error {
	if len(result.Errors) > 0 {
		return fmt.Errorf("%s finished with %d errors", op, len(result.Errors))
	}
	return nil
}
