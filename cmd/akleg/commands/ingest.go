package commands

import (
	"log/slog"

	"akleg-data/internal/pipeline"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(fetchCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scrapes the legislatures missing from the store and appends the new rows.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd.Context(), func(_ *app, p *pipeline.Pipeline) error {
			report, err := p.Ingest(cmd.Context())
			printIngest(report.Results...)
			if err != nil {
				return err
			}
			slog.Info("ingest finished", "inserted", report.Inserted())
			return nil
		})
	},
}

var versionsCmd = &cobra.Command{
	Use:   "backfill-versions",
	Short: "Fetches the text of bill versions that are missing or still changing.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd.Context(), func(_ *app, p *pipeline.Pipeline) error {
			res, err := p.BackfillVersions(cmd.Context())
			printIngest(res)
			return err
		})
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Scrapes like ingest without writing to the store, this fills the raw cache.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd.Context(), func(_ *app, p *pipeline.Pipeline) error {
			plan, err := p.PlanFor(cmd.Context())
			if err != nil {
				return err
			}
			fetched, err := p.Fetch(cmd.Context(), plan)
			if err != nil {
				return err
			}
			slog.Info(
				"fetched",
				"curated", fetched.Curated.Version,
				"legislatures", len(fetched.Scraped.Sessions),
				"members", len(fetched.Scraped.Members),
				"bills", len(fetched.Scraped.Bills),
				"votes", len(fetched.Scraped.Votes),
			)
			return nil
		})
	},
}
