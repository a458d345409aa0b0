package commands

import (
	"log/slog"

	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/curated"
	"akleg-data/internal/normalize"
	"akleg-data/internal/pipeline"

	"github.com/spf13/cobra"
)

func init() {
	curatedCmd.AddCommand(curatedSnapshotCmd)
	curatedCmd.AddCommand(curatedSuggestCmd)
	rootCmd.AddCommand(curatedCmd)
}

var curatedCmd = &cobra.Command{
	Use:   "curated",
	Short: "Works with the curated people and members spreadsheet.",
}

var curatedSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Downloads the curated sheets and saves them under their content digest.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		snapshot, err := curated.NewFetcher(cfg.Curated.BaseUrl, telemetry.SlogAPI{}, nil).Fetch(cmd.Context())
		if err != nil {
			return err
		}
		dir, err := snapshot.Save(cfg.Curated.SaveDir)
		if err != nil {
			return err
		}
		slog.Info("saved curated snapshot", "version", snapshot.Version, "dir", dir)
		return nil
	},
}

var curatedSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Lists scraped members missing from members_10_plus with the most similar curated person.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd.Context(), func(a *app, p *pipeline.Pipeline) error {
			plan, err := p.PlanFor(cmd.Context())
			if err != nil {
				return err
			}
			snapshot, err := a.curatedSource().Fetch(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := a.scraper().Members(cmd.Context(), plan.Members)
			if err != nil {
				return err
			}
			printSuggestions(curated.Suggest(snapshot, normalize.Members(raw)))
			return nil
		})
	},
}
