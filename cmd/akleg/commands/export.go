package commands

import (
	"log/slog"

	"akleg-data/internal/pipeline"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(publishCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Recreates the export directory with csv, parquet and a sqlite snapshot of every table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd.Context(), func(_ *app, p *pipeline.Pipeline) error {
			manifest, err := p.Export(cmd.Context())
			if err != nil {
				return err
			}
			printManifest(manifest)
			return nil
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <branch>",
	Short: "Force pushes the export directory as a single commit to a branch.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd.Context(), func(a *app, p *pipeline.Pipeline) error {
			err := p.Publish(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			slog.Info("published", "dir", a.config.Export.Dir, "branch", args[0])
			return nil
		})
	},
}
