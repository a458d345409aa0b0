package commands

import (
	"context"
	"log/slog"
	"sync"

	"akleg-data/internal/components/chrono"
	"akleg-data/internal/pipeline"

	"github.com/spf13/cobra"
)

const report_schedule_overlap = "schedule.overlap"

func init() {
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runBatch(ctx context.Context, p *pipeline.Pipeline, branch string) error {
	run, err := p.Batch(ctx, branch)
	if err != nil {
		slog.Error("batch failed", "run", run.Id, "err", err)
		return err
	}
	slog.Info(
		"batch finished",
		"run", run.Id,
		"inserted", run.Ingest.Inserted(),
		"versions", run.Versions.New,
		"artifacts", len(run.Manifest.Artifacts),
	)
	return nil
}

var batchCmd = &cobra.Command{
	Use:   "batch <branch>",
	Short: "Runs ingest, backfill-versions, export and publish in sequence.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd.Context(), func(_ *app, p *pipeline.Pipeline) error {
			return runBatch(cmd.Context(), p, args[0])
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <cron> <branch>",
	Short: "Runs the batch on a cron schedule (America/Anchorage) until interrupted.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		spec, branch := args[0], args[1]

		return withPipeline(ctx, func(a *app, p *pipeline.Pipeline) error {
			cron := chrono.NewStandardCron(a.tel)
			defer cron.Stop()

			// runs share one store, a trigger that fires during a run is dropped
			var running sync.Mutex
			err := cron.Cron(spec, func() {
				if !running.TryLock() {
					a.tel.ReportWarning(report_schedule_overlap, spec, branch)
					return
				}
				defer running.Unlock()
				_ = runBatch(ctx, p, branch)
			})
			if err != nil {
				return err
			}

			slog.Info("scheduled batch", "cron", spec, "branch", branch)
			<-ctx.Done()
			return nil
		})
	},
}
