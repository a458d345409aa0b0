package commands

import (
	"context"
	"fmt"

	"akleg-data/internal/basis"
	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/curated"
	"akleg-data/internal/ingest"
	"akleg-data/internal/metrics"
	"akleg-data/internal/notify"
	"akleg-data/internal/pipeline"
	"akleg-data/internal/publish"
	"akleg-data/internal/store"
	"akleg-data/lib/restyutil"
)

// app holds what every command opens from the config.
type app struct {
	config  Config
	tel     telemetry.API
	output  telemetry.MessageOutput
	metrics *metrics.Metrics
	store   *store.Store
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	a := &app{
		config:  cfg,
		tel:     telemetry.SlogAPI{},
		metrics: metrics.New(),
	}
	if cfg.HttpDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
		if err != nil {
			return nil, fmt.Errorf("http dump dir: %w", err)
		}
		a.output = output
	}

	a.store, err = store.Open(ctx, cfg.Store, a.tel)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) basisClient() *basis.Client {
	return basis.NewClient(a.config.Basis, a.tel, a.output, a.metrics)
}

func (a *app) scraper() *basis.Scraper {
	return basis.NewScraper(a.basisClient(), a.config.Basis, a.tel)
}

func (a *app) curatedSource() pipeline.CuratedSource {
	if a.config.Curated.SnapshotDir != "" {
		return pipeline.SnapshotDir(a.config.Curated.SnapshotDir)
	}
	return curated.NewFetcher(a.config.Curated.BaseUrl, a.tel, a.output)
}

func (a *app) pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	plaintextUrl := a.config.Basis.PlaintextUrl
	if plaintextUrl == "" {
		plaintextUrl = basis.DefaultPlaintextUrl
	}

	deps := pipeline.Deps{
		Store:   a.store,
		Scraper: a.scraper(),
		Curated: a.curatedSource(),
		Versions: pipeline.NewBasisVersions(
			a.basisClient(),
			basis.NewPlaintextClient(plaintextUrl, a.tel, a.output, a.metrics),
		),
		Publisher: publish.NewGitPublisher(a.config.Publish, nil, a.tel),
		Metrics:   a.metrics,
	}
	if a.config.Publish.S3.Enabled() {
		client, err := publish.NewS3Client(ctx, a.config.Publish.S3)
		if err != nil {
			return nil, err
		}
		deps.Uploader = publish.NewS3Uploader(client, a.config.Publish.S3, a.tel)
	}
	if a.config.Notify.Enabled() {
		deps.Notifier = notify.NewNotifier(a.config.Notify, a.tel)
	}

	return pipeline.New(deps, pipeline.Options{
		ExportDir: a.config.Export.Dir,
		Backfill: ingest.BackfillOptions{
			ChunkSize:   a.config.Versions.ChunkSize,
			Concurrency: a.config.Versions.Concurrency,
		},
		Push: a.config.Metrics,
	}, a.tel), nil
}

// withPipeline opens the app, runs fn and closes everything again.
func withPipeline(ctx context.Context, fn func(a *app, p *pipeline.Pipeline) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipeline(ctx)
	if err != nil {
		return err
	}
	return fn(a, p)
}
