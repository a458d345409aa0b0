// Package pipeline sequences a batch run: fetch, normalize, resolve, ingest, export and publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"akleg-data/internal/basis"
	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/chrono"
	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/curated"
	"akleg-data/internal/export"
	"akleg-data/internal/ingest"
	"akleg-data/internal/metrics"
	"akleg-data/internal/model"
	"akleg-data/internal/normalize"
	"akleg-data/internal/notify"
	"akleg-data/internal/resolve"
	"akleg-data/internal/store"
	libtelemetry "akleg-data/lib/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = libtelemetry.Tracer("akleg.internal.pipeline")

const (
	report_pipeline_fetch   = "pipeline.fetch"
	report_pipeline_resolve = "pipeline.resolve"
	report_pipeline_stage   = "pipeline.stage"
	report_pipeline_notify  = "pipeline.notify"
	report_pipeline_metrics = "pipeline.metrics"
	report_pipeline_choices = "pipeline.choices-without-member"
)

// stage names, they label the stage duration metric and the failure email
const (
	StageIngest   = "ingest"
	StageVersions = "backfill-versions"
	StageExport   = "export"
	StagePublish  = "publish"
)

type Scraper interface {
	Legislatures(ctx context.Context, numbers []int) ([]basis.RawSession, error)
	Members(ctx context.Context, numbers []int) ([]basis.RawMember, error)
	Bills(ctx context.Context, numbers []int) ([]basis.RawBill, error)
	Votes(ctx context.Context, members []basis.RawMember) ([]basis.RawVote, error)
}

type CuratedSource interface {
	Fetch(ctx context.Context) (curated.Snapshot, error)
}

// SnapshotDir reads the curated sheets from a directory written by curated.Snapshot.Save instead of
// downloading them.
type SnapshotDir string

func (d SnapshotDir) Fetch(context.Context) (curated.Snapshot, error) {
	return curated.Load(string(d))
}

type Publisher interface {
	Push(ctx context.Context, dir, branch string) error
}

type Uploader interface {
	Upload(ctx context.Context, dir, branch string) ([]string, error)
}

type Notifier interface {
	NotifyFailure(ctx context.Context, f notify.Failure) error
}

// Deps are the collaborators of a pipeline. Store, Scraper and Curated are required, the others
// disable their stage when nil.
type Deps struct {
	Store    *store.Store
	Scraper  Scraper
	Curated  CuratedSource
	Versions ingest.VersionSource
	// git publisher
	Publisher Publisher
	// s3 upload of the same export
	Uploader Uploader
	Notifier Notifier
	Metrics  *metrics.Metrics
	// defaults to chrono.StandardImpl
	Clock chrono.API
}

type Options struct {
	ExportDir string
	Backfill  ingest.BackfillOptions
	Push      metrics.Config
}

type Pipeline struct {
	store    *store.Store
	scraper  Scraper
	curated  CuratedSource
	versions ingest.VersionSource
	exporter *export.Exporter
	ingestor *ingest.Ingestor

	publisher Publisher
	uploader  Uploader
	notifier  Notifier
	metrics   *metrics.Metrics
	clock     chrono.API
	options   Options
	tel       telemetry.API
}

func New(deps Deps, options Options, tel telemetry.API) *Pipeline {
	assert.NotNil(deps.Store)
	assert.NotNil(deps.Scraper)
	assert.NotNil(deps.Curated)
	assert.NotNil(tel)

	clock := deps.Clock
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}
	if options.ExportDir == "" {
		options.ExportDir = "data"
	}

	return &Pipeline{
		store:     deps.Store,
		scraper:   deps.Scraper,
		curated:   deps.Curated,
		versions:  deps.Versions,
		exporter:  export.NewExporter(deps.Store, tel),
		ingestor:  ingest.NewIngestor(deps.Store, tel, deps.Metrics),
		publisher: deps.Publisher,
		uploader:  deps.Uploader,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		clock:     clock,
		options:   options,
		tel:       telemetry.NewScopedAPI("pipeline", tel),
	}
}

// Fetched is everything a run reads from upstream.
type Fetched struct {
	Plan    Plan
	Curated curated.Snapshot
	Scraped basis.Scraped
}

func membersOf(members []basis.RawMember, legislatures []int) []basis.RawMember {
	wanted := make(map[int16]struct{}, len(legislatures))
	for _, leg := range legislatures {
		wanted[int16(leg)] = struct{}{}
	}
	var out []basis.RawMember
	for _, m := range members {
		if _, ok := wanted[m.LegislatureNumber]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Fetch downloads the curated snapshot and the raw records of the plan. Nothing is written to the
// store, so a failure here never leaves a partial ingest.
func (p *Pipeline) Fetch(ctx context.Context, plan Plan) (Fetched, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	out := Fetched{Plan: plan}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		snapshot, err := p.curated.Fetch(groupCtx)
		if err != nil {
			return fmt.Errorf("fetch curated: %w", err)
		}
		out.Curated = snapshot
		return nil
	})
	group.Go(func() error {
		var err error
		out.Scraped.Sessions, err = p.scraper.Legislatures(groupCtx, plan.Sessions)
		if err != nil {
			return err
		}
		out.Scraped.Members, err = p.scraper.Members(groupCtx, plan.Members)
		if err != nil {
			return err
		}
		out.Scraped.Bills, err = p.scraper.Bills(groupCtx, plan.Bills)
		if err != nil {
			return err
		}
		out.Scraped.Votes, err = p.scraper.Votes(groupCtx, membersOf(out.Scraped.Members, plan.Votes))
		return err
	})
	err := group.Wait()
	if err != nil {
		p.tel.ReportBroken(report_pipeline_fetch, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Fetched{}, err
	}

	span.SetAttributes(
		attribute.String("curated_version", out.Curated.Version),
		attribute.Int("members", len(out.Scraped.Members)),
		attribute.Int("bills", len(out.Scraped.Bills)),
		attribute.Int("votes", len(out.Scraped.Votes)),
	)
	return out, nil
}

// Resolve normalizes the fetched records and assigns their keys.
func (p *Pipeline) Resolve(ctx context.Context, fetched Fetched) (model.Tables, error) {
	_, span := tracer.Start(ctx, "Resolve")
	defer span.End()

	tables, err := p.resolve(fetched)
	if err != nil {
		p.tel.ReportBroken(report_pipeline_resolve, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Tables{}, err
	}
	return tables, nil
}

func (p *Pipeline) resolve(fetched Fetched) (model.Tables, error) {
	legislatures, sessions := normalize.Legislatures(fetched.Scraped.Sessions)

	members, err := resolve.MergeMembers(normalize.Members(fetched.Scraped.Members), fetched.Curated)
	if err != nil {
		return model.Tables{}, fmt.Errorf("resolve members: %w", err)
	}
	bills, err := resolve.ResolveBills(normalize.Bills(fetched.Scraped.Bills))
	if err != nil {
		return model.Tables{}, fmt.Errorf("resolve bills: %w", err)
	}
	split, err := resolve.SplitChoices(normalize.Choices(fetched.Scraped.Votes), bills, members)
	if err != nil {
		return model.Tables{}, fmt.Errorf("resolve choices: %w", err)
	}
	if split.WithoutMember > 0 {
		p.tel.ReportWarning(report_pipeline_choices, split.WithoutMember)
	}

	referenced := make([]int16, 0, len(members)+len(bills))
	for _, m := range members {
		referenced = append(referenced, m.LegislatureNumber)
	}
	for _, b := range bills {
		referenced = append(referenced, b.LegislatureNumber)
	}
	for _, v := range split.Votes {
		referenced = append(referenced, v.LegislatureNumber)
	}

	return model.Tables{
		Legislatures: normalize.ImpliedLegislatures(legislatures, referenced...),
		Sessions:     sessions,
		People:       fetched.Curated.People,
		Members:      members,
		Bills:        bills,
		Votes:        split.Votes,
		Choices:      split.Choices,
	}, nil
}

// Ingest plans, fetches, resolves and appends one run worth of rows.
func (p *Pipeline) Ingest(ctx context.Context) (ingest.Report, error) {
	plan, err := p.PlanFor(ctx)
	if err != nil {
		return ingest.Report{}, fmt.Errorf("plan: %w", err)
	}
	p.tel.ReportDebug("ingest plan", plan.Sessions, plan.Bills, plan.Votes)

	fetched, err := p.Fetch(ctx, plan)
	if err != nil {
		return ingest.Report{}, err
	}
	tables, err := p.Resolve(ctx, fetched)
	if err != nil {
		return ingest.Report{}, err
	}
	return ingest.Ingest(ctx, p.ingestor, tables)
}

// BackfillVersions fetches the text of bill versions that are missing or may have changed, it
// does nothing without a version source.
func (p *Pipeline) BackfillVersions(ctx context.Context) (ingest.Result, error) {
	if p.versions == nil {
		p.tel.ReportDebug("no version source, skipping bill versions")
		return ingest.Result{Table: store.BillVersions.Name}, nil
	}
	return ingest.BackfillVersions(ctx, p.ingestor, p.versions, p.options.Backfill)
}

func (p *Pipeline) Export(ctx context.Context) (export.Manifest, error) {
	return p.exporter.Export(ctx, p.options.ExportDir)
}

// Publish pushes the export directory to the branch and uploads it when an uploader is configured.
func (p *Pipeline) Publish(ctx context.Context, branch string) error {
	if p.publisher != nil {
		err := p.publisher.Push(ctx, p.options.ExportDir, branch)
		if err != nil {
			return err
		}
	}
	if p.uploader != nil {
		keys, err := p.uploader.Upload(ctx, p.options.ExportDir, branch)
		if err != nil {
			return err
		}
		p.tel.ReportDebug("uploaded export", branch, len(keys))
	}
	return nil
}

// StageError names the stage a batch failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		p.tel.ReportBroken(report_pipeline_stage, err, name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

// Run summarizes a batch.
type Run struct {
	Id       string
	Branch   string
	Start    time.Time
	Ingest   ingest.Report
	Versions ingest.Result
	Manifest export.Manifest
}

// Batch runs every stage in order and publishes the export to branch. On failure the notifier is
// told which stage broke, metrics are pushed either way.
func (p *Pipeline) Batch(ctx context.Context, branch string) (Run, error) {
	run := Run{
		Id:     uuid.NewString(),
		Branch: branch,
		Start:  p.clock.Now(),
	}
	ctx, span := tracer.Start(ctx, "Batch")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", run.Id), attribute.String("branch", branch))

	err := p.batch(ctx, &run)

	p.metrics.MarkRun(p.clock.Now(), err)
	pushErr := p.metrics.Push(ctx, p.options.Push)
	if pushErr != nil {
		p.tel.ReportWarning(report_pipeline_metrics, pushErr)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.notifyFailure(ctx, run, err)
		return run, err
	}
	p.tel.ReportDebug("batch finished", run.Id, run.Ingest.Inserted(), run.Versions.New)
	return run, nil
}

func (p *Pipeline) batch(ctx context.Context, run *Run) error {
	err := p.stage(ctx, StageIngest, func(ctx context.Context) error {
		var err error
		run.Ingest, err = p.Ingest(ctx)
		return err
	})
	if err != nil {
		return err
	}
	err = p.stage(ctx, StageVersions, func(ctx context.Context) error {
		var err error
		run.Versions, err = p.BackfillVersions(ctx)
		return err
	})
	if err != nil {
		return err
	}
	err = p.stage(ctx, StageExport, func(ctx context.Context) error {
		var err error
		run.Manifest, err = p.Export(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return p.stage(ctx, StagePublish, func(ctx context.Context) error {
		return p.Publish(ctx, run.Branch)
	})
}

func (p *Pipeline) notifyFailure(ctx context.Context, run Run, err error) {
	if p.notifier == nil {
		return
	}
	failure := notify.Failure{
		RunId:  run.Id,
		Branch: run.Branch,
		Stage:  "unknown",
		Start:  run.Start,
		Err:    err,
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		failure.Stage = stageErr.Stage
		failure.Err = stageErr.Err
	}
	notifyErr := p.notifier.NotifyFailure(ctx, failure)
	if notifyErr != nil {
		p.tel.ReportBroken(report_pipeline_notify, notifyErr, run.Id)
	}
}
