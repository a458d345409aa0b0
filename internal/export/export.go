// Package export writes every stored table to a directory as csv, parquet and a standalone sqlite
// database, the directory is what gets published.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/store"
	libtelemetry "akleg-data/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = libtelemetry.Tracer("akleg.internal.export")

const (
	report_exporter_table    = "exporter.table"
	report_exporter_snapshot = "exporter.snapshot"
)

const (
	ParquetDir   = "parquet"
	SnapshotFile = "ak_leg.db"
)

// Config is the "export" section of akleg.json5.
type Config struct {
	Dir string `json:"dir"`
}

// Artifact is one written file, Path is relative to the export directory.
type Artifact struct {
	Table  string
	Format string
	Path   string
	Rows   int
}

type Manifest struct {
	Dir       string
	Artifacts []Artifact
}

// Paths lists every artifact relative to the export directory.
func (m Manifest) Paths() []string {
	out := make([]string, len(m.Artifacts))
	for i, a := range m.Artifacts {
		out[i] = a.Path
	}
	return out
}

type Exporter struct {
	source *store.Store
	tel    telemetry.API
}

func NewExporter(source *store.Store, tel telemetry.API) *Exporter {
	assert.NotNil(source)
	assert.NotNil(tel)
	return &Exporter{
		source: source,
		tel:    telemetry.NewScopedAPI("export", tel),
	}
}

// Export recreates dir and writes every table into it.
func (e *Exporter) Export(ctx context.Context, dir string) (Manifest, error) {
	ctx, span := tracer.Start(ctx, "Export")
	defer span.End()
	span.SetAttributes(attribute.String("dir", dir))

	manifest, err := e.export(ctx, dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Manifest{}, err
	}
	return manifest, nil
}

func (e *Exporter) export(ctx context.Context, dir string) (Manifest, error) {
	if dir == "" {
		return Manifest{}, fmt.Errorf("export: no directory specified")
	}
	err := os.RemoveAll(dir)
	if err != nil {
		return Manifest{}, fmt.Errorf("export: clear %s: %w", dir, err)
	}
	err = os.MkdirAll(filepath.Join(dir, ParquetDir), 0755)
	if err != nil {
		return Manifest{}, fmt.Errorf("export: %w", err)
	}

	snapshot, err := store.Open(ctx, store.Config{
		Driver: store.DialectSqlite,
		File:   filepath.Join(dir, SnapshotFile),
	}, e.tel)
	if err != nil {
		e.tel.ReportBroken(report_exporter_snapshot, err)
		return Manifest{}, fmt.Errorf("export: open snapshot: %w", err)
	}
	defer snapshot.Close()

	x := exportRun{exporter: e, dir: dir, snapshot: snapshot, manifest: Manifest{Dir: dir}}
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return exportTable(ctx, &x, "legislatures", store.Legislatures) },
		func(ctx context.Context) error { return exportTable(ctx, &x, "sessions", store.Sessions) },
		func(ctx context.Context) error { return exportTable(ctx, &x, "people", store.People) },
		func(ctx context.Context) error { return exportTable(ctx, &x, "members", store.Members) },
		func(ctx context.Context) error { return exportTable(ctx, &x, "bills", store.Bills) },
		func(ctx context.Context) error { return exportTable(ctx, &x, "votes", store.Votes) },
		func(ctx context.Context) error { return exportTable(ctx, &x, "choices", store.Choices) },
		func(ctx context.Context) error { return exportTable(ctx, &x, "bill_versions", store.BillVersions) },
	}
	for _, step := range steps {
		err = step(ctx)
		if err != nil {
			return Manifest{}, err
		}
	}

	err = compact(ctx, snapshot)
	if err != nil {
		e.tel.ReportBroken(report_exporter_snapshot, err)
		return Manifest{}, fmt.Errorf("export: compact snapshot: %w", err)
	}
	x.manifest.Artifacts = append(x.manifest.Artifacts, Artifact{Format: "sqlite", Path: SnapshotFile})
	return x.manifest, nil
}

// compact folds the write ahead log back into the database file so the snapshot is a single file.
func compact(ctx context.Context, s *store.Store) error {
	for _, pragma := range []string{"PRAGMA wal_checkpoint(TRUNCATE)", "PRAGMA journal_mode = DELETE"} {
		_, err := s.DB.ExecContext(ctx, pragma)
		if err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

type exportRun struct {
	exporter *Exporter
	dir      string
	snapshot *store.Store
	manifest Manifest
}

func exportTable[T any](ctx context.Context, x *exportRun, name string, table store.Table[T]) error {
	ctx, span := tracer.Start(ctx, "exportTable")
	defer span.End()
	span.SetAttributes(attribute.String("table", table.Name))

	rows, err := store.ReadAll(ctx, x.exporter.source, table)
	if err != nil {
		x.exporter.tel.ReportBroken(report_exporter_table, err, table.Name)
		return fmt.Errorf("export %s: %w", table.Name, err)
	}

	var zero T
	header := table.Header()
	kinds := kindsOf(table.Values(zero))

	csvPath := name + ".csv"
	err = writeCsv(filepath.Join(x.dir, csvPath), header, kinds, rows, table.Values)
	if err != nil {
		x.exporter.tel.ReportBroken(report_exporter_table, err, table.Name, "csv")
		return fmt.Errorf("export %s csv: %w", table.Name, err)
	}

	parquetPath := filepath.Join(ParquetDir, name+".parquet")
	err = writeParquet(filepath.Join(x.dir, parquetPath), header, kinds, rows, table.Values)
	if err != nil {
		x.exporter.tel.ReportBroken(report_exporter_table, err, table.Name, "parquet")
		return fmt.Errorf("export %s parquet: %w", table.Name, err)
	}

	err = store.InsertAll(ctx, x.snapshot, table, rows)
	if err != nil {
		x.exporter.tel.ReportBroken(report_exporter_snapshot, err, table.Name)
		return fmt.Errorf("export %s snapshot: %w", table.Name, err)
	}

	x.manifest.Artifacts = append(x.manifest.Artifacts,
		Artifact{Table: table.Name, Format: "csv", Path: csvPath, Rows: len(rows)},
		Artifact{Table: table.Name, Format: "parquet", Path: parquetPath, Rows: len(rows)},
	)
	x.exporter.tel.ReportCount(report_exporter_table+"-"+name, int64(len(rows)))
	return nil
}

func cellsOf(values []any) []cell {
	out := make([]cell, len(values))
	for i, v := range values {
		out[i] = cellOf(v)
	}
	return out
}

func writeCsv[T any](path string, header []string, kinds []kind, rows []T, values func(T) []any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	err = w.Write(header)
	if err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, c := range cellsOf(values(row)) {
			record[i] = c.text(kinds[i])
		}
		err = w.Write(record)
		if err != nil {
			return err
		}
	}
	w.Flush()
	err = w.Error()
	if err != nil {
		return err
	}
	return f.Close()
}

func writeParquet[T any](path string, header []string, kinds []kind, rows []T, values func(T) []any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := newParquetWriter(header, kinds)
	for _, row := range rows {
		err = w.append(cellsOf(values(row)))
		if err != nil {
			return err
		}
	}
	return w.writeTo(f)
}
