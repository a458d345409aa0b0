// Package ingest appends freshly resolved rows to the store. Stored rows are never updated: every
// table is diffed by primary key and only the rows that are not stored yet are inserted, after the
// checks of that table pass.
package ingest

import (
	"context"
	"fmt"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/metrics"
	"akleg-data/internal/resolve"
	"akleg-data/internal/store"
)

const (
	report_ingest_diff   = "ingest.diff"
	report_ingest_check  = "ingest.check"
	report_ingest_insert = "ingest.insert"
)

type Ingestor struct {
	Store *store.Store

	tel     telemetry.API
	metrics *metrics.Metrics
}

// NewIngestor creates an ingestor, m may be nil.
func NewIngestor(s *store.Store, tel telemetry.API, m *metrics.Metrics) *Ingestor {
	assert.NotNil(s)
	assert.NotNil(tel)
	return &Ingestor{
		Store:   s,
		tel:     telemetry.NewScopedAPI("ingest", tel),
		metrics: m,
	}
}

// Result is the outcome of diffing one table.
type Result struct {
	Table    string
	Existing int
	New      int
}

// Diff is what a check sees of a table before anything is inserted.
type Diff[T any] struct {
	// primary keys of every stored row
	Stored   map[string]struct{}
	Fresh    []T
	Existing []T
	New      []T
}

// Check inspects a diff before it is applied, returning an error aborts the insert.
type Check[T any] func(ctx context.Context, s *store.Store, diff Diff[T]) error

// DiffAndAppend splits fresh into rows that are already stored and new rows, runs the checks and
// inserts the new rows in a single transaction.
func DiffAndAppend[T any](
	ctx context.Context,
	in *Ingestor,
	table store.Table[T],
	fresh []T,
	checks ...Check[T],
) (Result, error) {
	stored, err := store.ExistingKeys(ctx, in.Store, table)
	if err != nil {
		in.tel.ReportBroken(report_ingest_diff, err, table.Name)
		return Result{}, err
	}

	diff := Diff[T]{Stored: stored, Fresh: fresh}
	for _, row := range fresh {
		if _, ok := stored[table.Key(row)]; ok {
			diff.Existing = append(diff.Existing, row)
		} else {
			diff.New = append(diff.New, row)
		}
	}

	for _, check := range checks {
		err = check(ctx, in.Store, diff)
		if err != nil {
			in.tel.ReportBroken(report_ingest_check, err, table.Name)
			return Result{}, fmt.Errorf("ingest %s: %w", table.Name, err)
		}
	}

	err = store.InsertAll(ctx, in.Store, table, diff.New)
	if err != nil {
		in.tel.ReportBroken(report_ingest_insert, err, table.Name)
		return Result{}, fmt.Errorf("ingest %s: %w", table.Name, err)
	}

	result := Result{Table: table.Name, Existing: len(diff.Existing), New: len(diff.New)}
	in.tel.ReportDebug("ingested table", table.Name, result.Existing, result.New)
	in.tel.ReportCount(table.Name+".existing", int64(result.Existing))
	in.tel.ReportCount(table.Name+".new", int64(result.New))
	in.metrics.ObserveIngest(table.Name, result.Existing, result.New)
	return result, nil
}

// UniqueKeys rejects fresh rows that share a primary key.
func UniqueKeys[T any](table store.Table[T], check string) Check[T] {
	return func(_ context.Context, _ *store.Store, diff Diff[T]) error {
		keys := make([]string, len(diff.Fresh))
		for i, row := range diff.Fresh {
			keys[i] = table.Key(row)
		}
		return resolve.Violation(check, table.Name+" are not unique on their primary key", resolve.Duplicates(keys))
	}
}

// NoRetractions rejects a fresh set that is missing rows the store already has.
func NoRetractions[T any](table store.Table[T], check string) Check[T] {
	return func(_ context.Context, _ *store.Store, diff Diff[T]) error {
		fresh := make(map[string]struct{}, len(diff.Fresh))
		for _, row := range diff.Fresh {
			fresh[table.Key(row)] = struct{}{}
		}
		var retracted []string
		for key := range diff.Stored {
			if _, ok := fresh[key]; !ok {
				retracted = append(retracted, key)
			}
		}
		return resolve.Violation(check, "stored "+table.Name+" are missing from the fresh data", retracted)
	}
}
