package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"akleg-data/internal/model"
	"akleg-data/internal/store"

	"golang.org/x/sync/errgroup"
)

const DefaultVersionChunkSize = 50

// VersionInfo is one version of a bill as listed by the basis api.
type VersionInfo struct {
	Letter string
	Title  sql.NullString
}

type VersionSource interface {
	VersionLetters(ctx context.Context, leg int16, billNumber string) ([]VersionInfo, error)
	// VersionText returns the text of a version with line numbers removed.
	VersionText(ctx context.Context, leg int16, billNumber, letter string) (string, error)
}

type BackfillOptions struct {
	ChunkSize int
	// concurrent bills per chunk
	Concurrency int
}

func (o BackfillOptions) withDefaults() BackfillOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultVersionChunkSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

func (in *Ingestor) billVersions(
	ctx context.Context,
	source VersionSource,
	bill store.BillRef,
	stored map[string]struct{},
) ([]model.BillVersion, error) {
	infos, err := source.VersionLetters(ctx, bill.LegislatureNumber, bill.BillNumber)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", bill.BillId, err)
	}

	seen := map[string]struct{}{}
	var out []model.BillVersion
	for _, info := range infos {
		id := model.BillVersionId(bill.BillId, info.Letter)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := stored[id]; ok {
			continue
		}

		text, err := source.VersionText(ctx, bill.LegislatureNumber, bill.BillNumber, info.Letter)
		if err != nil {
			return nil, fmt.Errorf("text of %s: %w", id, err)
		}
		out = append(out, model.BillVersion{
			BillVersionId:     id,
			BillId:            bill.BillId,
			LegislatureNumber: bill.LegislatureNumber,
			BillNumber:        bill.BillNumber,
			VersionLetter:     info.Letter,
			Title:             info.Title,
			Text:              text,
		})
	}
	return out, nil
}

// BackfillVersions fetches the versions of every candidate bill, see store.VersionCandidates. Bills
// are processed in chunks and each chunk is committed on its own, so a failure keeps the progress of
// the chunks before it.
func BackfillVersions(ctx context.Context, in *Ingestor, source VersionSource, opts BackfillOptions) (Result, error) {
	opts = opts.withDefaults()

	candidates, err := in.Store.VersionCandidates(ctx)
	if err != nil {
		return Result{}, err
	}
	in.tel.ReportDebug("bill version candidates", len(candidates))

	total := Result{Table: store.BillVersions.Name}
	for start := 0; start < len(candidates); start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, len(candidates))
		chunk := candidates[start:end]

		stored, err := store.ExistingKeys(ctx, in.Store, store.BillVersions)
		if err != nil {
			return total, err
		}

		perBill := make([][]model.BillVersion, len(chunk))
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(opts.Concurrency)
		for i, bill := range chunk {
			group.Go(func() error {
				versions, err := in.billVersions(groupCtx, source, bill, stored)
				if err != nil {
					return err
				}
				perBill[i] = versions
				return nil
			})
		}
		err = group.Wait()
		if err != nil {
			in.tel.ReportBroken(report_ingest_diff, err, "bill_versions", start)
			return total, fmt.Errorf("backfill versions chunk %d-%d: %w", start, end, err)
		}

		var fresh []model.BillVersion
		for _, versions := range perBill {
			fresh = append(fresh, versions...)
		}
		res, err := DiffAndAppend(ctx, in, store.BillVersions, fresh,
			UniqueKeys(store.BillVersions, CheckDuplicateKey),
		)
		if err != nil {
			return total, err
		}
		total.New += res.New
		total.Existing += res.Existing
		in.tel.ReportDebug("bill version chunk committed", start, end, res.New)
	}
	return total, nil
}
