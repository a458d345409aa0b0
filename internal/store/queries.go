package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// DistinctLegislatures returns the distinct legislature numbers present in a table, ascending.
func (s *Store) DistinctLegislatures(ctx context.Context, table string) ([]int, error) {
	values, err := s.queryStrings(ctx, fmt.Sprintf(
		"SELECT DISTINCT CAST(LegislatureNumber AS VARCHAR) FROM %s", table,
	))
	if err != nil {
		return nil, fmt.Errorf("distinct legislatures of %s: %w", table, err)
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("distinct legislatures of %s: %w", table, err)
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// BillRef identifies a stored bill.
type BillRef struct {
	BillId            string
	LegislatureNumber int16
	BillNumber        string
}

// VersionCandidates lists the bills whose versions should be (re)fetched: bills after the 25th
// legislature that are either in the latest legislature, which is still changing, or that have no
// version stored at all.
func (s *Store) VersionCandidates(ctx context.Context) ([]BillRef, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT BillId, LegislatureNumber, BillNumber
FROM bills
WHERE LegislatureNumber > 25 AND (
    LegislatureNumber >= (SELECT MAX(LegislatureNumber) FROM bills)
    OR BillId NOT IN (SELECT BillId FROM bill_versions)
)
ORDER BY BillId`)
	if err != nil {
		s.tel.ReportBroken(report_store_query, err, "version candidates")
		return nil, fmt.Errorf("version candidates: %w", err)
	}
	defer rows.Close()

	var out []BillRef
	for rows.Next() {
		var ref BillRef
		err = rows.Scan(&ref.BillId, &ref.LegislatureNumber, &ref.BillNumber)
		if err != nil {
			return nil, fmt.Errorf("version candidates: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// TableCounts returns the number of rows of every table.
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	var err error
	add := func(name string, n int64, e error) {
		if err == nil {
			err = e
		}
		counts[name] = n
	}
	n, e := Count(ctx, s, Legislatures)
	add(Legislatures.Name, n, e)
	n, e = Count(ctx, s, Sessions)
	add(Sessions.Name, n, e)
	n, e = Count(ctx, s, People)
	add(People.Name, n, e)
	n, e = Count(ctx, s, Members)
	add(Members.Name, n, e)
	n, e = Count(ctx, s, Bills)
	add(Bills.Name, n, e)
	n, e = Count(ctx, s, Votes)
	add(Votes.Name, n, e)
	n, e = Count(ctx, s, Choices)
	add(Choices.Name, n, e)
	n, e = Count(ctx, s, BillVersions)
	add(BillVersions.Name, n, e)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// TableNames lists every table in dependency order.
var TableNames = []string{
	Legislatures.Name,
	Sessions.Name,
	People.Name,
	Members.Name,
	Bills.Name,
	Votes.Name,
	Choices.Name,
	BillVersions.Name,
}
