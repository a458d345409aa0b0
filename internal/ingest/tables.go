package ingest

import (
	"context"

	"akleg-data/internal/model"
	"akleg-data/internal/resolve"
	"akleg-data/internal/store"
)

// CheckDuplicateKey is reported when a fresh table other than members repeats a primary key.
const CheckDuplicateKey = "duplicate-key"

// Report lists the result of every table, in the order they were ingested.
type Report struct {
	Results []Result
}

func (r Report) Inserted() int {
	n := 0
	for _, res := range r.Results {
		n += res.New
	}
	return n
}

func (r Report) Get(table string) Result {
	for _, res := range r.Results {
		if res.Table == table {
			return res
		}
	}
	return Result{Table: table}
}

// membersHavePeople requires every member to reference a stored person, people must be committed
// before members are checked.
func membersHavePeople(ctx context.Context, s *store.Store, diff Diff[model.Member]) error {
	people, err := store.ExistingKeys(ctx, s, store.People)
	if err != nil {
		return err
	}
	var missing []string
	for _, m := range diff.Fresh {
		if _, ok := people[m.PersonId]; !ok {
			missing = append(missing, m.PersonId)
		}
	}
	return resolve.Violation(resolve.CheckMissingPerson, "members reference people that are not stored", missing)
}

// Ingest applies every table in dependency order, each table is committed before the next one is
// checked. An error leaves the tables before it committed.
func Ingest(ctx context.Context, in *Ingestor, tables model.Tables) (Report, error) {
	var report Report
	add := func(res Result, err error) error {
		if err != nil {
			return err
		}
		report.Results = append(report.Results, res)
		return nil
	}

	// people have no parent and are checked against the curated source before anything is written
	err := add(DiffAndAppend(ctx, in, store.People, tables.People,
		UniqueKeys(store.People, CheckDuplicateKey),
		NoRetractions(store.People, resolve.CheckPersonRegression),
	))
	if err != nil {
		return report, err
	}
	err = add(DiffAndAppend(ctx, in, store.Legislatures, tables.Legislatures,
		UniqueKeys(store.Legislatures, CheckDuplicateKey),
	))
	if err != nil {
		return report, err
	}
	err = add(DiffAndAppend(ctx, in, store.Sessions, tables.Sessions,
		UniqueKeys(store.Sessions, CheckDuplicateKey),
	))
	if err != nil {
		return report, err
	}
	err = add(DiffAndAppend(ctx, in, store.Members, tables.Members,
		UniqueKeys(store.Members, resolve.CheckDuplicateNewMember),
		NoRetractions(store.Members, resolve.CheckMemberRetracted),
		membersHavePeople,
	))
	if err != nil {
		return report, err
	}
	err = add(DiffAndAppend(ctx, in, store.Bills, tables.Bills,
		UniqueKeys(store.Bills, CheckDuplicateKey),
	))
	if err != nil {
		return report, err
	}
	err = add(DiffAndAppend(ctx, in, store.Votes, tables.Votes,
		UniqueKeys(store.Votes, CheckDuplicateKey),
	))
	if err != nil {
		return report, err
	}
	err = add(DiffAndAppend(ctx, in, store.Choices, tables.Choices,
		UniqueKeys(store.Choices, CheckDuplicateKey),
	))
	return report, err
}
