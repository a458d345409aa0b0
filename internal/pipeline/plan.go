package pipeline

import (
	"context"
	"slices"

	"akleg-data/internal/ingest"
	"akleg-data/internal/model"
	"akleg-data/internal/store"
)

// the first legislature the members endpoint serves
const minMemberLegislature = 10

// Plan lists the legislatures each entity is fetched for in one run.
type Plan struct {
	Sessions []int
	// members are always fetched in full since stored members can never be retracted
	Members []int
	Bills   []int
	Votes   []int
}

func legislatureRange(from, to int) []int {
	var out []int
	for leg := from; leg <= to; leg++ {
		out = append(out, leg)
	}
	return out
}

func union(a, b []int) []int {
	out := slices.Concat(a, b)
	slices.Sort(out)
	return slices.Compact(out)
}

// PlanFor builds the plan of a run from what is already stored. Votes reference the bills of their
// legislature, so every vote legislature is also a bill legislature.
func (p *Pipeline) PlanFor(ctx context.Context) (Plan, error) {
	now := p.clock.Now()

	legislatures, err := p.store.DistinctLegislatures(ctx, store.Legislatures.Name)
	if err != nil {
		return Plan{}, err
	}
	bills, err := p.store.DistinctLegislatures(ctx, store.Bills.Name)
	if err != nil {
		return Plan{}, err
	}
	votes, err := p.store.DistinctLegislatures(ctx, store.Votes.Name)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Sessions: ingest.MissingLegislatures(legislatures, ingest.MinSessionLegislature, now),
		Votes:    ingest.MissingLegislatures(votes, ingest.MinVoteLegislature, now),
	}
	plan.Bills = union(ingest.MissingLegislatures(bills, ingest.MinBillLegislature, now), plan.Votes)

	last := model.LegislatureOf(now)
	if len(legislatures) > 0 {
		last = max(last, legislatures[len(legislatures)-1])
	}
	plan.Members = legislatureRange(minMemberLegislature, last)
	return plan, nil
}
