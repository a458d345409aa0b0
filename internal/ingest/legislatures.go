package ingest

import (
	"sort"
	"time"

	"akleg-data/internal/model"
)

// minimum legislature fetched for each entity
const (
	MinBillLegislature    = 12
	MinVoteLegislature    = 19
	MinSessionLegislature = 12
)

// MissingLegislatures returns every legislature from minLeg to the current one that has not been
// ingested yet. The latest ingested legislature is always included since it may still be in session.
func MissingLegislatures(existing []int, minLeg int, now time.Time) []int {
	have := make(map[int]struct{}, len(existing))
	latest := 0
	for _, leg := range existing {
		have[leg] = struct{}{}
		if leg > latest {
			latest = leg
		}
	}

	var out []int
	current := model.LegislatureOf(now)
	for leg := minLeg; leg <= current; leg++ {
		if _, ok := have[leg]; ok && leg != latest {
			continue
		}
		out = append(out, leg)
	}
	if latest > 0 && (latest < minLeg || latest > current) {
		out = append(out, latest)
	}
	sort.Ints(out)
	return out
}
