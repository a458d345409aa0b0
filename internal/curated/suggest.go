package curated

import (
	"fmt"
	"sort"
	"strings"

	"akleg-data/internal/model"
	"akleg-data/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Suggestion proposes a person for a scraped member that members_10_plus does not map yet.
type Suggestion struct {
	LegislatureNumber int16
	MemberCode        string
	ScrapedName       string
	// empty if no person is similar at all
	PersonId    string
	Correlation float64
}

func scrapedName(m model.ScrapedMember) string {
	if m.FirstName.Valid || m.LastName.Valid {
		return strings.TrimSpace(m.FirstName.String + " " + m.LastName.String)
	}
	if m.FormalName.Valid {
		return m.FormalName.String
	}
	return m.ShortName.String
}

func mappingKey(leg int16, code string) string {
	return fmt.Sprintf("%d:%s", leg, code)
}

// Suggest lists the scraped members in legislatures 10+ that are missing from members_10_plus, each
// paired with the person whose name is the most similar.
func Suggest(snapshot Snapshot, scraped []model.ScrapedMember) []Suggestion {
	mapped := make(map[string]struct{}, len(snapshot.Members10Plus))
	for _, m := range snapshot.Members10Plus {
		mapped[mappingKey(m.LegislatureNumber, m.MemberCode)] = struct{}{}
	}

	names := make([]string, len(snapshot.People))
	for i, p := range snapshot.People {
		names[i] = textutil.NormalizeName(p.FirstName + " " + p.LastName)
	}

	var out []Suggestion
	for _, m := range scraped {
		if m.LegislatureNumber < 10 || !m.MemberCode.Valid {
			continue
		}
		if _, ok := mapped[mappingKey(m.LegislatureNumber, m.MemberCode.String)]; ok {
			continue
		}

		suggestion := Suggestion{
			LegislatureNumber: m.LegislatureNumber,
			MemberCode:        m.MemberCode.String,
			ScrapedName:       scrapedName(m),
		}
		target := textutil.NormalizeName(suggestion.ScrapedName)
		for i, name := range names {
			if name == target {
				suggestion.PersonId = snapshot.People[i].PersonId
				suggestion.Correlation = 1
				break
			}
			similarity := matchr.JaroWinkler(target, name, false)
			if similarity > suggestion.Correlation {
				suggestion.Correlation = similarity
				suggestion.PersonId = snapshot.People[i].PersonId
			}
		}
		out = append(out, suggestion)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LegislatureNumber != out[j].LegislatureNumber {
			return out[i].LegislatureNumber < out[j].LegislatureNumber
		}
		return out[i].MemberCode < out[j].MemberCode
	})
	return out
}
