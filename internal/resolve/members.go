// Package resolve assigns stable keys to members, bills, votes and choices, and rejects any state in
// which those keys would collide or dangle.
package resolve

import (
	"fmt"
	"sort"

	"akleg-data/internal/curated"
	"akleg-data/internal/model"
)

func legCode(leg int16, code string) string {
	return fmt.Sprintf("%d:%s", leg, code)
}

func legPerson(leg int16, personId string) string {
	return fmt.Sprintf("%d:%s", leg, personId)
}

// MergeMembers attaches a PersonId to every scraped member using the curated (legislature, code)
// mapping, then adds the curated roster of the legislatures the basis api does not cover.
//
// Every scraped member must map to exactly one person, and every resulting MemberId must be unique.
func MergeMembers(scraped []model.ScrapedMember, snapshot curated.Snapshot) ([]model.Member, error) {
	scrapedKeys := make([]string, len(scraped))
	for i, m := range scraped {
		scrapedKeys[i] = legCode(m.LegislatureNumber, m.MemberCode.String)
	}
	err := Violation(
		CheckDuplicateScrapedMember,
		"scraped members are not unique on (legislature, code)",
		duplicates(scrapedKeys),
	)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string][]string, len(snapshot.Members10Plus))
	for _, m := range snapshot.Members10Plus {
		key := legCode(m.LegislatureNumber, m.MemberCode)
		mapping[key] = append(mapping[key], m.PersonId)
	}

	var unmapped, ambiguous []string
	members := make([]model.Member, 0, len(scraped)+len(snapshot.Members1To9))
	joined := make(map[string]struct{}, len(scraped))
	for i, m := range scraped {
		people := mapping[scrapedKeys[i]]
		switch len(people) {
		case 0:
			unmapped = append(unmapped, scrapedKeys[i])
			continue
		case 1:
		default:
			ambiguous = append(ambiguous, scrapedKeys[i])
			continue
		}

		members = append(members, model.Member{
			LegislatureNumber: m.LegislatureNumber,
			PersonId:          people[0],
			MemberCode:        m.MemberCode,
			MemberFields:      m.MemberFields,
		})
		joined[legPerson(m.LegislatureNumber, people[0])] = struct{}{}
	}
	if err := Violation(CheckUnmappedMember, "scraped members without a curated person", unmapped); err != nil {
		return nil, err
	}
	if err := Violation(CheckAmbiguousMemberMapping, "scraped members mapped to several people", ambiguous); err != nil {
		return nil, err
	}

	// the older roster only fills in what the api does not report
	for _, m := range snapshot.Members1To9 {
		if _, ok := joined[legPerson(m.LegislatureNumber, m.PersonId)]; ok {
			continue
		}
		members = append(members, model.Member{
			LegislatureNumber: m.LegislatureNumber,
			PersonId:          m.PersonId,
			MemberCode:        m.MemberCode,
			MemberFields:      m.MemberFields,
		})
	}

	ids := make([]string, len(members))
	for i := range members {
		members[i].MemberId = model.MemberId(
			members[i].LegislatureNumber,
			members[i].Chamber,
			members[i].District,
			members[i].PersonId,
		)
		ids[i] = members[i].MemberId
	}
	err = Violation(CheckDuplicateMemberId, "member ids are not unique", duplicates(ids))
	if err != nil {
		return nil, err
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].LegislatureNumber != members[j].LegislatureNumber {
			return members[i].LegislatureNumber < members[j].LegislatureNumber
		}
		return members[i].MemberId < members[j].MemberId
	})
	return members, nil
}
