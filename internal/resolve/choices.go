package resolve

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"akleg-data/internal/model"
)

// Split is the result of splitting raw choices into votes and choices.
type Split struct {
	Votes   []model.Vote
	Choices []model.Choice
	// raw rows that carried no member code, they contribute a vote but no choice
	WithoutMember int
}

var voteNumRegex = regexp.MustCompile(`^([HS])\s*(\d+)$`)

// ParseVoteNum splits a vote number like "H0026" into its chamber and roll call number.
func ParseVoteNum(voteNum string) (string, uint16, error) {
	groups := voteNumRegex.FindStringSubmatch(voteNum)
	if groups == nil {
		return "", 0, fmt.Errorf("unrecognized vote number %q", voteNum)
	}
	n, err := strconv.ParseUint(groups[2], 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("vote number %q: %w", voteNum, err)
	}
	return groups[1], uint16(n), nil
}

func buildBillLookup(bills []model.Bill) (map[string]string, error) {
	lookup := make(map[string]string, len(bills))
	var dupes []string
	for _, b := range bills {
		key := legCode(b.LegislatureNumber, b.BillNumber)
		if _, ok := lookup[key]; ok {
			dupes = append(dupes, key)
		}
		lookup[key] = b.BillId
	}
	return lookup, Violation(CheckDuplicateBillLookup, "bills are not unique on (legislature, bill number)", dupes)
}

func buildMemberLookup(members []model.Member) (map[string]string, error) {
	lookup := make(map[string]string, len(members))
	var dupes []string
	for _, m := range members {
		if !m.MemberCode.Valid {
			continue
		}
		key := legCode(m.LegislatureNumber, m.MemberCode.String)
		if _, ok := lookup[key]; ok {
			dupes = append(dupes, key)
		}
		lookup[key] = m.MemberId
	}
	return lookup, Violation(CheckDuplicateMemberLookup, "members are not unique on (legislature, code)", dupes)
}

func sameVote(a, b model.Vote) bool {
	return a.VoteDate.String() == b.VoteDate.String() &&
		a.VoteTitle == b.VoteTitle &&
		a.BillId == b.BillId &&
		a.AmendmentNumber == b.AmendmentNumber
}

// SplitChoices turns the flat rows reported per member into distinct votes and choices. Bills and
// members must already be resolved, every raw row has to reference a bill and member that exist.
func SplitChoices(raw []model.RawChoice, bills []model.Bill, members []model.Member) (Split, error) {
	billLookup, err := buildBillLookup(bills)
	if err != nil {
		return Split{}, err
	}
	memberLookup, err := buildMemberLookup(members)
	if err != nil {
		return Split{}, err
	}

	var (
		invalidKeys, orphanBills, orphanMembers []string
		conflictingVotes, conflictingChoices    []string

		withoutMember int
		votes         = map[string]model.Vote{}
		choices       = map[string]model.Choice{}
	)

	for i, r := range raw {
		if !r.LegislatureNumber.Valid || !r.VoteNum.Valid {
			invalidKeys = append(invalidKeys, fmt.Sprintf("#%d", i))
			continue
		}
		leg := r.LegislatureNumber.Int16
		chamber, number, err := ParseVoteNum(r.VoteNum.String)
		if err != nil {
			invalidKeys = append(invalidKeys, fmt.Sprintf("#%d (%s)", i, r.VoteNum.String))
			continue
		}

		vote := model.Vote{
			VoteId:            model.VoteId(leg, chamber, number),
			LegislatureNumber: leg,
			VoteChamber:       chamber,
			VoteNumber:        number,
			VoteDate:          r.VoteDate,
			VoteTitle:         r.VoteTitle.String,
			AmendmentNumber:   ParseAmendmentNumber(r.VoteTitle.String),
		}
		if r.BillNumber.Valid {
			billId, ok := billLookup[legCode(leg, r.BillNumber.String)]
			if !ok {
				orphanBills = append(orphanBills, legCode(leg, r.BillNumber.String))
				continue
			}
			vote.BillId = model.String(billId)
		}

		if existing, ok := votes[vote.VoteId]; ok {
			if !sameVote(existing, vote) {
				conflictingVotes = append(conflictingVotes, vote.VoteId)
			}
		} else {
			votes[vote.VoteId] = vote
		}

		if !r.MemberCode.Valid {
			withoutMember++
			continue
		}
		memberId, ok := memberLookup[legCode(leg, r.MemberCode.String)]
		if !ok {
			orphanMembers = append(orphanMembers, legCode(leg, r.MemberCode.String))
			continue
		}

		choice := model.Choice{
			ChoiceId: model.ChoiceId(vote.VoteId, memberId),
			VoteId:   vote.VoteId,
			MemberId: memberId,
			Choice:   r.Choice,
		}
		if existing, ok := choices[choice.ChoiceId]; ok {
			if existing != choice {
				conflictingChoices = append(conflictingChoices, choice.ChoiceId)
			}
			continue
		}
		choices[choice.ChoiceId] = choice
	}

	checks := []error{
		Violation(CheckInvalidVoteKey, "raw choices without a legislature or a parsable vote number", invalidKeys),
		Violation(CheckOrphanBill, "raw choices reference bills that do not exist", orphanBills),
		Violation(CheckOrphanMember, "raw choices reference members that do not exist", orphanMembers),
		Violation(CheckDuplicateVoteId, "raw choices disagree on the attributes of a vote", conflictingVotes),
		Violation(CheckDuplicateChoiceId, "raw choices disagree on the value of a choice", conflictingChoices),
	}
	for _, err := range checks {
		if err != nil {
			return Split{}, err
		}
	}

	split := Split{
		Votes:         make([]model.Vote, 0, len(votes)),
		Choices:       make([]model.Choice, 0, len(choices)),
		WithoutMember: withoutMember,
	}
	for _, v := range votes {
		split.Votes = append(split.Votes, v)
	}
	for _, c := range choices {
		split.Choices = append(split.Choices, c)
	}
	sort.Slice(split.Votes, func(i, j int) bool {
		a, b := split.Votes[i], split.Votes[j]
		if a.LegislatureNumber != b.LegislatureNumber {
			return a.LegislatureNumber < b.LegislatureNumber
		}
		if a.VoteChamber != b.VoteChamber {
			return a.VoteChamber < b.VoteChamber
		}
		return a.VoteNumber < b.VoteNumber
	})
	sort.Slice(split.Choices, func(i, j int) bool {
		return split.Choices[i].ChoiceId < split.Choices[j].ChoiceId
	})
	return split, nil
}
