package resolve

import (
	"errors"
	"testing"

	"akleg-data/internal/curated"
	"akleg-data/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func requireViolation(t *testing.T, err error, check string) *IntegrityViolation {
	t.Helper()
	var violation *IntegrityViolation
	require.True(t, errors.As(err, &violation), "expected an integrity violation, got %v", err)
	require.Equal(t, check, violation.Check)
	return violation
}

func TestParseAmendmentNumber(t *testing.T) {
	testCases := []struct {
		title    string
		expected string
	}{
		{"Amendment No. 1", "1.0"},
		{"Amendment No. 2 to Amendment No. 3", "3.2"},
		{"Amendment to Amendment No. 3", "3.1"},
		{"HB 69 Third Reading Amendment No. 12", "12.0"},
		{"amendment no.4", "4.0"},
		{"Senate read the bill", ""},
		{"", ""},
		{"Amendment No. 10 to Amendment No. 1", ""},
		{"Amendment No. 3 Failed", ""},
		{"Amendment No. 2 to Amendment No. 3 ", "3.2"},
	}

	for _, test := range testCases {
		t.Run(test.title, func(t *testing.T) {
			require.Equal(t, test.expected, ParseAmendmentNumber(test.title).String())
		})
	}

	require.False(t, ParseAmendmentNumber("Senate read the bill").Valid)
}

func TestParseVoteNum(t *testing.T) {
	chamber, number, err := ParseVoteNum("H0026")
	require.NoError(t, err)
	require.Equal(t, "H", chamber)
	require.Equal(t, uint16(26), number)

	_, _, err = ParseVoteNum("X12")
	require.Error(t, err)
	_, _, err = ParseVoteNum("S99999")
	require.Error(t, err)
}

func janeDoe() ([]model.ScrapedMember, curated.Snapshot) {
	scraped := []model.ScrapedMember{{
		LegislatureNumber: 31,
		MemberCode:        model.String("ABC"),
		MemberFields: model.MemberFields{
			Chamber:  model.String("H"),
			District: model.String("5"),
		},
	}}
	snapshot := curated.Snapshot{
		Members10Plus: []model.MemberMapping{
			{LegislatureNumber: 31, MemberCode: "ABC", PersonId: "Jane Doe:31"},
		},
	}
	return scraped, snapshot
}

func TestMergeMembers(t *testing.T) {
	t.Run("end to end", func(t *testing.T) {
		scraped, snapshot := janeDoe()
		members, err := MergeMembers(scraped, snapshot)
		require.NoError(t, err)
		require.Len(t, members, 1)
		require.Equal(t, "31:H:5:Jane Doe:31", members[0].MemberId)
		require.Equal(t, "Jane Doe:31", members[0].PersonId)
	})

	t.Run("chamber switch", func(t *testing.T) {
		scraped, snapshot := janeDoe()
		scraped = append(scraped, model.ScrapedMember{
			LegislatureNumber: 31,
			MemberCode:        model.String("DOE"),
			MemberFields: model.MemberFields{
				Chamber:  model.String("S"),
				District: model.String("C"),
			},
		})
		snapshot.Members10Plus = append(snapshot.Members10Plus, model.MemberMapping{
			LegislatureNumber: 31, MemberCode: "DOE", PersonId: "Jane Doe:31",
		})

		members, err := MergeMembers(scraped, snapshot)
		require.NoError(t, err)
		ids := []string{members[0].MemberId, members[1].MemberId}
		require.Equal(t, []string{"31:H:5:Jane Doe:31", "31:S:C:Jane Doe:31"}, ids)
	})

	t.Run("chamber switch without district", func(t *testing.T) {
		snapshot := curated.Snapshot{
			Members1To9: []model.CuratedMember{
				{LegislatureNumber: 3, PersonId: "P:3", MemberFields: model.MemberFields{Chamber: model.String("S")}},
				{LegislatureNumber: 3, PersonId: "P:3", MemberFields: model.MemberFields{Chamber: model.String("H")}},
			},
		}

		members, err := MergeMembers(nil, snapshot)
		require.NoError(t, err)
		require.Len(t, members, 2)
		require.Equal(t, "3:H::P:3", members[0].MemberId)
		require.Equal(t, "3:S::P:3", members[1].MemberId)
		require.False(t, members[0].District.Valid)
		require.Equal(t, members[0].PersonId, members[1].PersonId)
	})

	t.Run("historic roster", func(t *testing.T) {
		scraped, snapshot := janeDoe()
		snapshot.Members1To9 = []model.CuratedMember{
			{LegislatureNumber: 3, PersonId: "Mike Miller:3", MemberFields: model.MemberFields{Chamber: model.String("H")}},
			// already reported by the api
			{LegislatureNumber: 31, PersonId: "Jane Doe:31", MemberFields: model.MemberFields{Chamber: model.String("H")}},
		}

		members, err := MergeMembers(scraped, snapshot)
		require.NoError(t, err)
		require.Len(t, members, 2)
		require.Equal(t, "3:H::Mike Miller:3", members[0].MemberId)
		require.Equal(t, "31:H:5:Jane Doe:31", members[1].MemberId)
	})

	t.Run("unmapped", func(t *testing.T) {
		scraped, snapshot := janeDoe()
		snapshot.Members10Plus = nil
		_, err := MergeMembers(scraped, snapshot)
		violation := requireViolation(t, err, CheckUnmappedMember)
		require.Equal(t, []string{"31:ABC"}, violation.Keys)
	})

	t.Run("ambiguous", func(t *testing.T) {
		scraped, snapshot := janeDoe()
		snapshot.Members10Plus = append(snapshot.Members10Plus, model.MemberMapping{
			LegislatureNumber: 31, MemberCode: "ABC", PersonId: "John Doe:31",
		})
		_, err := MergeMembers(scraped, snapshot)
		requireViolation(t, err, CheckAmbiguousMemberMapping)
	})

	t.Run("duplicate scraped", func(t *testing.T) {
		scraped, snapshot := janeDoe()
		scraped = append(scraped, scraped[0])
		_, err := MergeMembers(scraped, snapshot)
		requireViolation(t, err, CheckDuplicateScrapedMember)
	})

	t.Run("duplicate member id", func(t *testing.T) {
		scraped, snapshot := janeDoe()
		scraped = append(scraped, model.ScrapedMember{
			LegislatureNumber: 31,
			MemberCode:        model.String("XYZ"),
			MemberFields:      scraped[0].MemberFields,
		})
		snapshot.Members10Plus = append(snapshot.Members10Plus, model.MemberMapping{
			LegislatureNumber: 31, MemberCode: "XYZ", PersonId: "Jane Doe:31",
		})
		_, err := MergeMembers(scraped, snapshot)
		violation := requireViolation(t, err, CheckDuplicateMemberId)
		require.Equal(t, []string{"31:H:5:Jane Doe:31"}, violation.Keys)
	})
}

func TestResolveBills(t *testing.T) {
	bills, err := ResolveBills([]model.ScrapedBill{
		{LegislatureNumber: model.Int16(31), BillNumber: model.String("SB 2")},
		{LegislatureNumber: model.Int16(31), BillNumber: model.String("HB 1"), BillFields: model.BillFields{ShortTitle: model.String("FISH")}},
	})
	require.NoError(t, err)
	diff := cmp.Diff([]model.Bill{
		{BillId: "31:HB 1", LegislatureNumber: 31, BillNumber: "HB 1", BillFields: model.BillFields{ShortTitle: model.String("FISH")}},
		{BillId: "31:SB 2", LegislatureNumber: 31, BillNumber: "SB 2"},
	}, bills)
	require.Empty(t, diff)

	_, err = ResolveBills([]model.ScrapedBill{{BillNumber: model.String("HB 1")}})
	requireViolation(t, err, CheckNullBillKey)

	_, err = ResolveBills([]model.ScrapedBill{
		{LegislatureNumber: model.Int16(31), BillNumber: model.String("HB 1")},
		{LegislatureNumber: model.Int16(31), BillNumber: model.String("HB 1")},
	})
	requireViolation(t, err, CheckDuplicateBillId)
}

func splitFixture(t *testing.T) ([]model.Bill, []model.Member) {
	scraped, snapshot := janeDoe()
	members, err := MergeMembers(scraped, snapshot)
	require.NoError(t, err)
	bills, err := ResolveBills([]model.ScrapedBill{
		{LegislatureNumber: model.Int16(31), BillNumber: model.String("HB 1")},
	})
	require.NoError(t, err)
	return bills, members
}

func rawChoice(voteNum, code, choice string) model.RawChoice {
	r := model.RawChoice{
		LegislatureNumber: model.Int16(31),
		VoteNum:           model.String(voteNum),
		VoteDate:          model.NewDate(2019, 3, 4),
		VoteTitle:         model.String("Amendment No. 2"),
		BillNumber:        model.String("HB 1"),
		Choice:            model.String(choice),
	}
	if code != "" {
		r.MemberCode = model.String(code)
	}
	return r
}

func TestSplitChoices(t *testing.T) {
	bills, members := splitFixture(t)

	split, err := SplitChoices([]model.RawChoice{
		rawChoice("H0026", "ABC", "Y"),
		rawChoice("H0026", "ABC", "Y"),
		rawChoice("H0003", "", "Y"),
		rawChoice("H0003", "ABC", "N"),
	}, bills, members)
	require.NoError(t, err)

	require.Equal(t, 1, split.WithoutMember)
	require.Len(t, split.Votes, 2)
	require.Equal(t, "31:H:3", split.Votes[0].VoteId)
	require.Equal(t, "31:H:26", split.Votes[1].VoteId)
	require.Equal(t, model.String("31:HB 1"), split.Votes[1].BillId)
	require.Equal(t, "2.0", split.Votes[1].AmendmentNumber.String())

	diff := cmp.Diff([]model.Choice{
		{ChoiceId: "31:H:26:H:5:Jane Doe:31", VoteId: "31:H:26", MemberId: "31:H:5:Jane Doe:31", Choice: model.String("Y")},
		{ChoiceId: "31:H:3:H:5:Jane Doe:31", VoteId: "31:H:3", MemberId: "31:H:5:Jane Doe:31", Choice: model.String("N")},
	}, split.Choices)
	require.Empty(t, diff)
}

func TestSplitChoicesClosure(t *testing.T) {
	bills, members := splitFixture(t)

	orphanBill := rawChoice("H0001", "ABC", "Y")
	orphanBill.BillNumber = model.String("HB 404")
	_, err := SplitChoices([]model.RawChoice{orphanBill}, bills, members)
	requireViolation(t, err, CheckOrphanBill)

	_, err = SplitChoices([]model.RawChoice{rawChoice("H0001", "ZZZ", "Y")}, bills, members)
	violation := requireViolation(t, err, CheckOrphanMember)
	require.Equal(t, []string{"31:ZZZ"}, violation.Keys)

	_, err = SplitChoices([]model.RawChoice{rawChoice("bogus", "ABC", "Y")}, bills, members)
	requireViolation(t, err, CheckInvalidVoteKey)

	retitled := rawChoice("H0001", "ABC", "Y")
	retitled.VoteTitle = model.String("something else")
	_, err = SplitChoices([]model.RawChoice{rawChoice("H0001", "ABC", "Y"), retitled}, bills, members)
	requireViolation(t, err, CheckDuplicateVoteId)

	_, err = SplitChoices([]model.RawChoice{rawChoice("H0001", "ABC", "Y"), rawChoice("H0001", "ABC", "N")}, bills, members)
	requireViolation(t, err, CheckDuplicateChoiceId)

	_, err = SplitChoices(nil, append(bills, bills[0]), members)
	requireViolation(t, err, CheckDuplicateBillLookup)
}

func TestIntegrityViolationError(t *testing.T) {
	keys := make([]string, 25)
	for i := range keys {
		keys[i] = string(rune('a' + i))
	}
	err := Violation(CheckOrphanBill, "orphans", keys)
	require.Contains(t, err.Error(), "(+5 more)")
	require.Contains(t, err.Error(), "[orphan-bill-reference]")
	require.NoError(t, Violation(CheckOrphanBill, "orphans", nil))
}
