package normalize

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"akleg-data/internal/basis"
	"akleg-data/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, payload string) []T {
	t.Helper()
	var rows []T
	require.NoError(t, json.Unmarshal([]byte(payload), &rows))
	return rows
}

func TestLegislatures(t *testing.T) {
	raw := decode[basis.RawSession](t, `[
		{"LegislatureNumber": 31, "Number": 31, "Year": "2019", "SessionDates": [
			{"ID": 10, "Title": " First Regular Session ", "StartDate": "/Date(1547546400000)/", "EndDate": "/Date(1558047600000)/"},
			{"ID": 11, "Title": "First Special Session", "StartDate": "/Date(1558306800000)/"},
			{"Title": "no id"}
		]},
		{"LegislatureNumber": 31, "Number": 31, "Year": 2019, "SessionDates": [
			{"ID": 10, "Title": "First Regular Session", "StartDate": "/Date(1547546400000)/", "EndDate": "/Date(1558047600000)/"}
		]},
		{"LegislatureNumber": 12, "Number": 12}
	]`)

	legislatures, sessions := Legislatures(raw)
	require.Equal(t, []model.Legislature{{Number: 31, StartYear: 2019, EndYear: 2020}}, legislatures)
	require.Len(t, sessions, 2)
	require.Equal(t, "31:10", sessions[0].SessionId)
	require.Equal(t, model.String("First Regular Session"), sessions[0].Title)
	require.Equal(t, "2019-01-15", sessions[0].StartDate.String())
	require.Equal(t, "31:11", sessions[1].SessionId)
	require.False(t, sessions[1].EndDate.Valid)
}

func TestMembers(t *testing.T) {
	raw := decode[basis.RawMember](t, `[
		{"LegislatureNumber": 31, "Code": "ABC", "FirstName": "Jane", "LastName": "Doe ", "Chamber": "H", "District": 5, "IsMajority": "true", "Comment": ""},
		{"LegislatureNumber": 31, "Code": "ABC", "FirstName": "Jane", "LastName": "Doe", "Chamber": "H", "District": "5", "IsMajority": true},
		{"LegislatureNumber": 32, "Code": "ABC", "Chamber": "S"}
	]`)

	members := Members(raw)
	require.Len(t, members, 2)
	expected := model.ScrapedMember{
		LegislatureNumber: 31,
		MemberCode:        model.String("ABC"),
		FirstName:         model.String("Jane"),
		LastName:          model.String("Doe"),
		MemberFields: model.MemberFields{
			Chamber:    model.String("H"),
			District:   model.String("5"),
			IsMajority: model.Bool(true),
		},
	}
	if diff := cmp.Diff(expected, members[0]); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, int16(32), members[1].LegislatureNumber)
}

func TestBills(t *testing.T) {
	raw := decode[basis.RawBill](t, `[
		{"LegislatureNumber": 31, "Session": 31, "BillNumber": "HB 1", "StatusDate": "2019-02-01", "Lock": "\u0000", "Flag2": 7, "Subjects": ["FISH"]},
		{"LegislatureNumber": 15, "BillNumber": "SB 2", "StatusDate": "Jul -10- 1", "Lock": "H", "Flag2": 300},
		{"LegislatureNumber": 31, "Session": 31, "BillNumber": "HB 1", "StatusDate": "2019-02-01", "Lock": "\u0000", "Flag2": "7", "Subjects": [ "FISH" ]}
	]`)

	bills := Bills(raw)
	require.Len(t, bills, 2)

	require.Equal(t, model.Int16(31), bills[0].LegislatureNumber)
	require.Equal(t, model.String("HB 1"), bills[0].BillNumber)
	require.Equal(t, model.NewDate(2019, time.February, 1), bills[0].StatusDate)
	require.False(t, bills[0].Lock.Valid)
	require.Equal(t, model.Int16(7), bills[0].Flag2)
	require.Equal(t, model.String(`["FISH"]`), bills[0].Subjects)

	// the requested legislature is used when the record has no session
	require.Equal(t, model.Int16(15), bills[1].LegislatureNumber)
	require.False(t, bills[1].StatusDate.Valid)
	require.Equal(t, model.String("H"), bills[1].Lock)
	require.Equal(t, sql.NullInt16{}, bills[1].Flag2)
}

func TestChoices(t *testing.T) {
	raw := decode[basis.RawVote](t, `[
		{"LegislatureNumber": 31, "Session": 31, "VoteNum": "H0026", "VoteDate": "2019-03-01T00:00:00", "Title": "Third Reading", "Bill": "HB 1", "Member": "ABC", "Vote": "Y"},
		{"LegislatureNumber": 31, "Session": 31, "VoteNum": "H0026", "VoteDate": "2019-03-01T00:00:00", "Title": "Third Reading ", "Bill": "HB 1", "Member": "ABC", "Vote": "Y"},
		{"LegislatureNumber": 19, "VoteNum": "S0001", "VoteDate": "-199- 0--0", "Title": "", "Member": "", "Vote": "N"}
	]`)

	choices := Choices(raw)
	expected := []model.RawChoice{
		{
			LegislatureNumber: model.Int16(31),
			VoteNum:           model.String("H0026"),
			VoteDate:          model.NewDate(2019, time.March, 1),
			VoteTitle:         model.String("Third Reading"),
			BillNumber:        model.String("HB 1"),
			MemberCode:        model.String("ABC"),
			Choice:            model.String("Y"),
		},
		{
			LegislatureNumber: model.Int16(19),
			VoteNum:           model.String("S0001"),
			Choice:            model.String("N"),
		},
	}
	if diff := cmp.Diff(expected, choices); diff != "" {
		t.Fatal(diff)
	}
}

func TestImpliedLegislatures(t *testing.T) {
	known := []model.Legislature{{Number: 31, StartYear: 2019, EndYear: 2020}}
	out := ImpliedLegislatures(known, 3, 31, 10, 3)
	expected := []model.Legislature{
		{Number: 3, StartYear: 1963, EndYear: 1964},
		{Number: 10, StartYear: 1977, EndYear: 1978},
		{Number: 31, StartYear: 2019, EndYear: 2020},
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, known, 1)
}
