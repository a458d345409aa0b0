package store_test

import (
	"context"
	"testing"

	"akleg-data/internal/model"
	"akleg-data/internal/store"
	"akleg-data/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *store.Store) {
	ctx := context.Background()
	require.NoError(t, store.InsertAll(ctx, s, store.Legislatures, []model.Legislature{
		{Number: 26, StartYear: 2009, EndYear: 2010},
		{Number: 31, StartYear: 2019, EndYear: 2020},
	}))
	require.NoError(t, store.InsertAll(ctx, s, store.People, []model.Person{
		{PersonId: "Jane Doe:31", FullName: "Jane Doe", FirstName: "Jane", LastName: "Doe"},
	}))
	require.NoError(t, store.InsertAll(ctx, s, store.Members, []model.Member{{
		MemberId:          "31:H:5:Jane Doe:31",
		LegislatureNumber: 31,
		PersonId:          "Jane Doe:31",
		MemberCode:        model.String("ABC"),
		MemberFields: model.MemberFields{
			Chamber:    model.String("H"),
			District:   model.String("5"),
			IsMajority: model.Bool(true),
			Comment:    model.String("note"),
		},
	}}))
	require.NoError(t, store.InsertAll(ctx, s, store.Bills, []model.Bill{
		{BillId: "26:HB 1", LegislatureNumber: 26, BillNumber: "HB 1"},
		{
			BillId:            "31:HB 1",
			LegislatureNumber: 31,
			BillNumber:        "HB 1",
			BillFields: model.BillFields{
				StatusDate: model.NewDate(2019, 5, 1),
				Flag2:      model.Int16(3),
				Lock:       model.String("x"),
				Subjects:   model.String(`["FISH"]`),
			},
		},
	}))
	require.NoError(t, store.InsertAll(ctx, s, store.Votes, []model.Vote{
		{
			VoteId:            "31:H:26",
			LegislatureNumber: 31,
			VoteChamber:       "H",
			VoteNumber:        26,
			VoteDate:          model.NewDate(2019, 3, 4),
			VoteTitle:         "Amendment No. 2 to Amendment No. 3",
			BillId:            model.String("31:HB 1"),
			AmendmentNumber:   model.NewAmendmentNumber(3, 2),
		},
		{
			VoteId:            "31:H:27",
			LegislatureNumber: 31,
			VoteChamber:       "H",
			VoteNumber:        27,
			VoteTitle:         "Amendment No. 4",
			AmendmentNumber:   model.NewAmendmentNumber(4, 0),
		},
	}))
	require.NoError(t, store.InsertAll(ctx, s, store.Choices, []model.Choice{
		{ChoiceId: "31:H:26:H:5:Jane Doe:31", VoteId: "31:H:26", MemberId: "31:H:5:Jane Doe:31", Choice: model.String("Y")},
	}))
}

func TestRoundTrip(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{Name: "store"})
	ctx := context.Background()
	seed(t, res.Store)

	members, err := store.ReadAll(ctx, res.Store, store.Members)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, model.String("note"), members[0].Comment)
	require.Equal(t, model.Bool(true), members[0].IsMajority)

	bills, err := store.ReadAll(ctx, res.Store, store.Bills)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	require.Equal(t, "2019-05-01", bills[1].StatusDate.String())
	require.Equal(t, model.Int16(3), bills[1].Flag2)
	require.False(t, bills[0].StatusDate.Valid)

	votes, err := store.ReadAll(ctx, res.Store, store.Votes)
	require.NoError(t, err)
	require.Equal(t, "3.2", votes[0].AmendmentNumber.String())
	require.Equal(t, "4.0", votes[1].AmendmentNumber.String())
	require.Equal(t, uint16(26), votes[0].VoteNumber)
	require.Equal(t, "2019-03-04", votes[0].VoteDate.String())

	keys, err := store.ExistingKeys(ctx, res.Store, store.Legislatures)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(map[string]struct{}{"26": {}, "31": {}}, keys))

	counts, err := res.Store.TableCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts["choices"])
	require.Equal(t, int64(0), counts["bill_versions"])
}

func TestConstraints(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{Name: "store"})
	ctx := context.Background()
	seed(t, res.Store)

	// member id must match its columns
	err := store.InsertAll(ctx, res.Store, store.Members, []model.Member{{
		MemberId:          "31:H:6:Jane Doe:31",
		LegislatureNumber: 31,
		PersonId:          "Jane Doe:31",
		MemberFields:      model.MemberFields{Chamber: model.String("H"), District: model.String("5")},
	}})
	require.Error(t, err)

	// unknown person
	err = store.InsertAll(ctx, res.Store, store.Members, []model.Member{{
		MemberId:          "31:H:5:John Doe:31",
		LegislatureNumber: 31,
		PersonId:          "John Doe:31",
		MemberFields:      model.MemberFields{Chamber: model.String("H"), District: model.String("5")},
	}})
	require.Error(t, err)

	err = store.InsertAll(ctx, res.Store, store.People, []model.Person{
		{PersonId: "no colon", FullName: "x", FirstName: "x", LastName: "x"},
	})
	require.Error(t, err)

	err = store.InsertAll(ctx, res.Store, store.Choices, []model.Choice{
		{ChoiceId: "31:H:27:H:5:Jane Doe:31", VoteId: "31:H:27", MemberId: "31:H:5:Jane Doe:31", Choice: model.String("Q")},
	})
	require.Error(t, err)

	// a failed batch inserts nothing
	err = store.InsertAll(ctx, res.Store, store.Legislatures, []model.Legislature{
		{Number: 32, StartYear: 2021, EndYear: 2022},
		{Number: 100, StartYear: 2221, EndYear: 2222},
	})
	require.Error(t, err)
	legs, err := res.Store.DistinctLegislatures(ctx, store.Legislatures.Name)
	require.NoError(t, err)
	require.Equal(t, []int{26, 31}, legs)
}

func TestVersionCandidates(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{Name: "store"})
	ctx := context.Background()
	seed(t, res.Store)

	candidates, err := res.Store.VersionCandidates(ctx)
	require.NoError(t, err)
	require.Equal(t, []store.BillRef{
		{BillId: "26:HB 1", LegislatureNumber: 26, BillNumber: "HB 1"},
		{BillId: "31:HB 1", LegislatureNumber: 31, BillNumber: "HB 1"},
	}, candidates)

	require.NoError(t, store.InsertAll(ctx, res.Store, store.BillVersions, []model.BillVersion{{
		BillVersionId:     "26:HB 1:A",
		BillId:            "26:HB 1",
		LegislatureNumber: 26,
		BillNumber:        "HB 1",
		VersionLetter:     "A",
		Text:              "An Act",
	}}))

	// the latest legislature is always refreshed, older ones only until they have a version
	candidates, err = res.Store.VersionCandidates(ctx)
	require.NoError(t, err)
	require.Equal(t, []store.BillRef{
		{BillId: "31:HB 1", LegislatureNumber: 31, BillNumber: "HB 1"},
	}, candidates)
}

func TestMigrateIsIdempotent(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{Name: "store"})
	require.NoError(t, res.Store.Migrate(context.Background()))
	require.Len(t, store.SchemaStatements(), 8)
}
