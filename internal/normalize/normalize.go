// Package normalize casts the raw records of the basis api into the fixed relational rows the
// resolver works on. Every function drops exact duplicate rows and keeps the first occurrence order.
package normalize

import (
	"database/sql"
	"slices"

	"akleg-data/internal/basis"
	"akleg-data/internal/model"
)

// legacy placeholder dates sent instead of null
const (
	nullVoteDate = "-199- 0--0"
	nullLock     = "\x00"
)

func distinct[T comparable](rows []T) []T {
	seen := make(map[T]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// legislatureOf prefers the session number the record reports over the one it was requested with.
func legislatureOf(session basis.Int, requested int16) sql.NullInt16 {
	if n := session.Int16(); n.Valid {
		return n
	}
	if requested != 0 {
		return model.Int16(requested)
	}
	return sql.NullInt16{}
}

// Legislatures returns one row per legislature and one row per regular or special session.
// Legislatures without a year are dropped, as are session dates without an id.
func Legislatures(raw []basis.RawSession) ([]model.Legislature, []model.Session) {
	var legislatures []model.Legislature
	var sessions []model.Session
	for _, r := range raw {
		number := r.LegislatureNumber
		if n := r.Number.Int16(); n.Valid {
			number = n.Int16
		}
		year := r.Year.Int16()
		if number == 0 || !year.Valid {
			continue
		}
		start, end := model.LegislatureYears(year.Int16)
		legislatures = append(legislatures, model.Legislature{
			Number:    number,
			StartYear: start,
			EndYear:   end,
		})

		for _, d := range r.SessionDates {
			code := d.ID.Int16()
			if !code.Valid {
				continue
			}
			sessions = append(sessions, model.Session{
				SessionId:         model.SessionId(number, code.Int16),
				LegislatureNumber: number,
				SessionCode:       code,
				Title:             d.Title.Null(),
				StartDate:         d.StartDate.Date,
				EndDate:           d.EndDate.Date,
			})
		}
	}
	return distinct(legislatures), distinct(sessions)
}

func Members(raw []basis.RawMember) []model.ScrapedMember {
	out := make([]model.ScrapedMember, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.ScrapedMember{
			LegislatureNumber: r.LegislatureNumber,
			MemberCode:        r.Code.Null(),
			LastName:          r.LastName.Null(),
			MiddleName:        r.MiddleName.Null(),
			FirstName:         r.FirstName.Null(),
			FormalName:        r.FormalName.Null(),
			ShortName:         r.ShortName.Null(),
			Seat:              r.Seat.Null(),
			MemberFields: model.MemberFields{
				Chamber:    r.Chamber.Null(),
				District:   r.District.Null(),
				Party:      r.Party.Null(),
				IsMajority: r.IsMajority.Null(),
				IsActive:   r.IsActive.Null(),
				Comment:    r.Comment.Null(),
				Phone:      r.Phone.Null(),
				EMail:      r.EMail.Null(),
				Building:   r.Building.Null(),
				Room:       r.Room.Null(),
			},
		})
	}
	return distinct(out)
}

// flag2 is an unsigned byte upstream, observed values are 0 to 7.
func flag2(n basis.Int) sql.NullInt16 {
	if !n.Valid || n.Value < 0 || n.Value > 255 {
		return sql.NullInt16{}
	}
	return model.Int16(int16(n.Value))
}

func lock(s basis.String) sql.NullString {
	if s.Value == nullLock {
		return sql.NullString{}
	}
	return s.Null()
}

func Bills(raw []basis.RawBill) []model.ScrapedBill {
	out := make([]model.ScrapedBill, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.ScrapedBill{
			LegislatureNumber: legislatureOf(r.Session, r.LegislatureNumber),
			BillNumber:        r.BillNumber.Null(),
			BillFields: model.BillFields{
				BillName:          r.BillName.Null(),
				Documents:         r.Documents.Null(),
				PartialVeto:       r.PartialVeto.Null(),
				Vetoed:            r.Vetoed.Null(),
				ShortTitle:        r.ShortTitle.Null(),
				StatusCode:        r.StatusCode.Null(),
				StatusText:        r.StatusText.Null(),
				Flag1:             r.Flag1.Null(),
				Flag2:             flag2(r.Flag2),
				StatusDate:        model.ParseDate(r.StatusDate.Value),
				StatusAndThen:     r.StatusAndThen.Null(),
				StatusSummaryCode: r.StatusSummaryCode.Null(),
				OnFloor:           r.OnFloor.Null(),
				Filler:            r.Filler.Null(),
				Lock:              lock(r.Lock),
				AllMeetings:       r.AllMeetings.Null(),
				Meetings:          r.Meetings.Null(),
				Subjects:          r.Subjects.Null(),
				ManifestErrors:    r.ManifestErrors.Null(),
				Statutes:          r.Statutes.Null(),
				CurrentCommittee:  r.CurrentCommittee.Null(),
			},
		})
	}
	return distinct(out)
}

func Choices(raw []basis.RawVote) []model.RawChoice {
	out := make([]model.RawChoice, 0, len(raw))
	for _, r := range raw {
		voteDate := model.Date{}
		if r.VoteDate.Value != nullVoteDate {
			voteDate = model.ParseDate(r.VoteDate.Value)
		}
		out = append(out, model.RawChoice{
			LegislatureNumber: legislatureOf(r.Session, r.LegislatureNumber),
			VoteNum:           r.VoteNum.Null(),
			VoteDate:          voteDate,
			VoteTitle:         r.Title.Null(),
			BillNumber:        r.Bill.Null(),
			MemberCode:        r.Member.Null(),
			Choice:            r.Vote.Null(),
		})
	}
	return distinct(out)
}

// ImpliedLegislatures adds a row for every referenced legislature that known lacks. The sessions
// endpoint knows nothing before the 12th legislature, yet members and curated rows reference them.
func ImpliedLegislatures(known []model.Legislature, referenced ...int16) []model.Legislature {
	have := make(map[int16]struct{}, len(known))
	for _, l := range known {
		have[l.Number] = struct{}{}
	}
	out := slices.Clone(known)
	for _, number := range referenced {
		if _, ok := have[number]; ok {
			continue
		}
		have[number] = struct{}{}
		start, end := model.LegislatureYears(model.LegislatureStartYear(number))
		out = append(out, model.Legislature{Number: number, StartYear: start, EndYear: end})
	}
	slices.SortFunc(out, func(a, b model.Legislature) int {
		return int(a.Number) - int(b.Number)
	})
	return out
}
