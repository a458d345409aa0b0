package store

import (
	"akleg-data/internal/model"
)

var Legislatures = Table[model.Legislature]{
	Name:    "legislatures",
	Columns: []string{"LegislatureNumber", "LegislatureStartYear", "LegislatureEndYear"},
	Key: func(l model.Legislature) string {
		return intKey(l.Number)
	},
	Values: func(l model.Legislature) []any {
		return []any{l.Number, l.StartYear, l.EndYear}
	},
	Scan: func(s Scanner) (model.Legislature, error) {
		var l model.Legislature
		err := s.Scan(&l.Number, &l.StartYear, &l.EndYear)
		return l, err
	},
}

var Sessions = Table[model.Session]{
	Name: "legislature_sessions",
	Columns: []string{
		"LegislatureSessionId",
		"LegislatureNumber",
		"LegislatureSessionCode",
		"LegislatureSessionTitle",
		"LegislatureSessionStartDate",
		"LegislatureSessionEndDate",
	},
	Key: func(s model.Session) string {
		return s.SessionId
	},
	Values: func(s model.Session) []any {
		return []any{s.SessionId, s.LegislatureNumber, s.SessionCode, s.Title, s.StartDate, s.EndDate}
	},
	Scan: func(sc Scanner) (model.Session, error) {
		var s model.Session
		err := sc.Scan(&s.SessionId, &s.LegislatureNumber, &s.SessionCode, &s.Title, &s.StartDate, &s.EndDate)
		return s, err
	},
}

var People = Table[model.Person]{
	Name: "people",
	Columns: []string{
		"PersonId", "FullName", "FirstName", "LastName", "MiddleName", "NickName", "Suffix",
	},
	Key: func(p model.Person) string {
		return p.PersonId
	},
	Values: func(p model.Person) []any {
		return []any{p.PersonId, p.FullName, p.FirstName, p.LastName, p.MiddleName, p.NickName, p.Suffix}
	},
	Scan: func(s Scanner) (model.Person, error) {
		var p model.Person
		err := s.Scan(&p.PersonId, &p.FullName, &p.FirstName, &p.LastName, &p.MiddleName, &p.NickName, &p.Suffix)
		return p, err
	},
}

var Members = Table[model.Member]{
	Name: "members",
	Columns: []string{
		"MemberId", "LegislatureNumber", "PersonId", "MemberCode", "Chamber", "District", "Party",
		"IsMajority", "IsActive", `"Comment"`, "Phone", "EMail", "Building", "Room",
	},
	Key: func(m model.Member) string {
		return m.MemberId
	},
	Values: func(m model.Member) []any {
		return []any{
			m.MemberId, m.LegislatureNumber, m.PersonId, m.MemberCode, m.Chamber, m.District, m.Party,
			m.IsMajority, m.IsActive, m.Comment, m.Phone, m.EMail, m.Building, m.Room,
		}
	},
	Scan: func(s Scanner) (model.Member, error) {
		var m model.Member
		err := s.Scan(
			&m.MemberId, &m.LegislatureNumber, &m.PersonId, &m.MemberCode, &m.Chamber, &m.District, &m.Party,
			&m.IsMajority, &m.IsActive, &m.Comment, &m.Phone, &m.EMail, &m.Building, &m.Room,
		)
		return m, err
	},
}

var Bills = Table[model.Bill]{
	Name: "bills",
	Columns: []string{
		"BillId", "LegislatureNumber", "BillNumber", "BillName", "Documents", "PartialVeto", "Vetoed",
		"ShortTitle", "StatusCode", "StatusText", "Flag1", "Flag2", "StatusDate", "StatusAndThen",
		"StatusSummaryCode", "OnFloor", "Filler", `"Lock"`, "AllMeetings", "Meetings", "Subjects",
		"ManifestErrors", "Statutes", "CurrentCommittee",
	},
	Key: func(b model.Bill) string {
		return b.BillId
	},
	Values: func(b model.Bill) []any {
		return []any{
			b.BillId, b.LegislatureNumber, b.BillNumber, b.BillName, b.Documents, b.PartialVeto, b.Vetoed,
			b.ShortTitle, b.StatusCode, b.StatusText, b.Flag1, b.Flag2, b.StatusDate, b.StatusAndThen,
			b.StatusSummaryCode, b.OnFloor, b.Filler, b.Lock, b.AllMeetings, b.Meetings, b.Subjects,
			b.ManifestErrors, b.Statutes, b.CurrentCommittee,
		}
	},
	Scan: func(s Scanner) (model.Bill, error) {
		var b model.Bill
		err := s.Scan(
			&b.BillId, &b.LegislatureNumber, &b.BillNumber, &b.BillName, &b.Documents, &b.PartialVeto, &b.Vetoed,
			&b.ShortTitle, &b.StatusCode, &b.StatusText, &b.Flag1, &b.Flag2, &b.StatusDate, &b.StatusAndThen,
			&b.StatusSummaryCode, &b.OnFloor, &b.Filler, &b.Lock, &b.AllMeetings, &b.Meetings, &b.Subjects,
			&b.ManifestErrors, &b.Statutes, &b.CurrentCommittee,
		)
		return b, err
	},
}

var Votes = Table[model.Vote]{
	Name: "votes",
	Columns: []string{
		"VoteId", "LegislatureNumber", "VoteChamber", "VoteNumber", "VoteDate", "VoteTitle", "BillId",
		"VoteBillAmendmentNumber",
	},
	Key: func(v model.Vote) string {
		return v.VoteId
	},
	Values: func(v model.Vote) []any {
		return []any{
			v.VoteId, v.LegislatureNumber, v.VoteChamber, int64(v.VoteNumber), v.VoteDate, v.VoteTitle, v.BillId,
			v.AmendmentNumber,
		}
	},
	Scan: func(s Scanner) (model.Vote, error) {
		var v model.Vote
		err := s.Scan(
			&v.VoteId, &v.LegislatureNumber, &v.VoteChamber, &v.VoteNumber, &v.VoteDate, &v.VoteTitle, &v.BillId,
			&v.AmendmentNumber,
		)
		return v, err
	},
}

var Choices = Table[model.Choice]{
	Name:    "choices",
	Columns: []string{"ChoiceId", "VoteId", "MemberId", "Choice"},
	Key: func(c model.Choice) string {
		return c.ChoiceId
	},
	Values: func(c model.Choice) []any {
		return []any{c.ChoiceId, c.VoteId, c.MemberId, c.Choice}
	},
	Scan: func(s Scanner) (model.Choice, error) {
		var c model.Choice
		err := s.Scan(&c.ChoiceId, &c.VoteId, &c.MemberId, &c.Choice)
		return c, err
	},
}

var BillVersions = Table[model.BillVersion]{
	Name: "bill_versions",
	Columns: []string{
		"BillVersionId", "BillId", "LegislatureNumber", "BillNumber", "VersionLetter", "Title", `"Text"`,
	},
	Key: func(v model.BillVersion) string {
		return v.BillVersionId
	},
	Values: func(v model.BillVersion) []any {
		return []any{v.BillVersionId, v.BillId, v.LegislatureNumber, v.BillNumber, v.VersionLetter, v.Title, v.Text}
	},
	Scan: func(s Scanner) (model.BillVersion, error) {
		var v model.BillVersion
		err := s.Scan(&v.BillVersionId, &v.BillId, &v.LegislatureNumber, &v.BillNumber, &v.VersionLetter, &v.Title, &v.Text)
		return v, err
	},
}
