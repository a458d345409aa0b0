// Package model holds the relational row types shared by the resolver, the ingestor, the store and
// the exporters. Nullable columns use the database/sql Null types so rows can be scanned and bound
// without an intermediate representation.
package model

import (
	"database/sql"
)

type Legislature struct {
	Number    int16
	StartYear int16
	EndYear   int16
}

type Session struct {
	// <LegislatureNumber>:<SessionCode>
	SessionId         string
	LegislatureNumber int16
	// 10 for the first regular session, 11 for the first special session, 20 for the second regular
	// session and so on.
	SessionCode sql.NullInt16
	Title       sql.NullString
	StartDate   Date
	EndDate     Date
}

// Person is minted by the curated sheet, PersonId is "<FullName>:<first legislature>".
type Person struct {
	PersonId   string
	FullName   string
	FirstName  string
	LastName   string
	MiddleName sql.NullString
	NickName   sql.NullString
	Suffix     sql.NullString
}

// MemberFields are the columns shared by scraped members, curated members and resolved members.
type MemberFields struct {
	Chamber    sql.NullString
	District   sql.NullString
	Party      sql.NullString
	IsMajority sql.NullBool
	IsActive   sql.NullBool
	Comment    sql.NullString
	Phone      sql.NullString
	EMail      sql.NullString
	Building   sql.NullString
	Room       sql.NullString
}

// ScrapedMember is a member as the basis api reports it, without a PersonId.
type ScrapedMember struct {
	LegislatureNumber int16
	MemberCode        sql.NullString
	LastName          sql.NullString
	MiddleName        sql.NullString
	FirstName         sql.NullString
	FormalName        sql.NullString
	ShortName         sql.NullString
	Seat              sql.NullString
	MemberFields
}

// CuratedMember is a row of the hand maintained roster for legislatures 1 to 9.
type CuratedMember struct {
	LegislatureNumber int16
	PersonId          string
	MemberCode        sql.NullString
	MemberFields
}

// MemberMapping is a row of the curated (legislature, code) -> person table for legislatures 10+.
type MemberMapping struct {
	LegislatureNumber int16
	MemberCode        string
	PersonId          string
}

// Member is one person's tenure in one legislature.
type Member struct {
	// <LegislatureNumber>:<Chamber>:<District>:<PersonId>
	MemberId          string
	LegislatureNumber int16
	PersonId          string
	MemberCode        sql.NullString
	MemberFields
}

// BillFields are every bill column that is not part of the key. Arrays and structs are stored as
// json text.
type BillFields struct {
	BillName          sql.NullString
	Documents         sql.NullString
	PartialVeto       sql.NullBool
	Vetoed            sql.NullBool
	ShortTitle        sql.NullString
	StatusCode        sql.NullString
	StatusText        sql.NullString
	Flag1             sql.NullString
	Flag2             sql.NullInt16
	StatusDate        Date
	StatusAndThen     sql.NullString
	StatusSummaryCode sql.NullString
	OnFloor           sql.NullString
	Filler            sql.NullString
	Lock              sql.NullString
	AllMeetings       sql.NullString
	Meetings          sql.NullString
	Subjects          sql.NullString
	ManifestErrors    sql.NullString
	Statutes          sql.NullString
	CurrentCommittee  sql.NullString
}

type ScrapedBill struct {
	LegislatureNumber sql.NullInt16
	BillNumber        sql.NullString
	BillFields
}

type Bill struct {
	// <LegislatureNumber>:<BillNumber>
	BillId            string
	LegislatureNumber int16
	BillNumber        string
	BillFields
}

// RawChoice is one member's vote as reported by the members endpoint, before vote and member keys
// are attached.
type RawChoice struct {
	LegislatureNumber sql.NullInt16
	// a chamber letter followed by the roll call number, eg. "H0026"
	VoteNum    sql.NullString
	VoteDate   Date
	VoteTitle  sql.NullString
	BillNumber sql.NullString
	MemberCode sql.NullString
	Choice     sql.NullString
}

type Vote struct {
	// <LegislatureNumber>:<VoteChamber>:<VoteNumber>
	VoteId            string
	LegislatureNumber int16
	VoteChamber       string
	VoteNumber        uint16
	VoteDate          Date
	VoteTitle         string
	BillId            sql.NullString
	AmendmentNumber   AmendmentNumber
}

type Choice struct {
	// <VoteId>:<MemberId without its legislature prefix>
	ChoiceId string
	VoteId   string
	MemberId string
	// Y, N, A, E or null
	Choice sql.NullString
}

type BillVersion struct {
	// <BillId>:<VersionLetter>
	BillVersionId     string
	BillId            string
	LegislatureNumber int16
	BillNumber        string
	VersionLetter     string
	Title             sql.NullString
	Text              string
}

// Tables is a full set of resolved rows, in the order they must be ingested.
type Tables struct {
	Legislatures []Legislature
	Sessions     []Session
	People       []Person
	Members      []Member
	Bills        []Bill
	Votes        []Vote
	Choices      []Choice
}

func String(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func Bool(b bool) sql.NullBool {
	return sql.NullBool{Bool: b, Valid: true}
}

func Int16(n int16) sql.NullInt16 {
	return sql.NullInt16{Int16: n, Valid: true}
}
