package basis

// The Raw* types are the records of each endpoint as they are decoded, before any normalization.
// LegislatureNumber is never sent by the api, the client fills it in from the request so cached
// files are self describing.

type RawMember struct {
	LegislatureNumber int16 `json:"LegislatureNumber"`

	Code       String `json:"Code"`
	LastName   String `json:"LastName"`
	MiddleName String `json:"MiddleName"`
	FirstName  String `json:"FirstName"`
	FormalName String `json:"FormalName"`
	ShortName  String `json:"ShortName"`
	Chamber    String `json:"Chamber"`
	District   String `json:"District"`
	Seat       String `json:"Seat"`
	Party      String `json:"Party"`
	Phone      String `json:"Phone"`
	EMail      String `json:"EMail"`
	Building   String `json:"Building"`
	Room       String `json:"Room"`
	Comment    String `json:"Comment"`
	IsActive   Bool   `json:"IsActive"`
	IsMajority Bool   `json:"IsMajority"`
}

type RawVersion struct {
	VersionLetter String `json:"VersionLetter"`
	Title         String `json:"Title"`
}

type RawBill struct {
	LegislatureNumber int16 `json:"LegislatureNumber"`

	Session           Int      `json:"Session"`
	BillNumber        String   `json:"BillNumber"`
	BillName          String   `json:"BillName"`
	Documents         JSONText `json:"Documents"`
	PartialVeto       Bool     `json:"PartialVeto"`
	Vetoed            Bool     `json:"Vetoed"`
	ShortTitle        String   `json:"ShortTitle"`
	StatusCode        String   `json:"StatusCode"`
	StatusText        String   `json:"StatusText"`
	Flag1             String   `json:"Flag1"`
	Flag2             Int      `json:"Flag2"`
	StatusDate        String   `json:"StatusDate"`
	StatusAndThen     JSONText `json:"StatusAndThen"`
	StatusSummaryCode String   `json:"StatusSummaryCode"`
	OnFloor           String   `json:"OnFloor"`
	Filler            String   `json:"Filler"`
	Lock              String   `json:"Lock"`
	AllMeetings       JSONText `json:"AllMeetings"`
	Meetings          JSONText `json:"Meetings"`
	Subjects          JSONText `json:"Subjects"`
	ManifestErrors    JSONText `json:"ManifestErrors"`
	Statutes          JSONText `json:"Statutes"`
	CurrentCommittee  JSONText `json:"CurrentCommittee"`

	// only present when the "versions" query is sent
	Versions []RawVersion `json:"Versions,omitempty"`
}

// RawVote is one member's choice on one roll call.
type RawVote struct {
	LegislatureNumber int16 `json:"LegislatureNumber"`

	Session  Int    `json:"Session"`
	VoteNum  String `json:"VoteNum"`
	VoteDate String `json:"VoteDate"`
	Title    String `json:"Title"`
	Bill     String `json:"Bill"`
	Member   String `json:"Member"`
	Vote     String `json:"Vote"`
}

// RawMemberVotes is the shape of the members endpoint when the "Votes" query is sent.
type RawMemberVotes struct {
	Code  String    `json:"Code"`
	Votes []RawVote `json:"Votes"`
}

type RawSessionDate struct {
	ID        Int    `json:"ID"`
	Title     String `json:"Title"`
	StartDate MsDate `json:"StartDate"`
	EndDate   MsDate `json:"EndDate"`
}

// RawSession is one legislature, the api calls the two year legislature a "session" and each
// regular or special session a "session date".
type RawSession struct {
	LegislatureNumber int16 `json:"LegislatureNumber"`

	Number       Int              `json:"Number"`
	Year         Int              `json:"Year"`
	SessionDates []RawSessionDate `json:"SessionDates"`
	Journals     JSONText         `json:"Journals"`
}
