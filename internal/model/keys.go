package model

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
)

func SessionId(legislature int16, sessionCode int16) string {
	return fmt.Sprintf("%d:%d", legislature, sessionCode)
}

// MemberId disambiguates a person serving twice in one legislature (a chamber switch) by chamber,
// district is rendered as "" when it is unknown, which is common for historic rows.
func MemberId(legislature int16, chamber, district sql.NullString, personId string) string {
	return fmt.Sprintf("%d:%s:%s:%s", legislature, chamber.String, district.String, personId)
}

func BillId(legislature int16, billNumber string) string {
	return strconv.Itoa(int(legislature)) + ":" + billNumber
}

func VoteId(legislature int16, chamber string, number uint16) string {
	return fmt.Sprintf("%d:%s:%d", legislature, chamber, number)
}

var legislaturePrefix = regexp.MustCompile(`^\d+:`)

// ChoiceId strips the legislature from the member id, the vote id already carries it.
func ChoiceId(voteId, memberId string) string {
	return voteId + ":" + legislaturePrefix.ReplaceAllString(memberId, "")
}

func BillVersionId(billId, versionLetter string) string {
	return billId + ":" + versionLetter
}
