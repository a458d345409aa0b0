package resolve

import (
	"fmt"
	"sort"
	"strings"
)

// names of the invariants an IntegrityViolation can report
const (
	CheckDuplicateScrapedMember = "duplicate-scraped-member"
	CheckUnmappedMember         = "unmapped-member"
	CheckAmbiguousMemberMapping = "ambiguous-member-mapping"
	CheckDuplicateMemberId      = "duplicate-member-id"
	CheckNullBillKey            = "null-bill-key"
	CheckDuplicateBillId        = "duplicate-bill-id"
	CheckDuplicateBillLookup    = "duplicate-bill-lookup"
	CheckOrphanBill             = "orphan-bill-reference"
	CheckDuplicateMemberLookup  = "duplicate-member-lookup"
	CheckOrphanMember           = "orphan-member-reference"
	CheckInvalidVoteKey         = "invalid-vote-key"
	CheckDuplicateVoteId        = "duplicate-vote-id"
	CheckDuplicateChoiceId      = "duplicate-choice-id"
	CheckPersonRegression       = "person-regression"
	CheckMemberRetracted        = "member-retracted"
	CheckMissingPerson          = "missing-person"
	CheckDuplicateNewMember     = "duplicate-new-member"
)

const maxReportedKeys = 20

// IntegrityViolation is returned when resolved or stored rows break an identity invariant,
// it is always fatal to the batch and is never corrected automatically.
type IntegrityViolation struct {
	Check   string
	Message string
	// the offending keys, sorted
	Keys []string
}

func (e *IntegrityViolation) Error() string {
	keys := e.Keys
	suffix := ""
	if len(keys) > maxReportedKeys {
		suffix = fmt.Sprintf(" (+%d more)", len(keys)-maxReportedKeys)
		keys = keys[:maxReportedKeys]
	}
	return fmt.Sprintf(
		"integrity violation [%s]: %s: %s%s",
		e.Check, e.Message, strings.Join(keys, ", "), suffix,
	)
}

// Violation builds an IntegrityViolation out of a set of keys, it returns nil if keys is empty so it
// can be returned directly after a check.
func Violation(check, message string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return &IntegrityViolation{Check: check, Message: message, Keys: dedupe(sorted)}
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, k := range sorted {
		if i > 0 && sorted[i-1] == k {
			continue
		}
		out = append(out, k)
	}
	return out
}

// duplicates returns every key that appears more than once.
func duplicates(keys []string) []string {
	seen := make(map[string]int, len(keys))
	var dupes []string
	for _, k := range keys {
		seen[k]++
		if seen[k] == 2 {
			dupes = append(dupes, k)
		}
	}
	return dupes
}

// Duplicates is the exported form of duplicates for checks outside of this package.
func Duplicates(keys []string) []string {
	return duplicates(keys)
}
