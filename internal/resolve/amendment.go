package resolve

import (
	"regexp"
	"strconv"

	"akleg-data/internal/model"
)

// every pattern is anchored at the end of the title
var (
	amendmentToAmendment    = regexp.MustCompile(`(?i)amendment\s+no\.?\s*(\d+)\s+to\s+amendment\s+no\.?\s*(\d+)\s*$`)
	unnumberedSubAmendment  = regexp.MustCompile(`(?i)amendment\s+to\s+amendment\s+no\.?\s*(\d+)\s*$`)
	topLevelAmendmentNumber = regexp.MustCompile(`(?i)amendment\s+no\.?\s*(\d+)\s*$`)
)

// ParseAmendmentNumber extracts the amendment a vote title refers to.
//
//	"Amendment No. 1"                    -> 1.0
//	"Amendment No. 2 to Amendment No. 3" -> 3.2
//	"Amendment to Amendment No. 3"       -> 3.1
//	"Senate read the bill"               -> null
//	"Amendment No. 3 Failed"             -> null
//
// A sub amendment above 9 does not fit in the tenths digit and is null.
func ParseAmendmentNumber(title string) model.AmendmentNumber {
	if groups := amendmentToAmendment.FindStringSubmatch(title); groups != nil {
		sub, subErr := strconv.ParseInt(groups[1], 10, 64)
		root, rootErr := strconv.ParseInt(groups[2], 10, 64)
		if subErr != nil || rootErr != nil || sub > 9 {
			return model.AmendmentNumber{}
		}
		return model.NewAmendmentNumber(root, sub)
	}
	if groups := unnumberedSubAmendment.FindStringSubmatch(title); groups != nil {
		root, err := strconv.ParseInt(groups[1], 10, 64)
		if err != nil {
			return model.AmendmentNumber{}
		}
		return model.NewAmendmentNumber(root, 1)
	}

	groups := topLevelAmendmentNumber.FindStringSubmatch(title)
	if groups == nil {
		return model.AmendmentNumber{}
	}
	root, err := strconv.ParseInt(groups[1], 10, 64)
	if err != nil {
		return model.AmendmentNumber{}
	}
	return model.NewAmendmentNumber(root, 0)
}
