package basis

import (
	"fmt"
	"strings"
)

// Range selects a window of results with the X-Alaska-Query-ResultRange header.
type Range struct {
	Start *int
	Stop  *int
}

func intPtr(n int) *int {
	return &n
}

// Until selects the first n results.
func Until(n int) *Range {
	return &Range{Stop: intPtr(n)}
}

// Between selects the results from start to stop.
func Between(start, stop int) *Range {
	return &Range{Start: intPtr(start), Stop: intPtr(stop)}
}

// Last selects the last n results.
func Last(n int) *Range {
	return &Range{Start: intPtr(-n)}
}

// Header renders the range, only the three shapes the api understands are accepted.
func (r Range) Header() (string, error) {
	switch {
	case r.Start == nil && r.Stop != nil && *r.Stop >= 0:
		return fmt.Sprintf("%d", *r.Stop), nil
	case r.Start != nil && *r.Start >= 0 && r.Stop != nil && *r.Stop >= 0:
		return fmt.Sprintf("%d..%d", *r.Start, *r.Stop), nil
	case r.Start != nil && *r.Start <= 0 && r.Stop == nil:
		return fmt.Sprintf("..%d", -*r.Start), nil
	}
	return "", fmt.Errorf("basis: invalid range %s", r.describe())
}

func (r Range) describe() string {
	part := func(p *int) string {
		if p == nil {
			return "_"
		}
		return fmt.Sprint(*p)
	}
	return part(r.Start) + ":" + part(r.Stop)
}

// Query is the set of parameters shared by every endpoint.
type Query struct {
	// the legislature number, 0 means unset
	Session int
	// "H", "S" or empty
	Chamber string
	// sub queries like "Subjects" or "members;code=ABC"
	Queries []string
	Range   *Range
}

func (q Query) path(endpoint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/%s?minifyresult=false&json=true", endpoint)
	if q.Session != 0 {
		fmt.Fprintf(&b, "&session=%d", q.Session)
	}
	if q.Chamber != "" {
		fmt.Fprintf(&b, "&chamber=%s", q.Chamber)
	}
	return b.String()
}

func (q Query) headers() (map[string]string, error) {
	headers := map[string]string{}
	if len(q.Queries) > 0 {
		headers["X-Alaska-Legislature-Basis-Query"] = strings.Join(q.Queries, ",")
	}
	if q.Range != nil {
		value, err := q.Range.Header()
		if err != nil {
			return nil, err
		}
		headers["X-Alaska-Query-ResultRange"] = value
	}
	return headers, nil
}
