package model

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AmendmentNumber is a decimal(9,1), the integer part is the top level amendment and the tenths digit
// is the amendment to that amendment (0 if none), so numeric order follows the amendment hierarchy.
type AmendmentNumber struct {
	Tenths int64
	Valid  bool
}

func NewAmendmentNumber(root, sub int64) AmendmentNumber {
	return AmendmentNumber{Tenths: root*10 + sub, Valid: true}
}

func (a AmendmentNumber) Root() int64 {
	return a.Tenths / 10
}

func (a AmendmentNumber) Sub() int64 {
	return a.Tenths % 10
}

func (a AmendmentNumber) String() string {
	if !a.Valid {
		return ""
	}
	return fmt.Sprintf("%d.%d", a.Root(), a.Sub())
}

func (a AmendmentNumber) Float64() float64 {
	return float64(a.Tenths) / 10
}

func (a AmendmentNumber) Value() (driver.Value, error) {
	if !a.Valid {
		return nil, nil
	}
	return a.String(), nil
}

func parseTenths(s string) (AmendmentNumber, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	root, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return AmendmentNumber{}, fmt.Errorf("parse amendment number %q: %w", s, err)
	}
	var sub int64
	if frac != "" {
		sub, err = strconv.ParseInt(frac[:1], 10, 64)
		if err != nil {
			return AmendmentNumber{}, fmt.Errorf("parse amendment number %q: %w", s, err)
		}
	}
	return NewAmendmentNumber(root, sub), nil
}

func (a *AmendmentNumber) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = AmendmentNumber{}
	case float64:
		*a = AmendmentNumber{Tenths: int64(math.Round(v * 10)), Valid: true}
	case int64:
		*a = AmendmentNumber{Tenths: v * 10, Valid: true}
	case string:
		parsed, err := parseTenths(v)
		if err != nil {
			return err
		}
		*a = parsed
	case []byte:
		parsed, err := parseTenths(string(v))
		if err != nil {
			return err
		}
		*a = parsed
	default:
		return fmt.Errorf("cannot scan %T into AmendmentNumber", src)
	}
	return nil
}
