package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a nullable calendar date, stored as "YYYY-MM-DD".
type Date struct {
	Time  time.Time
	Valid bool
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// ParseDate accepts "YYYY-MM-DD" optionally followed by a time part ("T..." or " ..."). Anything else,
// including the legacy "Jul -10- 1" form, is null.
func ParseDate(s string) Date {
	if len(s) < len(dateLayout) {
		return Date{}
	}
	if len(s) > len(dateLayout) && s[len(dateLayout)] != 'T' && s[len(dateLayout)] != ' ' {
		return Date{}
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return Date{}
	}
	return Date{Time: t, Valid: true}
}

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time.Format(dateLayout), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = Date{Time: time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
	case string:
		*d = ParseDate(v)
	case []byte:
		*d = ParseDate(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}
