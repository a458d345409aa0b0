package basis

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"akleg-data/internal/components/chrono"
	"akleg-data/internal/model"
	"akleg-data/lib/textutil"
)

// The basis api is loosely typed, the same field can be a string in one legislature and a number or
// an empty object in another. The types in this file decode what they can and become null otherwise,
// they never fail to unmarshal.

var jsonNull = []byte("null")

func isNull(data []byte) bool {
	return len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), jsonNull)
}

// String is a trimmed string, "" is null.
type String struct {
	Value string
	Valid bool
}

func (s *String) UnmarshalJSON(data []byte) error {
	*s = String{}
	if isNull(data) {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var n json.Number
		if json.Unmarshal(data, &n) != nil {
			return nil
		}
		str = n.String()
	}
	s.Value, s.Valid = textutil.CleanString(str)
	return nil
}

func (s String) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return jsonNull, nil
	}
	return json.Marshal(s.Value)
}

func (s String) Null() sql.NullString {
	return sql.NullString{String: s.Value, Valid: s.Valid}
}

// Bool accepts json booleans and their common string spellings.
type Bool struct {
	Value bool
	Valid bool
}

func (b *Bool) UnmarshalJSON(data []byte) error {
	*b = Bool{}
	if isNull(data) {
		return nil
	}
	var v bool
	if json.Unmarshal(data, &v) == nil {
		*b = Bool{Value: v, Valid: true}
		return nil
	}
	var str string
	if json.Unmarshal(data, &str) != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "true", "y", "yes", "1":
		*b = Bool{Value: true, Valid: true}
	case "false", "n", "no", "0":
		*b = Bool{Value: false, Valid: true}
	}
	return nil
}

func (b Bool) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return jsonNull, nil
	}
	return json.Marshal(b.Value)
}

func (b Bool) Null() sql.NullBool {
	return sql.NullBool{Bool: b.Value, Valid: b.Valid}
}

// Int accepts numbers and numeric strings.
type Int struct {
	Value int64
	Valid bool
}

func (n *Int) UnmarshalJSON(data []byte) error {
	*n = Int{}
	if isNull(data) {
		return nil
	}
	var v int64
	if json.Unmarshal(data, &v) == nil {
		*n = Int{Value: v, Valid: true}
		return nil
	}
	var str string
	if json.Unmarshal(data, &str) != nil {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
	if err == nil {
		*n = Int{Value: v, Valid: true}
	}
	return nil
}

func (n Int) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

// Int16 returns null if the value does not fit.
func (n Int) Int16() sql.NullInt16 {
	if !n.Valid || n.Value < -32768 || n.Value > 32767 {
		return sql.NullInt16{}
	}
	return model.Int16(int16(n.Value))
}

// JSONText keeps an array or object as compact json text, empty arrays and objects are kept as is.
type JSONText struct {
	Value string
	Valid bool
}

func (j *JSONText) UnmarshalJSON(data []byte) error {
	*j = JSONText{}
	trimmed := bytes.TrimSpace(data)
	if isNull(trimmed) || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil
	}
	var compact bytes.Buffer
	if json.Compact(&compact, trimmed) != nil {
		return nil
	}
	*j = JSONText{Value: compact.String(), Valid: true}
	return nil
}

func (j JSONText) MarshalJSON() ([]byte, error) {
	if !j.Valid {
		return jsonNull, nil
	}
	return []byte(j.Value), nil
}

func (j JSONText) Null() sql.NullString {
	return sql.NullString{String: j.Value, Valid: j.Valid}
}

var msDateRegex = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// MsDate is the "/Date(726742800000)/" form, the calendar date is taken in Alaska time.
type MsDate struct {
	Raw  string
	Date model.Date
}

func (d *MsDate) UnmarshalJSON(data []byte) error {
	*d = MsDate{}
	var str string
	if isNull(data) || json.Unmarshal(data, &str) != nil {
		return nil
	}
	d.Raw = str
	d.Date = ParseMsDate(str)
	return nil
}

func (d MsDate) MarshalJSON() ([]byte, error) {
	if d.Raw == "" {
		return jsonNull, nil
	}
	return json.Marshal(d.Raw)
}

func ParseMsDate(s string) model.Date {
	groups := msDateRegex.FindStringSubmatch(strings.TrimSpace(s))
	if groups == nil {
		return model.Date{}
	}
	millis, err := strconv.ParseInt(groups[1], 10, 64)
	if err != nil {
		return model.Date{}
	}
	local := time.UnixMilli(millis).In(chrono.Anchorage())
	return model.NewDate(local.Year(), local.Month(), local.Day())
}
