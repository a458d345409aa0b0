package export

import (
	"database/sql"
	"database/sql/driver"
	"strconv"

	"akleg-data/internal/model"
)

// kind is the column type of an exported column, it is decided from the Go type of the bound value
// so empty tables still get a typed schema.
type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
	kindDate
	kindDecimal
)

func kindOf(v any) kind {
	switch v.(type) {
	case int16, int32, int64, int, uint16, sql.NullInt16, sql.NullInt32, sql.NullInt64:
		return kindInt
	case bool, sql.NullBool:
		return kindBool
	case model.Date:
		return kindDate
	case model.AmendmentNumber:
		return kindDecimal
	}
	return kindString
}

func kindsOf(values []any) []kind {
	out := make([]kind, len(values))
	for i, v := range values {
		out[i] = kindOf(v)
	}
	return out
}

// cell is a single value with its nullness made explicit.
type cell struct {
	null    bool
	str     string
	integer int64
	boolean bool
	date    model.Date
	// amendment numbers in tenths
	tenths int64
}

func cellOf(v any) cell {
	switch v := v.(type) {
	case nil:
		return cell{null: true}
	case string:
		return cell{str: v}
	case int16:
		return cell{integer: int64(v)}
	case int32:
		return cell{integer: int64(v)}
	case int64:
		return cell{integer: v}
	case int:
		return cell{integer: int64(v)}
	case uint16:
		return cell{integer: int64(v)}
	case bool:
		return cell{boolean: v}
	case sql.NullString:
		return cell{null: !v.Valid, str: v.String}
	case sql.NullInt16:
		return cell{null: !v.Valid, integer: int64(v.Int16)}
	case sql.NullInt32:
		return cell{null: !v.Valid, integer: int64(v.Int32)}
	case sql.NullInt64:
		return cell{null: !v.Valid, integer: v.Int64}
	case sql.NullBool:
		return cell{null: !v.Valid, boolean: v.Bool}
	case model.Date:
		return cell{null: !v.Valid, date: v}
	case model.AmendmentNumber:
		return cell{null: !v.Valid, tenths: v.Tenths, str: v.String()}
	case driver.Valuer:
		value, err := v.Value()
		if err != nil || value == nil {
			return cell{null: true}
		}
		return cellOf(value)
	}
	return cell{null: true}
}

// text renders a cell for csv, null is the empty string.
func (c cell) text(k kind) string {
	if c.null {
		return ""
	}
	switch k {
	case kindInt:
		return strconv.FormatInt(c.integer, 10)
	case kindBool:
		return strconv.FormatBool(c.boolean)
	case kindDate:
		return c.date.String()
	case kindDecimal:
		return c.str
	}
	return c.str
}
