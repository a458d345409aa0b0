package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type Scanner interface {
	Scan(dest ...any) error
}

// Table describes how a row type maps onto a table. The first column is always the primary key.
type Table[T any] struct {
	Name    string
	Columns []string
	Key     func(T) string
	Values  func(T) []any
	// Scan reads the columns in the order of Columns.
	Scan func(Scanner) (T, error)
}

func (t Table[T]) KeyColumn() string {
	return t.Columns[0]
}

// Header returns the column names without identifier quoting.
func (t Table[T]) Header() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = strings.Trim(c, `"`)
	}
	return out
}

func (t Table[T]) selectAll() string {
	return fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s",
		strings.Join(t.Columns, ", "), t.Name, t.KeyColumn(),
	)
}

// ExistingKeys loads the primary key of every stored row.
func ExistingKeys[T any](ctx context.Context, s *Store, t Table[T]) (map[string]struct{}, error) {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", t.KeyColumn(), t.Name))
	if err != nil {
		s.tel.ReportBroken(report_store_query, err, t.Name)
		return nil, fmt.Errorf("existing keys of %s: %w", t.Name, err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var key string
		err = rows.Scan(&key)
		if err != nil {
			return nil, fmt.Errorf("existing keys of %s: %w", t.Name, err)
		}
		out[key] = struct{}{}
	}
	return out, rows.Err()
}

// ReadAll reads every stored row ordered by primary key.
func ReadAll[T any](ctx context.Context, s *Store, t Table[T]) ([]T, error) {
	rows, err := s.DB.QueryContext(ctx, t.selectAll())
	if err != nil {
		s.tel.ReportBroken(report_store_query, err, t.Name)
		return nil, fmt.Errorf("read %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		row, err := t.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Each streams every stored row ordered by primary key.
func Each[T any](ctx context.Context, s *Store, t Table[T], fn func(T) error) error {
	rows, err := s.DB.QueryContext(ctx, t.selectAll())
	if err != nil {
		s.tel.ReportBroken(report_store_query, err, t.Name)
		return fmt.Errorf("read %s: %w", t.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := t.Scan(rows)
		if err != nil {
			return fmt.Errorf("scan %s: %w", t.Name, err)
		}
		err = fn(row)
		if err != nil {
			return err
		}
	}
	return rows.Err()
}

// InsertAll inserts every row in a single transaction, either all rows are committed or none are.
func InsertAll[T any](ctx context.Context, s *Store, t Table[T], rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(t.Columns, ", "), s.placeholders(len(t.Columns)),
	))
	if err != nil {
		s.tel.ReportBroken(report_store_insert, err, t.Name)
		return fmt.Errorf("insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx, t.Values(row)...)
		if err != nil {
			s.tel.ReportBroken(report_store_insert, err, t.Name, t.Key(row))
			return fmt.Errorf("insert %s into %s: %w", t.Key(row), t.Name, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored rows of a table.
func Count[T any](ctx context.Context, s *Store, t Table[T]) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.Name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}
	return n, nil
}

func intKey(n int16) string {
	return strconv.Itoa(int(n))
}

// queryStrings runs a query returning a single column.
func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		s.tel.ReportBroken(report_store_query, err, query)
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		err = rows.Scan(&v)
		if err != nil {
			return nil, err
		}
		if v.Valid {
			out = append(out, v.String)
		}
	}
	return out, rows.Err()
}
