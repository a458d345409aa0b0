// Package store persists resolved rows in a relational database with a fixed schema. Every table is
// append only, rows are never updated or deleted.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"
)

//go:embed schema.sql
var Schema string

const (
	report_store_migrate = "store.migrate"
	report_store_insert  = "store.insert"
	report_store_query   = "store.query"
)

type Store struct {
	DB      *sql.DB
	Dialect Dialect

	tel telemetry.API
}

func New(db *sql.DB, dialect Dialect, tel telemetry.API) *Store {
	assert.NotNil(db)
	assert.NotNil(tel)
	return &Store{
		DB:      db,
		Dialect: dialect,
		tel:     telemetry.NewScopedAPI("store", tel),
	}
}

// Open opens the configured database and applies the schema.
func Open(ctx context.Context, config Config, tel telemetry.API) (*Store, error) {
	db, dialect, err := config.OpenDB()
	if err != nil {
		return nil, err
	}
	s := New(db, dialect, tel)
	err = s.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// SchemaStatements splits the embedded schema into individual statements, some drivers do not accept
// several statements in one Exec.
func SchemaStatements() []string {
	var out []string
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate creates every table that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range SchemaStatements() {
		_, err = tx.ExecContext(ctx, stmt)
		if err != nil {
			s.tel.ReportBroken(report_store_migrate, err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return tx.Commit()
}

// placeholders renders the bind parameters of a statement with n columns.
func (s *Store) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if s.Dialect == DialectPostgres {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// placeholder renders the i-th (1-based) bind parameter.
func (s *Store) placeholder(i int) string {
	if s.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
