package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSqlite   Dialect = "sqlite"
	DialectLibsql   Dialect = "libsql"
	DialectPostgres Dialect = "postgres"
)

// Config is the "store" section of akleg.json5.
type Config struct {
	// one of "sqlite", "libsql" or "postgres", defaults to "sqlite"
	Driver Dialect `json:"driver"`
	// local database file for sqlite and libsql
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) dialect() Dialect {
	if config.Driver == "" {
		return DialectSqlite
	}
	return config.Driver
}

func openSqlite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	// it also keeps an in-memory database alive for the lifetime of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		_, err = db.Exec(pragma)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// OpenDB opens the configured database without applying the schema.
func (config Config) OpenDB() (*sql.DB, Dialect, error) {
	dialect := config.dialect()
	switch dialect {
	case DialectSqlite:
		if config.File == "" {
			return nil, "", fmt.Errorf("store: a file was not specified")
		}
		db, err := openSqlite(config.File)
		return db, dialect, err
	case DialectLibsql:
		if config.Url == "" {
			if config.File == "" {
				return nil, "", fmt.Errorf("store: neither a url nor a file was specified")
			}
			db, err := sql.Open("libsql", fmt.Sprintf("file:%s", config.File))
			return db, dialect, err
		}
		values := url.Values{}
		if config.AuthToken != "" {
			values.Add("authToken", config.AuthToken)
		}
		db, err := sql.Open("libsql", config.Url+"?"+values.Encode())
		return db, dialect, err
	case DialectPostgres:
		if config.Url == "" {
			return nil, "", fmt.Errorf("store: a postgres url was not specified")
		}
		db, err := sql.Open("pgx", config.Url)
		return db, dialect, err
	}
	return nil, "", fmt.Errorf("store: unknown driver %q", dialect)
}
