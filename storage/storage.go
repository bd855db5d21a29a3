// Package storage opens a membership table by connection string.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxpoletaev/rollcall/membership"
	"github.com/maxpoletaev/rollcall/storage/inmemory"
	"github.com/maxpoletaev/rollcall/storage/postgres"
	"github.com/maxpoletaev/rollcall/storage/sqlite"
)

// Table is a membership table that can report whether its store is reachable.
type Table interface {
	membership.Table
	Ping(ctx context.Context) error
}

var (
	_ Table = (*inmemory.Table)(nil)
	_ Table = (*postgres.Table)(nil)
	_ Table = (*sqlite.Table)(nil)
)

// CloseFunc releases the connections of a table.
type CloseFunc func() error

func noopClose() error { return nil }

// Open returns the table addressed by the connection string:
//
//	memory://                  table in the memory of the process
//	sqlite:///path/to/file.db  SQLite database file
//	sqlite://:memory:          SQLite in-memory database
//	anything else              PostgreSQL (URL, keyword/value or ADO.NET style)
func Open(ctx context.Context, connString string) (Table, CloseFunc, error) {
	scheme, rest, _ := strings.Cut(connString, "://")

	switch strings.ToLower(scheme) {
	case "memory":
		return inmemory.New(), noopClose, nil

	case "sqlite", "sqlite3":
		if rest == "" {
			return nil, nil, fmt.Errorf("sqlite path is missing in %q", connString)
		}

		table, err := sqlite.Open(ctx, rest)
		if err != nil {
			return nil, nil, err
		}

		return table, table.Close, nil

	default:
		table, err := postgres.Open(ctx, connString)
		if err != nil {
			return nil, nil, err
		}

		return table, table.Close, nil
	}
}
