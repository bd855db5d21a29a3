// Package sqlite implements the membership table on SQLite. It is meant for
// clusters whose silos share a host, and for development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/maxpoletaev/rollcall/membership"
)

var _ membership.Table = (*Table)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS membership_version (
		cluster_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		version    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (cluster_id, service_id)
	);

	CREATE TABLE IF NOT EXISTS membership (
		cluster_id      TEXT NOT NULL,
		service_id      TEXT NOT NULL,
		silo_id         TEXT NOT NULL,
		start_time      INTEGER NOT NULL,
		address         TEXT NOT NULL,
		status          TEXT NOT NULL,
		i_am_alive_time INTEGER NOT NULL,
		version         INTEGER NOT NULL,
		PRIMARY KEY (cluster_id, service_id, silo_id, start_time)
	);
`

const selectColumns = `cluster_id, service_id, silo_id, start_time, address, status, i_am_alive_time, version`

// Table stores membership rows in an SQLite database. All access goes through
// a single connection, which serializes writers inside the process; other
// processes are serialized by the database lock.
type Table struct {
	db *sql.DB
}

// Open opens the database file (or ":memory:") and creates the tables.
func Open(ctx context.Context, path string) (*Table, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Table{db: db}, nil
}

// Ping checks that the database file is still accessible.
func (t *Table) Ping(ctx context.Context) error {
	if err := t.db.PingContext(ctx); err != nil {
		return classify(err)
	}

	return nil
}

func (t *Table) Close() error {
	return t.db.Close()
}

func classify(err error) error {
	var sqliteErr sqlite3.Error

	switch {
	case err == nil:
		return nil
	case errors.As(err, &sqliteErr):
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			return membership.ErrRowExists
		case sqliteErr.Code == sqlite3.ErrBusy,
			sqliteErr.Code == sqlite3.ErrLocked,
			sqliteErr.Code == sqlite3.ErrCantOpen,
			sqliteErr.Code == sqlite3.ErrIoErr:
			return fmt.Errorf("%w: %w", membership.ErrStoreUnavailable, err)
		}

		return err
	case errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %w", membership.ErrStoreUnavailable, err)
	default:
		return err
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (membership.Row, error) {
	var (
		r            membership.Row
		status       string
		startTime    int64
		iAmAliveTime int64
		version      int64
	)

	if err := s.Scan(&r.ClusterID, &r.ServiceID, &r.SiloID, &startTime,
		&r.Address, &status, &iAmAliveTime, &version); err != nil {
		return membership.Row{}, err
	}

	var err error
	if r.Status, err = membership.ParseStatus(status); err != nil {
		return membership.Row{}, err
	}

	r.StartTime = time.UnixMicro(startTime).UTC()
	r.IAmAliveTime = time.UnixMicro(iAmAliveTime).UTC()
	r.Version = uint64(version)

	return r, nil
}

func (t *Table) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (t *Table) ReadAll(ctx context.Context, clusterID, serviceID string) (membership.Snapshot, error) {
	var snapshot membership.Snapshot

	err := t.withTx(ctx, func(tx *sql.Tx) error {
		var version int64

		err := tx.QueryRowContext(ctx,
			`SELECT version FROM membership_version WHERE cluster_id = ? AND service_id = ?`,
			clusterID, serviceID,
		).Scan(&version)

		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		snapshot.Version = uint64(version)

		rows, err := tx.QueryContext(ctx,
			`SELECT `+selectColumns+` FROM membership WHERE cluster_id = ? AND service_id = ?`,
			clusterID, serviceID,
		)
		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			row, err := scanRow(rows)
			if err != nil {
				return err
			}

			snapshot.Rows = append(snapshot.Rows, row)
		}

		return rows.Err()
	})

	if err != nil {
		return membership.Snapshot{}, classify(err)
	}

	return snapshot, nil
}

func (t *Table) ReadRow(ctx context.Context, key membership.Key) (membership.Row, error) {
	row, err := scanRow(t.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM membership
		WHERE cluster_id = ? AND service_id = ? AND silo_id = ? AND start_time = ?`,
		key.ClusterID, key.ServiceID, key.SiloID, key.StartTime.UnixMicro(),
	))

	if errors.Is(err, sql.ErrNoRows) {
		return membership.Row{}, membership.ErrRowNotFound
	} else if err != nil {
		return membership.Row{}, classify(err)
	}

	return row, nil
}

func (t *Table) InsertRow(ctx context.Context, row membership.Row, tableVersion uint64) error {
	err := t.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO membership_version (cluster_id, service_id, version) VALUES (?, ?, 0)
			ON CONFLICT DO NOTHING`,
			row.ClusterID, row.ServiceID,
		)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE membership_version SET version = version + 1
			WHERE cluster_id = ? AND service_id = ? AND version = ?`,
			row.ClusterID, row.ServiceID, int64(tableVersion),
		)
		if err != nil {
			return err
		}

		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return membership.ErrVersionConflict
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO membership (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ClusterID,
			row.ServiceID,
			row.SiloID,
			row.StartTime.UnixMicro(),
			row.Address,
			row.Status.String(),
			row.IAmAliveTime.UnixMicro(),
			int64(row.Version),
		)

		return err
	})

	if errors.Is(err, membership.ErrVersionConflict) {
		return err
	}

	return classify(err)
}

// affected checks the outcome of a conditional statement on a single row.
func (t *Table) affected(ctx context.Context, res sql.Result, key membership.Key) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}

	if n > 0 {
		return nil
	}

	var exists bool

	err = t.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM membership
		WHERE cluster_id = ? AND service_id = ? AND silo_id = ? AND start_time = ?)`,
		key.ClusterID, key.ServiceID, key.SiloID, key.StartTime.UnixMicro(),
	).Scan(&exists)

	switch {
	case err != nil:
		return classify(err)
	case exists:
		return membership.ErrVersionConflict
	default:
		return membership.ErrRowNotFound
	}
}

func (t *Table) UpdateRow(ctx context.Context, row membership.Row, expectedVersion uint64) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE membership SET address = ?, status = ?, i_am_alive_time = ?, version = ?
		WHERE cluster_id = ? AND service_id = ? AND silo_id = ? AND start_time = ? AND version = ?`,
		row.Address,
		row.Status.String(),
		row.IAmAliveTime.UnixMicro(),
		int64(row.Version),
		row.ClusterID,
		row.ServiceID,
		row.SiloID,
		row.StartTime.UnixMicro(),
		int64(expectedVersion),
	)
	if err != nil {
		return classify(err)
	}

	return t.affected(ctx, res, row.Key())
}

func (t *Table) DeleteRow(ctx context.Context, key membership.Key, expectedVersion uint64) error {
	res, err := t.db.ExecContext(ctx,
		`DELETE FROM membership
		WHERE cluster_id = ? AND service_id = ? AND silo_id = ? AND start_time = ? AND version = ?`,
		key.ClusterID, key.ServiceID, key.SiloID, key.StartTime.UnixMicro(), int64(expectedVersion),
	)
	if err != nil {
		return classify(err)
	}

	return t.affected(ctx, res, key)
}
