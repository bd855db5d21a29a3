// Package postgres implements the membership table on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxpoletaev/rollcall/membership"
)

var _ membership.Table = (*Table)(nil)

const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS membership_version (
		cluster_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		version    BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (cluster_id, service_id)
	);

	CREATE TABLE IF NOT EXISTS membership (
		cluster_id      TEXT NOT NULL,
		service_id      TEXT NOT NULL,
		silo_id         TEXT NOT NULL,
		start_time      BIGINT NOT NULL,
		address         TEXT NOT NULL,
		status          TEXT NOT NULL,
		i_am_alive_time BIGINT NOT NULL,
		version         BIGINT NOT NULL,
		PRIMARY KEY (cluster_id, service_id, silo_id, start_time)
	);
`

// Table stores membership rows in PostgreSQL. Timestamps are stored as unix
// microseconds so that keys survive the round trip unchanged.
type Table struct {
	pool *pgxpool.Pool
}

// Open connects to the database and creates the tables if they do not exist.
// See ConnString for the accepted formats.
func Open(ctx context.Context, databaseURL string) (*Table, error) {
	config, err := pgxpool.ParseConfig(ConnString(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", membership.ErrStoreUnavailable, err)
	}

	t := &Table{pool: pool}

	if err := t.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return t, nil
}

func (t *Table) migrate(ctx context.Context) error {
	_, err := t.pool.Exec(ctx, schema)
	return err
}

// Ping checks database connectivity.
func (t *Table) Ping(ctx context.Context) error {
	return classify(t.pool.Ping(ctx))
}

func (t *Table) Close() error {
	t.pool.Close()
	return nil
}

// classify maps driver errors to membership errors. Anything that is not a
// server-side error is treated as a connectivity problem.
func classify(err error) error {
	var pgErr *pgconn.PgError

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &pgErr):
		if pgErr.Code == uniqueViolation {
			return membership.ErrRowExists
		}

		return err
	default:
		return fmt.Errorf("%w: %w", membership.ErrStoreUnavailable, err)
	}
}

func scanRow(row pgx.Row) (membership.Row, error) {
	var (
		r            membership.Row
		status       string
		startTime    int64
		iAmAliveTime int64
		version      int64
	)

	err := row.Scan(
		&r.ClusterID,
		&r.ServiceID,
		&r.SiloID,
		&startTime,
		&r.Address,
		&status,
		&iAmAliveTime,
		&version,
	)
	if err != nil {
		return membership.Row{}, err
	}

	if r.Status, err = membership.ParseStatus(status); err != nil {
		return membership.Row{}, err
	}

	r.StartTime = time.UnixMicro(startTime).UTC()
	r.IAmAliveTime = time.UnixMicro(iAmAliveTime).UTC()
	r.Version = uint64(version)

	return r, nil
}

const selectColumns = `cluster_id, service_id, silo_id, start_time, address, status, i_am_alive_time, version`

func (t *Table) ReadAll(ctx context.Context, clusterID, serviceID string) (membership.Snapshot, error) {
	var snapshot membership.Snapshot

	// Repeatable read makes the version and the rows come from the same snapshot.
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := pgx.BeginTxFunc(ctx, t.pool, opts, func(tx pgx.Tx) error {
		var version int64

		err := tx.QueryRow(ctx,
			`SELECT version FROM membership_version WHERE cluster_id = $1 AND service_id = $2`,
			clusterID, serviceID,
		).Scan(&version)

		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		snapshot.Version = uint64(version)

		rows, err := tx.Query(ctx,
			`SELECT `+selectColumns+` FROM membership WHERE cluster_id = $1 AND service_id = $2`,
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
	row, err := scanRow(t.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM membership
		WHERE cluster_id = $1 AND service_id = $2 AND silo_id = $3 AND start_time = $4`,
		key.ClusterID, key.ServiceID, key.SiloID, key.StartTime.UnixMicro(),
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return membership.Row{}, membership.ErrRowNotFound
	} else if err != nil {
		return membership.Row{}, classify(err)
	}

	return row, nil
}

func (t *Table) InsertRow(ctx context.Context, row membership.Row, tableVersion uint64) error {
	err := pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO membership_version (cluster_id, service_id, version) VALUES ($1, $2, 0)
			ON CONFLICT DO NOTHING`,
			row.ClusterID, row.ServiceID,
		)
		if err != nil {
			return err
		}

		// Concurrent inserts block on the version row; the loser sees the bumped
		// version once the winner commits and updates nothing.
		tag, err := tx.Exec(ctx,
			`UPDATE membership_version SET version = version + 1
			WHERE cluster_id = $1 AND service_id = $2 AND version = $3`,
			row.ClusterID, row.ServiceID, int64(tableVersion),
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return membership.ErrVersionConflict
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO membership (`+selectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
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

// conditionalMiss tells apart a version mismatch from a missing row after a
// conditional statement has affected nothing.
func (t *Table) conditionalMiss(ctx context.Context, key membership.Key) error {
	var exists bool

	err := t.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM membership
		WHERE cluster_id = $1 AND service_id = $2 AND silo_id = $3 AND start_time = $4)`,
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
	tag, err := t.pool.Exec(ctx,
		`UPDATE membership SET address = $5, status = $6, i_am_alive_time = $7, version = $8
		WHERE cluster_id = $1 AND service_id = $2 AND silo_id = $3 AND start_time = $4 AND version = $9`,
		row.ClusterID,
		row.ServiceID,
		row.SiloID,
		row.StartTime.UnixMicro(),
		row.Address,
		row.Status.String(),
		row.IAmAliveTime.UnixMicro(),
		int64(row.Version),
		int64(expectedVersion),
	)
	if err != nil {
		return classify(err)
	}

	if tag.RowsAffected() == 0 {
		return t.conditionalMiss(ctx, row.Key())
	}

	return nil
}

func (t *Table) DeleteRow(ctx context.Context, key membership.Key, expectedVersion uint64) error {
	tag, err := t.pool.Exec(ctx,
		`DELETE FROM membership
		WHERE cluster_id = $1 AND service_id = $2 AND silo_id = $3 AND start_time = $4 AND version = $5`,
		key.ClusterID, key.ServiceID, key.SiloID, key.StartTime.UnixMicro(), int64(expectedVersion),
	)
	if err != nil {
		return classify(err)
	}

	if tag.RowsAffected() == 0 {
		return t.conditionalMiss(ctx, key)
	}

	return nil
}
