// Package inmemory provides a membership table that lives in the memory of a
// single process. It has the same conditional write semantics as the SQL
// backends and is used in tests and for local development.
package inmemory

import (
	"context"
	"sync"

	"github.com/maxpoletaev/rollcall/membership"
)

var _ membership.Table = (*Table)(nil)

type partitionKey struct {
	clusterID string
	serviceID string
}

type partition struct {
	version uint64
	rows    map[string]membership.Row
}

type Table struct {
	mut        sync.Mutex
	partitions map[partitionKey]*partition
}

func New() *Table {
	return &Table{
		partitions: make(map[partitionKey]*partition),
	}
}

func (t *Table) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (t *Table) partition(clusterID, serviceID string) *partition {
	key := partitionKey{clusterID: clusterID, serviceID: serviceID}

	p, ok := t.partitions[key]
	if !ok {
		p = &partition{rows: make(map[string]membership.Row)}
		t.partitions[key] = p
	}

	return p
}

func (t *Table) ReadAll(ctx context.Context, clusterID, serviceID string) (membership.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return membership.Snapshot{}, err
	}

	t.mut.Lock()
	defer t.mut.Unlock()

	p := t.partition(clusterID, serviceID)
	rows := make([]membership.Row, 0, len(p.rows))

	for _, row := range p.rows {
		rows = append(rows, row)
	}

	return membership.Snapshot{
		Rows:    rows,
		Version: p.version,
	}, nil
}

func (t *Table) ReadRow(ctx context.Context, key membership.Key) (membership.Row, error) {
	if err := ctx.Err(); err != nil {
		return membership.Row{}, err
	}

	t.mut.Lock()
	defer t.mut.Unlock()

	row, ok := t.partition(key.ClusterID, key.ServiceID).rows[key.String()]
	if !ok {
		return membership.Row{}, membership.ErrRowNotFound
	}

	return row, nil
}

func (t *Table) InsertRow(ctx context.Context, row membership.Row, tableVersion uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mut.Lock()
	defer t.mut.Unlock()

	p := t.partition(row.ClusterID, row.ServiceID)

	if p.version != tableVersion {
		return membership.ErrVersionConflict
	}

	key := row.Key().String()
	if _, ok := p.rows[key]; ok {
		return membership.ErrRowExists
	}

	p.rows[key] = row
	p.version++

	return nil
}

func (t *Table) UpdateRow(ctx context.Context, row membership.Row, expectedVersion uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mut.Lock()
	defer t.mut.Unlock()

	p := t.partition(row.ClusterID, row.ServiceID)
	key := row.Key().String()

	stored, ok := p.rows[key]
	if !ok {
		return membership.ErrRowNotFound
	}

	if stored.Version != expectedVersion {
		return membership.ErrVersionConflict
	}

	p.rows[key] = row

	return nil
}

func (t *Table) DeleteRow(ctx context.Context, key membership.Key, expectedVersion uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mut.Lock()
	defer t.mut.Unlock()

	p := t.partition(key.ClusterID, key.ServiceID)

	stored, ok := p.rows[key.String()]
	if !ok {
		return membership.ErrRowNotFound
	}

	if stored.Version != expectedVersion {
		return membership.ErrVersionConflict
	}

	delete(p.rows, key.String())

	return nil
}
