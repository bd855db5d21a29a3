// Package tabletest contains behavioural tests shared by all membership table
// backends.
package tabletest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/rollcall/membership"
)

// Factory returns an empty table.
type Factory func(t *testing.T) membership.Table

func newRow(siloID string, start int64) membership.Row {
	return membership.Row{
		ClusterID:    "testcluster",
		ServiceID:    "testservice",
		SiloID:       siloID,
		Address:      siloID + ":3000",
		StartTime:    time.Unix(start, 0).UTC(),
		Status:       membership.StatusJoining,
		IAmAliveTime: time.Unix(start, 0).UTC(),
		Version:      1,
	}
}

// Run runs the conformance suite against tables created by newTable.
func Run(t *testing.T, newTable Factory) {
	t.Run("InsertAndRead", func(t *testing.T) { testInsertAndRead(t, newTable(t)) })
	t.Run("InsertConflict", func(t *testing.T) { testInsertConflict(t, newTable(t)) })
	t.Run("InsertExisting", func(t *testing.T) { testInsertExisting(t, newTable(t)) })
	t.Run("UpdateConditional", func(t *testing.T) { testUpdateConditional(t, newTable(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newTable(t)) })
	t.Run("DeleteConditional", func(t *testing.T) { testDeleteConditional(t, newTable(t)) })
	t.Run("PartitionIsolation", func(t *testing.T) { testPartitionIsolation(t, newTable(t)) })
	t.Run("ConcurrentUpdates", func(t *testing.T) { testConcurrentUpdates(t, newTable(t)) })
}

func testInsertAndRead(t *testing.T, table membership.Table) {
	ctx := context.Background()

	snapshot, err := table.ReadAll(ctx, "testcluster", "testservice")
	require.NoError(t, err)
	require.Empty(t, snapshot.Rows)

	row := newRow("silo-a", 100)
	require.NoError(t, table.InsertRow(ctx, row, snapshot.Version))

	stored, err := table.ReadRow(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, row.SiloID, stored.SiloID)
	assert.Equal(t, row.Address, stored.Address)
	assert.True(t, row.StartTime.Equal(stored.StartTime))
	assert.True(t, row.IAmAliveTime.Equal(stored.IAmAliveTime))
	assert.Equal(t, membership.StatusJoining, stored.Status)
	assert.Equal(t, uint64(1), stored.Version)

	next, err := table.ReadAll(ctx, "testcluster", "testservice")
	require.NoError(t, err)
	require.Len(t, next.Rows, 1)
	assert.Greater(t, next.Version, snapshot.Version)

	_, err = table.ReadRow(ctx, newRow("silo-b", 100).Key())
	require.ErrorIs(t, err, membership.ErrRowNotFound)
}

func testInsertConflict(t *testing.T, table membership.Table) {
	ctx := context.Background()

	snapshot, err := table.ReadAll(ctx, "testcluster", "testservice")
	require.NoError(t, err)

	require.NoError(t, table.InsertRow(ctx, newRow("silo-a", 100), snapshot.Version))

	// The partition version has moved on since the snapshot was taken.
	err = table.InsertRow(ctx, newRow("silo-b", 100), snapshot.Version)
	require.ErrorIs(t, err, membership.ErrVersionConflict)

	_, err = table.ReadRow(ctx, newRow("silo-b", 100).Key())
	require.ErrorIs(t, err, membership.ErrRowNotFound)
}

func testInsertExisting(t *testing.T, table membership.Table) {
	ctx := context.Background()
	row := newRow("silo-a", 100)

	snapshot, err := table.ReadAll(ctx, "testcluster", "testservice")
	require.NoError(t, err)
	require.NoError(t, table.InsertRow(ctx, row, snapshot.Version))

	snapshot, err = table.ReadAll(ctx, "testcluster", "testservice")
	require.NoError(t, err)

	err = table.InsertRow(ctx, row, snapshot.Version)
	require.ErrorIs(t, err, membership.ErrRowExists)
}

func testUpdateConditional(t *testing.T, table membership.Table) {
	ctx := context.Background()
	row := newRow("silo-a", 100)

	require.NoError(t, table.InsertRow(ctx, row, 0))

	next := row
	next.Status = membership.StatusActive
	next.IAmAliveTime = row.IAmAliveTime.Add(time.Second)
	next.Version = 2
	require.NoError(t, table.UpdateRow(ctx, next, 1))

	// Same expected version again: the stored version is now 2.
	stale := row
	stale.Status = membership.StatusDead
	stale.Version = 2
	require.ErrorIs(t, table.UpdateRow(ctx, stale, 1), membership.ErrVersionConflict)

	stored, err := table.ReadRow(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, membership.StatusActive, stored.Status)
	assert.Equal(t, uint64(2), stored.Version)
	assert.True(t, next.IAmAliveTime.Equal(stored.IAmAliveTime))
}

func testUpdateMissing(t *testing.T, table membership.Table) {
	row := newRow("silo-a", 100)
	row.Version = 2

	err := table.UpdateRow(context.Background(), row, 1)
	require.ErrorIs(t, err, membership.ErrRowNotFound)
}

func testDeleteConditional(t *testing.T, table membership.Table) {
	ctx := context.Background()
	row := newRow("silo-a", 100)

	require.NoError(t, table.InsertRow(ctx, row, 0))
	require.ErrorIs(t, table.DeleteRow(ctx, row.Key(), 5), membership.ErrVersionConflict)
	require.NoError(t, table.DeleteRow(ctx, row.Key(), 1))
	require.ErrorIs(t, table.DeleteRow(ctx, row.Key(), 1), membership.ErrRowNotFound)

	_, err := table.ReadRow(ctx, row.Key())
	require.ErrorIs(t, err, membership.ErrRowNotFound)
}

func testPartitionIsolation(t *testing.T, table membership.Table) {
	ctx := context.Background()

	other := newRow("silo-a", 100)
	other.ServiceID = "otherservice"

	require.NoError(t, table.InsertRow(ctx, newRow("silo-a", 100), 0))
	require.NoError(t, table.InsertRow(ctx, other, 0))

	snapshot, err := table.ReadAll(ctx, "testcluster", "testservice")
	require.NoError(t, err)
	require.Len(t, snapshot.Rows, 1)
	assert.Equal(t, "testservice", snapshot.Rows[0].ServiceID)

	snapshot, err = table.ReadAll(ctx, "testcluster", "otherservice")
	require.NoError(t, err)
	require.Len(t, snapshot.Rows, 1)
	assert.Equal(t, "otherservice", snapshot.Rows[0].ServiceID)
}

func testConcurrentUpdates(t *testing.T, table membership.Table) {
	ctx := context.Background()
	row := newRow("silo-a", 100)

	require.NoError(t, table.InsertRow(ctx, row, 0))

	const writers = 8

	var (
		wg        sync.WaitGroup
		mut       sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			next := row
			next.IAmAliveTime = row.IAmAliveTime.Add(time.Duration(i+1) * time.Second)
			next.Version = row.Version + 1

			err := table.UpdateRow(ctx, next, row.Version)

			mut.Lock()
			defer mut.Unlock()

			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, membership.ErrVersionConflict):
				conflicts++
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicts)

	stored, err := table.ReadRow(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored.Version)
}
