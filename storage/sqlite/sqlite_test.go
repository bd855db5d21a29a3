package sqlite

import (
	"context"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/rollcall/membership"
	"github.com/maxpoletaev/rollcall/storage/tabletest"
)

func TestTable(t *testing.T) {
	tabletest.Run(t, func(t *testing.T) membership.Table {
		table, err := Open(context.Background(), ":memory:")
		require.NoError(t, err)

		t.Cleanup(func() { _ = table.Close() })

		return table
	})
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	exists := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}
	assert.ErrorIs(t, classify(exists), membership.ErrRowExists)

	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	assert.ErrorIs(t, classify(busy), membership.ErrStoreUnavailable)
}
