package membership

//go:generate mockgen -source=facilities.go -destination=facilities_mock_test.go -package=membership_test

import "context"

// Table is the shared membership table. All writes are conditional: they apply
// only if the version observed by the caller is still the stored one, so the
// implementations never hold locks across calls.
type Table interface {
	// ReadAll returns every row of the partition along with the partition version.
	ReadAll(ctx context.Context, clusterID, serviceID string) (Snapshot, error)

	// ReadRow returns a single row, or ErrRowNotFound.
	ReadRow(ctx context.Context, key Key) (Row, error)

	// InsertRow adds a new row if the partition version still equals tableVersion,
	// and increments the partition version in the same transaction. It returns
	// ErrVersionConflict if the partition has changed, or ErrRowExists if the key
	// is already taken.
	InsertRow(ctx context.Context, row Row, tableVersion uint64) error

	// UpdateRow overwrites the row with the same key if its stored version equals
	// expectedVersion. It returns ErrVersionConflict otherwise, or ErrRowNotFound
	// if the row is gone.
	UpdateRow(ctx context.Context, row Row, expectedVersion uint64) error

	// DeleteRow removes the row if its stored version equals expectedVersion.
	DeleteRow(ctx context.Context, key Key, expectedVersion uint64) error
}
