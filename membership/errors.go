package membership

import "errors"

var (
	// ErrDuplicateActiveMember is returned by Register when an active row with the
	// same silo id and a start time not older than the new one already exists.
	// It cannot be retried without a newer start time.
	ErrDuplicateActiveMember = errors.New("duplicate active member")

	// ErrVersionConflict is returned when a conditional write loses the race: the
	// stored version differs from the one the caller observed. The caller should
	// re-read the row and reapply the change.
	ErrVersionConflict = errors.New("version conflict")

	// ErrNotActive is returned by Heartbeat for a row that is no longer active.
	// The silo must consider itself evicted from the cluster.
	ErrNotActive = errors.New("member is not active")

	// ErrStoreUnavailable wraps failures to reach the membership table.
	ErrStoreUnavailable = errors.New("membership store unavailable")

	// ErrRowNotFound is returned when the row does not exist in the table.
	ErrRowNotFound = errors.New("membership row not found")

	// ErrRowExists is returned by Table.InsertRow when the key is already taken.
	ErrRowExists = errors.New("membership row already exists")

	// ErrInvalidTransition is returned when the requested status change is not
	// allowed from the current status of the row.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IsTransient returns true for errors that can be resolved by retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrStoreUnavailable)
}
