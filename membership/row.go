package membership

import (
	"fmt"
	"time"
)

// Key identifies a single incarnation of a silo within a cluster partition.
type Key struct {
	ClusterID string
	ServiceID string
	SiloID    string
	StartTime time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s@%d", k.ClusterID, k.ServiceID, k.SiloID, k.StartTime.UnixMicro())
}

// Row is an entry of the membership table. There is exactly one row per silo
// process lifetime.
type Row struct {
	ClusterID string
	ServiceID string
	// SiloID is the stable identifier of the silo process.
	SiloID string
	// Address is the RPC address the silo advertises to clients and peers.
	Address string
	// StartTime is the registration time. It breaks ties between incarnations of
	// the same SiloID: the later one wins.
	StartTime time.Time
	Status    Status
	// IAmAliveTime is the last heartbeat written by the silo itself.
	IAmAliveTime time.Time
	// Version is incremented on every update and gates all writes.
	Version uint64
}

func (r Row) Key() Key {
	return Key{
		ClusterID: r.ClusterID,
		ServiceID: r.ServiceID,
		SiloID:    r.SiloID,
		StartTime: r.StartTime,
	}
}

// Expired returns true if the row has not been refreshed within the timeout.
// Readers must treat such rows as dead regardless of the stored status.
func (r Row) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(r.IAmAliveTime) > timeout
}

// IsLive returns true if the row is active and its heartbeat is fresh.
func (r Row) IsLive(now time.Time, timeout time.Duration) bool {
	return r.Status == StatusActive && !r.Expired(now, timeout)
}

// Snapshot is the full content of a cluster partition at some point in time.
// Version is the partition version which serializes inserts.
type Snapshot struct {
	Rows    []Row
	Version uint64
}

// truncateTime normalizes timestamps to the precision every backend can store.
func truncateTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Equal reports whether both keys identify the same row.
func (k Key) Equal(other Key) bool {
	return k.ClusterID == other.ClusterID &&
		k.ServiceID == other.ServiceID &&
		k.SiloID == other.SiloID &&
		k.StartTime.Equal(other.StartTime)
}
