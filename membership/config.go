package membership

import (
	"errors"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/jonboulle/clockwork"
)

type Config struct {
	ClusterID string
	ServiceID string
	Logger    kitlog.Logger
	Clock     clockwork.Clock

	// HeartbeatInterval is how often the silo refreshes its own IAmAliveTime.
	HeartbeatInterval time.Duration
	// ProbeInterval is how often the silo reads the table looking for dead peers.
	ProbeInterval time.Duration
	// DeathTimeout is the age of IAmAliveTime after which a row is considered dead.
	DeathTimeout time.Duration
	// GCInterval is how often terminal rows are garbage collected.
	GCInterval time.Duration
	// DefunctRetention is how long terminal rows are kept before removal.
	DefunctRetention time.Duration
	// StoreTimeout bounds every store call made from the background loops.
	StoreTimeout time.Duration

	// MaxConflictRetries bounds re-read-and-retry cycles after a version conflict.
	MaxConflictRetries int
	// StoreRetries bounds retries of a single store call that failed with
	// ErrStoreUnavailable.
	StoreRetries       int
	StoreRetryInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Logger:             kitlog.NewNopLogger(),
		Clock:              clockwork.NewRealClock(),
		HeartbeatInterval:  5 * time.Second,
		ProbeInterval:      10 * time.Second,
		DeathTimeout:       30 * time.Second,
		GCInterval:         time.Hour,
		DefunctRetention:   7 * 24 * time.Hour,
		StoreTimeout:       5 * time.Second,
		MaxConflictRetries: 3,
		StoreRetries:       3,
		StoreRetryInterval: 200 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	switch {
	case c.ClusterID == "":
		return errors.New("cluster id is required")
	case c.ServiceID == "":
		return errors.New("service id is required")
	case c.HeartbeatInterval <= 0, c.ProbeInterval <= 0, c.GCInterval <= 0:
		return errors.New("intervals must be positive")
	case c.DeathTimeout <= c.HeartbeatInterval:
		return errors.New("death timeout must be greater than heartbeat interval")
	case c.MaxConflictRetries < 0, c.StoreRetries < 0:
		return errors.New("retry limits must not be negative")
	}

	return nil
}
