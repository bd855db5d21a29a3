package nodeapi

import (
	"context"
	"time"
)

// Member is a live member of the cluster as seen by the silo.
type Member struct {
	SiloID       string
	Address      string
	Status       string
	StartTime    time.Time
	IAmAliveTime time.Time
	Version      uint64
}

// Client is a client to a silo.
type Client interface {
	// Hello sends a greeting to the silo and returns the reply. It is used to
	// check that the silo is reachable and still a member of the cluster.
	Hello(ctx context.Context, greeting string) (string, error)

	// Members returns the live members from the view of the silo.
	Members(ctx context.Context) ([]Member, error)

	// IsClosed returns true if the connection to the silo is closed, and the
	// client cannot be used anymore.
	IsClosed() bool

	// Close closes the connection to the silo.
	Close() error
}

// Dialer is a function that establishes a connection with a silo.
type Dialer func(ctx context.Context, addr string) (Client, error)
