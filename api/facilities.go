package api

//go:generate mockgen -source=facilities.go -destination=facilities_mock_test.go -package=api

import (
	"context"

	"github.com/maxpoletaev/rollcall/membership"
)

type Cluster interface {
	Self() membership.Row
	View() []membership.Row
	Members() []membership.Row
	Digest() uint64
}

// Store is the membership table backend, checked by the health endpoint.
type Store interface {
	Ping(ctx context.Context) error
}
