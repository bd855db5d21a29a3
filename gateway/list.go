// Package gateway keeps track of the silos a client can connect to. Clients do
// not join the cluster; they read the membership table and pick any live silo.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonboulle/clockwork"

	"github.com/maxpoletaev/rollcall/internal/generic"
	"github.com/maxpoletaev/rollcall/membership"
)

//go:generate mockgen -source=list.go -destination=list_mock_test.go -package=gateway

var ErrNoGateways = errors.New("no live gateways")

// Lister reads the membership table.
type Lister interface {
	ListMembers(ctx context.Context) ([]membership.Row, error)
}

type Config struct {
	Logger          kitlog.Logger
	Clock           clockwork.Clock
	RefreshInterval time.Duration
	// DeathTimeout must match the one used by the silos.
	DeathTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Logger:          kitlog.NewNopLogger(),
		Clock:           clockwork.NewRealClock(),
		RefreshInterval: 30 * time.Second,
		DeathTimeout:    30 * time.Second,
	}
}

type List struct {
	lister          Lister
	logger          kitlog.Logger
	clock           clockwork.Clock
	refreshInterval time.Duration
	deathTimeout    time.Duration
	gateways        generic.Atomic[[]membership.Row]
}

func NewList(lister Lister, conf Config) *List {
	return &List{
		lister:          lister,
		logger:          conf.Logger,
		clock:           conf.Clock,
		refreshInterval: conf.RefreshInterval,
		deathTimeout:    conf.DeathTimeout,
	}
}

// Refresh reloads the list of live silos from the table. The previous list is
// kept if the table cannot be read.
func (l *List) Refresh(ctx context.Context) error {
	rows, err := l.lister.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	live := membership.ActiveMembers(rows, l.clock.Now(), l.deathTimeout)
	l.gateways.Store(live)

	level.Debug(l.logger).Log("msg", "gateway list refreshed", "gateways", len(live))

	return nil
}

// Gateways returns the silos from the last refresh that are still fresh.
func (l *List) Gateways() []membership.Row {
	return membership.ActiveMembers(l.gateways.Load(), l.clock.Now(), l.deathTimeout)
}

// Pick returns a random live gateway.
func (l *List) Pick() (membership.Row, error) {
	gateways := l.Gateways()
	if len(gateways) == 0 {
		return membership.Row{}, ErrNoGateways
	}

	return gateways[rand.Intn(len(gateways))], nil
}

// Run refreshes the list periodically until the context is canceled.
func (l *List) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := l.Refresh(ctx); err != nil {
				level.Warn(l.logger).Log("msg", "failed to refresh gateway list", "err", err)
			}
		}
	}
}
