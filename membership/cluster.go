package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonboulle/clockwork"

	"github.com/maxpoletaev/rollcall/internal/generic"
	"github.com/maxpoletaev/rollcall/internal/set"
	"github.com/maxpoletaev/rollcall/internal/telemetry"
)

// Cluster is the membership agent of the local silo. It owns the row of the
// local silo, keeps it alive with heartbeats, and periodically scans the table
// to declare unresponsive peers dead. There is no coordinator: every silo runs
// the same loops and relies on the conditional writes of the table.
type Cluster struct {
	mut      sync.RWMutex
	provider *Provider
	self     Row
	view     []Row
	live     set.Set[string]
	digest   uint64

	logger             kitlog.Logger
	clock              clockwork.Clock
	heartbeatInterval  time.Duration
	probeInterval      time.Duration
	gcInterval         time.Duration
	deathTimeout       time.Duration
	defunctRetention   time.Duration
	storeTimeout       time.Duration
	maxConflictRetries int

	wg        sync.WaitGroup
	stop      chan struct{}
	stopOnce  sync.Once
	evicted   chan struct{}
	evictOnce sync.Once
}

func NewCluster(provider *Provider, conf Config) *Cluster {
	return &Cluster{
		provider:           provider,
		logger:             conf.Logger,
		clock:              conf.Clock,
		heartbeatInterval:  conf.HeartbeatInterval,
		probeInterval:      conf.ProbeInterval,
		gcInterval:         conf.GCInterval,
		deathTimeout:       conf.DeathTimeout,
		defunctRetention:   conf.DefunctRetention,
		storeTimeout:       conf.StoreTimeout,
		maxConflictRetries: conf.MaxConflictRetries,
		stop:               make(chan struct{}),
		evicted:            make(chan struct{}),
	}
}

// Join registers the local silo in the table and activates it. The start time
// of the new row is the current time, so a restarted silo always supersedes its
// previous incarnation.
func (cl *Cluster) Join(ctx context.Context, siloID, address string) error {
	row, err := cl.provider.Register(ctx, siloID, address, cl.clock.Now())
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	cl.setSelf(row)

	for attempt := 0; ; attempt++ {
		active, err := cl.provider.Activate(ctx, row)
		if err == nil {
			row = active
			break
		}

		if errors.Is(err, ErrRowNotFound) {
			return nil
		}

		if !errors.Is(err, ErrVersionConflict) || attempt >= cl.maxConflictRetries {
			return fmt.Errorf("activate: %w", err)
		}

		if row, err = cl.provider.ReadRow(ctx, row.Key()); err != nil {
			return fmt.Errorf("activate: %w", err)
		}
	}

	cl.setSelf(row)

	level.Info(cl.logger).Log(
		"msg", "joined the cluster",
		"silo_id", row.SiloID,
		"addr", row.Address,
		"start_time", row.StartTime,
	)

	// The initial view is only informational, the probe loop will retry.
	if rows, err := cl.provider.ListMembers(ctx); err == nil {
		cl.updateView(rows)
	}

	return nil
}

// Start schedules background tasks for maintaining the membership: writing
// heartbeats, detecting failed peers and collecting defunct rows. Join must be
// called first.
func (cl *Cluster) Start() {
	cl.startLoop(cl.heartbeatInterval, cl.heartbeat)
	cl.startLoop(cl.probeInterval, cl.probe)
	cl.startLoop(cl.gcInterval, cl.collectGarbage)
}

func (cl *Cluster) startLoop(interval time.Duration, task func(ctx context.Context)) {
	cl.wg.Add(1)

	go func() {
		defer cl.wg.Done()

		ticker := cl.clock.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				// A call in flight when the cluster is stopped is allowed to finish.
				ctx, cancel := context.WithTimeout(context.Background(), cl.storeTimeout)
				task(ctx)
				cancel()
			case <-cl.stop:
				return
			}
		}
	}()
}

func (cl *Cluster) signalStop() {
	cl.stopOnce.Do(func() {
		close(cl.stop)
	})
}

// Stop stops the background tasks and waits for them to finish. The row of the
// local silo stays as is and will expire unless Leave is called.
func (cl *Cluster) Stop() {
	cl.signalStop()
	cl.wg.Wait()
}

// Self returns the last known row of the local silo.
func (cl *Cluster) Self() Row {
	cl.mut.RLock()
	defer cl.mut.RUnlock()

	return cl.self
}

func (cl *Cluster) setSelf(row Row) {
	cl.mut.Lock()
	cl.self = row
	cl.mut.Unlock()
}

// View returns all rows of the table as of the last probe, including terminal
// ones that have not been garbage collected yet.
func (cl *Cluster) View() []Row {
	cl.mut.RLock()
	defer cl.mut.RUnlock()

	rows := make([]Row, len(cl.view))
	copy(rows, cl.view)

	return rows
}

// Members returns the live members from the last observed view. Rows that
// stopped sending heartbeats are excluded even if they are not marked dead yet.
func (cl *Cluster) Members() []Row {
	return ActiveMembers(cl.View(), cl.clock.Now(), cl.deathTimeout)
}

// Digest returns the digest of the last observed view.
func (cl *Cluster) Digest() uint64 {
	cl.mut.RLock()
	defer cl.mut.RUnlock()

	return cl.digest
}

// Evicted is closed once the local silo finds out it has been removed from the
// cluster by its peers. The process should terminate or join again.
func (cl *Cluster) Evicted() <-chan struct{} {
	return cl.evicted
}

func (cl *Cluster) evict(row Row) {
	cl.evictOnce.Do(func() {
		level.Error(cl.logger).Log(
			"msg", "silo has been evicted from the cluster",
			"silo_id", row.SiloID,
			"status", row.Status,
		)

		telemetry.Evictions.Inc()
		cl.setSelf(row)
		close(cl.evicted)
		cl.signalStop()
	})
}

func (cl *Cluster) updateView(rows []Row) {
	digest := Digest(rows)
	live := set.New[string]()

	for _, row := range ActiveMembers(rows, cl.clock.Now(), cl.deathTimeout) {
		live.Add(row.SiloID + "@" + row.Address)
	}

	cl.mut.Lock()
	joined := live.Difference(cl.live)
	left := cl.live.Difference(live)
	changed := digest != cl.digest || len(joined) > 0 || len(left) > 0
	cl.view = rows
	cl.live = live
	cl.digest = digest
	cl.mut.Unlock()

	counts := generic.CountBy(rows, func(row Row) Status {
		return row.Status
	})

	for _, status := range []Status{StatusJoining, StatusActive, StatusShuttingDown, StatusDead} {
		telemetry.Members.WithLabelValues(status.String()).Set(float64(counts[status]))
	}

	if !changed {
		return
	}

	level.Info(cl.logger).Log(
		"msg", "membership view changed",
		"rows", len(rows),
		"live", len(live),
		"digest", digest,
	)

	for _, silo := range sortedValues(joined) {
		level.Info(cl.logger).Log("msg", "silo is up", "silo", silo)
	}

	for _, silo := range sortedValues(left) {
		level.Info(cl.logger).Log("msg", "silo is down", "silo", silo)
	}
}

func sortedValues(s set.Set[string]) []string {
	values := s.Values()
	generic.SortSlice(values, false)

	return values
}

// Leave stops the background tasks and marks the local silo as shutting down.
// The deregistration is best-effort: if it does not happen, peers will detect
// the silo as dead once its heartbeat expires.
func (cl *Cluster) Leave(ctx context.Context) error {
	cl.Stop()

	row := cl.Self()

	for attempt := 0; ; attempt++ {
		if row.Status.IsTerminal() {
			return nil
		}

		left, err := cl.provider.Deregister(ctx, row)
		if err == nil {
			cl.setSelf(left)
			level.Info(cl.logger).Log("msg", "left the cluster", "silo_id", row.SiloID)

			return nil
		}

		if errors.Is(err, ErrRowNotFound) {
			return nil
		}

		if !errors.Is(err, ErrVersionConflict) || attempt >= cl.maxConflictRetries {
			return fmt.Errorf("deregister: %w", err)
		}

		row, err = cl.provider.ReadRow(ctx, row.Key())
		if errors.Is(err, ErrRowNotFound) {
			return nil
		} else if err != nil {
			return fmt.Errorf("deregister: %w", err)
		}
	}
}
