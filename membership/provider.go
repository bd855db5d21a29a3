package membership

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonboulle/clockwork"

	"github.com/maxpoletaev/rollcall/internal/telemetry"
)

// Provider implements membership operations on top of a shared Table for a
// single (cluster id, service id) partition. Every mutation is a compare-and-swap
// keyed on the version the caller has observed, so any number of providers in
// different processes may operate on the same table concurrently.
//
// The provider never retries a lost compare-and-swap on behalf of the caller,
// since only the caller knows whether the change still makes sense after a
// re-read. Store failures are retried with a bounded backoff.
type Provider struct {
	table              Table
	clusterID          string
	serviceID          string
	clock              clockwork.Clock
	logger             kitlog.Logger
	maxConflictRetries int
	storeRetries       int
	storeRetryInterval time.Duration
}

func NewProvider(table Table, conf Config) *Provider {
	return &Provider{
		table:              table,
		clusterID:          conf.ClusterID,
		serviceID:          conf.ServiceID,
		clock:              conf.Clock,
		logger:             conf.Logger,
		maxConflictRetries: conf.MaxConflictRetries,
		storeRetries:       conf.StoreRetries,
		storeRetryInterval: conf.StoreRetryInterval,
	}
}

// call runs a single table operation, retrying it while the store is unavailable.
func (p *Provider) call(ctx context.Context, op string, f func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.storeRetryInterval
	policy.MaxElapsedTime = 0

	attempt := 0

	return backoff.Retry(func() error {
		if attempt > 0 {
			telemetry.StoreRetries.WithLabelValues(op).Inc()
		}

		attempt++
		start := time.Now()
		err := f(ctx)

		telemetry.ObserveStore(op, start)

		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrStoreUnavailable):
			level.Debug(p.logger).Log("msg", "membership store unavailable", "op", op, "attempt", attempt, "err", err)
			return err
		case errors.Is(err, ErrVersionConflict):
			telemetry.Conflicts.WithLabelValues(op).Inc()
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.storeRetries)), ctx))
}

func (p *Provider) readAll(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot

	err := p.call(ctx, "read_all", func(ctx context.Context) (err error) {
		snapshot, err = p.table.ReadAll(ctx, p.clusterID, p.serviceID)
		return
	})

	return snapshot, err
}

// now returns the current time at the precision of the table.
func (p *Provider) now() time.Time {
	return truncateTime(p.clock.Now())
}

// aliveTime returns a heartbeat timestamp that is strictly greater than prev.
func (p *Provider) aliveTime(prev time.Time) time.Time {
	now := p.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}

	return now
}

// Register inserts a new row in the joining state. It fails with
// ErrDuplicateActiveMember if a joining or active row with the same silo id and
// a start time not older than startTime exists, which prevents a stale restart
// from replacing a running instance. Joining rows count too: activation does not
// bump the partition version, so a newer incarnation may become active between
// the read and the insert.
func (p *Provider) Register(ctx context.Context, siloID, address string, startTime time.Time) (Row, error) {
	row := Row{
		ClusterID:    p.clusterID,
		ServiceID:    p.serviceID,
		SiloID:       siloID,
		Address:      address,
		StartTime:    truncateTime(startTime),
		Status:       StatusJoining,
		IAmAliveTime: p.now(),
		Version:      1,
	}

	for attempt := 0; ; attempt++ {
		snapshot, err := p.readAll(ctx)
		if err != nil {
			return Row{}, fmt.Errorf("read table: %w", err)
		}

		if err := checkDuplicate(snapshot.Rows, row); err != nil {
			return Row{}, err
		}

		// Inserts are gated on the partition version, so that two silos cannot pass
		// the duplicate check above at the same time.
		err = p.call(ctx, "insert", func(ctx context.Context) error {
			return p.table.InsertRow(ctx, row, snapshot.Version)
		})

		switch {
		case err == nil:
			level.Debug(p.logger).Log("msg", "membership row registered", "key", row.Key())
			return row, nil
		case errors.Is(err, ErrRowExists):
			return Row{}, fmt.Errorf("%w: %s", ErrDuplicateActiveMember, row.Key())
		case errors.Is(err, ErrVersionConflict) && attempt < p.maxConflictRetries:
			continue
		default:
			return Row{}, fmt.Errorf("insert row: %w", err)
		}
	}
}

func checkDuplicate(rows []Row, row Row) error {
	for _, existing := range rows {
		if existing.SiloID != row.SiloID {
			continue
		}

		if existing.StartTime.Equal(row.StartTime) {
			return fmt.Errorf("%w: %s", ErrDuplicateActiveMember, existing.Key())
		}

		if !existing.Status.IsTerminal() && !existing.StartTime.Before(row.StartTime) {
			return fmt.Errorf("%w: %s is %s since %s", ErrDuplicateActiveMember,
				existing.SiloID, existing.Status, existing.StartTime.Format(time.RFC3339Nano))
		}
	}

	return nil
}

func (p *Provider) update(ctx context.Context, op string, prev, next Row) (Row, error) {
	next.Version = prev.Version + 1

	err := p.call(ctx, op, func(ctx context.Context) error {
		return p.table.UpdateRow(ctx, next, prev.Version)
	})
	if err != nil {
		return Row{}, fmt.Errorf("%s %s: %w", op, prev.Key(), err)
	}

	return next, nil
}

// Activate moves a joining row to the active state.
func (p *Provider) Activate(ctx context.Context, row Row) (Row, error) {
	if row.Status != StatusJoining {
		return Row{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, row.Status, StatusActive)
	}

	next := row
	next.Status = StatusActive
	next.IAmAliveTime = p.aliveTime(row.IAmAliveTime)

	return p.update(ctx, "activate", row, next)
}

// Heartbeat refreshes IAmAliveTime of an active row. ErrNotActive means the
// silo has been declared dead or has left, and must not continue as a member.
func (p *Provider) Heartbeat(ctx context.Context, row Row) (Row, error) {
	if row.Status != StatusActive {
		return Row{}, fmt.Errorf("%w: %s is %s", ErrNotActive, row.Key(), row.Status)
	}

	next := row
	next.IAmAliveTime = p.aliveTime(row.IAmAliveTime)

	return p.update(ctx, "heartbeat", row, next)
}

// MarkDead declares the observed row dead. Marking a row that is already dead
// is a no-op, so concurrent observers converge on a single dead row: one of
// them wins the compare-and-swap and the rest get ErrVersionConflict.
func (p *Provider) MarkDead(ctx context.Context, row Row) (Row, error) {
	switch row.Status {
	case StatusDead:
		return row, nil
	case StatusShuttingDown:
		return Row{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, row.Status, StatusDead)
	}

	next := row
	next.Status = StatusDead

	return p.update(ctx, "mark_dead", row, next)
}

// Deregister marks the row as shutting down on a graceful exit.
func (p *Provider) Deregister(ctx context.Context, row Row) (Row, error) {
	if row.Status.IsTerminal() {
		return Row{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, row.Status, StatusShuttingDown)
	}

	next := row
	next.Status = StatusShuttingDown

	return p.update(ctx, "deregister", row, next)
}

// ReadRow returns the current state of a row.
func (p *Provider) ReadRow(ctx context.Context, key Key) (Row, error) {
	var row Row

	err := p.call(ctx, "read_row", func(ctx context.Context) (err error) {
		row, err = p.table.ReadRow(ctx, key)
		return
	})

	return row, err
}

// ListMembers returns all rows of the partition ordered by silo id and start time.
func (p *Provider) ListMembers(ctx context.Context) ([]Row, error) {
	snapshot, err := p.readAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	rows := snapshot.Rows

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SiloID != rows[j].SiloID {
			return rows[i].SiloID < rows[j].SiloID
		}

		return rows[i].StartTime.Before(rows[j].StartTime)
	})

	return rows, nil
}

// CleanupDefunct deletes rows that have been in a terminal state for longer than
// the retention period. Rows changed concurrently are left for the next run.
func (p *Provider) CleanupDefunct(ctx context.Context, retention time.Duration) (int, error) {
	snapshot, err := p.readAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read table: %w", err)
	}

	cutoff := p.now().Add(-retention)
	removed := 0

	for _, row := range snapshot.Rows {
		if !row.Status.IsTerminal() || !row.IAmAliveTime.Before(cutoff) {
			continue
		}

		row := row

		err := p.call(ctx, "delete", func(ctx context.Context) error {
			return p.table.DeleteRow(ctx, row.Key(), row.Version)
		})

		switch {
		case err == nil:
			removed++
		case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrRowNotFound):
			continue
		default:
			return removed, fmt.Errorf("delete %s: %w", row.Key(), err)
		}
	}

	return removed, nil
}
