package membership

import (
	"context"
	"errors"

	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/rollcall/internal/telemetry"
)

func (cl *Cluster) heartbeat(ctx context.Context) {
	row := cl.Self()

	for attempt := 0; ; attempt++ {
		next, err := cl.provider.Heartbeat(ctx, row)
		if err == nil {
			telemetry.Heartbeats.WithLabelValues("ok").Inc()
			cl.setSelf(next)

			return
		}

		switch {
		case errors.Is(err, ErrNotActive):
			telemetry.Heartbeats.WithLabelValues("not_active").Inc()
			cl.evict(row)

			return

		case errors.Is(err, ErrRowNotFound):
			telemetry.Heartbeats.WithLabelValues("not_active").Inc()
			cl.evictDeleted(row)

			return

		case errors.Is(err, ErrVersionConflict) && attempt < cl.maxConflictRetries:
			// Someone else has written our row, most likely to declare us dead.
			current, err := cl.provider.ReadRow(ctx, row.Key())
			if errors.Is(err, ErrRowNotFound) {
				cl.evictDeleted(row)
				return
			} else if err != nil {
				telemetry.Heartbeats.WithLabelValues("failed").Inc()
				level.Warn(cl.logger).Log("msg", "failed to re-read own row", "err", err)

				return
			}

			row = current

		default:
			telemetry.Heartbeats.WithLabelValues("failed").Inc()
			level.Warn(cl.logger).Log("msg", "failed to write heartbeat", "silo_id", row.SiloID, "err", err)

			return
		}
	}
}

// evictDeleted evicts the silo whose row has been removed from the table, which
// only happens to dead rows collected after the retention period.
func (cl *Cluster) evictDeleted(row Row) {
	row.Status = StatusDead
	cl.evict(row)
}
