package membership

import (
	"context"
	"errors"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/rollcall/internal/telemetry"
)

const maxConcurrentMarks = 4

func (cl *Cluster) probe(ctx context.Context) {
	rows, err := cl.provider.ListMembers(ctx)
	if err != nil {
		level.Warn(cl.logger).Log("msg", "failed to read membership table", "err", err)
		return
	}

	cl.updateView(rows)

	self := cl.Self().Key()
	suspects := FindSuspects(rows, cl.clock.Now(), cl.deathTimeout)

	g := errgroup.Group{}
	g.SetLimit(maxConcurrentMarks)

	for _, suspect := range suspects {
		if suspect.Row.Key().Equal(self) {
			continue
		}

		suspect := suspect

		telemetry.Suspects.WithLabelValues(suspect.Reason.String()).Inc()

		g.Go(func() error {
			cl.markDead(ctx, suspect)
			return nil
		})
	}

	_ = g.Wait()
}

func (cl *Cluster) markDead(ctx context.Context, suspect Suspect) {
	row := suspect.Row

	if _, err := cl.provider.MarkDead(ctx, row); err != nil {
		// Another observer got there first, or the peer has just written a
		// heartbeat. Either way the attempt is dropped until the next probe.
		if errors.Is(err, ErrVersionConflict) {
			level.Debug(cl.logger).Log("msg", "lost the race to mark silo dead", "silo_id", row.SiloID)
			return
		}

		level.Warn(cl.logger).Log("msg", "failed to mark silo dead", "silo_id", row.SiloID, "err", err)

		return
	}

	telemetry.MarkedDead.Inc()

	level.Info(cl.logger).Log(
		"msg", "declared silo dead",
		"silo_id", row.SiloID,
		"start_time", row.StartTime,
		"reason", suspect.Reason,
		"last_alive", row.IAmAliveTime,
	)
}
