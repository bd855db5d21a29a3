package membership

import (
	"context"

	"github.com/go-kit/log/level"
)

func (cl *Cluster) collectGarbage(ctx context.Context) {
	removed, err := cl.provider.CleanupDefunct(ctx, cl.defunctRetention)
	if err != nil {
		level.Warn(cl.logger).Log("msg", "failed to clean up defunct rows", "err", err)
	}

	if removed > 0 {
		level.Info(cl.logger).Log("msg", "removed defunct rows", "count", removed)
	}
}
