package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type StatePruner interface {
	Prune(ctx context.Context, ttl time.Duration) (int64, error)
}

// StateGC удаляет состояния диалогов, которые не трогали дольше ttl. При ttl <= 0 job ничего не делает.
func StateGC(p StatePruner, ttl time.Duration, log *zap.Logger) Job {
	return func(ctx context.Context) error {
		if ttl <= 0 {
			return nil
		}
		n, err := p.Prune(ctx, ttl)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("stale conversation states removed", zap.Int64("states", n))
		}
		return nil
	}
}
