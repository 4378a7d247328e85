package jobs

import (
	"context"

	"go.uber.org/zap"
)

type SuperadminStore interface {
	EnsureSuperadmins(ctx context.Context, channelIDs []int64) (int64, error)
}

// SuperadminSync выдаёт роль superadmin пользователям из SUPERADMIN_IDS,
// как только они зарегистрируются.
func SuperadminSync(store SuperadminStore, channelIDs []int64, log *zap.Logger) Job {
	return func(ctx context.Context) error {
		if len(channelIDs) == 0 {
			return nil
		}
		n, err := store.EnsureSuperadmins(ctx, channelIDs)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("superadmin role granted", zap.Int64("users", n))
		}
		return nil
	}
}
