package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dinefind/core/internal/modules/gateway/gateway"
	"github.com/dinefind/core/internal/modules/jobs"
	pkgcron "github.com/dinefind/core/internal/pkg/cron"
)

// registerCronJobs registers the background maintenance jobs.
func registerCronJobs(sched *pkgcron.Scheduler, logger *zap.Logger, hub *gateway.Hub, store jobs.Store) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "sweep_jobs",
		Description: "drop expired search jobs from the store",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			n, err := store.Sweep(ctx)
			if err != nil {
				cronLogger.Warn("job sweep failed", zap.Error(err))
				return err
			}
			if n > 0 {
				cronLogger.Info("job sweep done", zap.Int("removed", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "sweep_push_backlogs",
		Description: "drop expired undelivered push backlogs",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			if n := hub.SweepBacklogs(); n > 0 {
				cronLogger.Info("backlog sweep done", zap.Int("removed", n))
			}
			return nil
		},
	})
}
