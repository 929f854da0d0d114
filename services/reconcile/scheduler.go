package reconcile

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"sharemeal-platform/pkg/config"
)

// Scheduler enqueues the periodic repair tasks. The tasks themselves are
// idempotent, so overlapping runs are harmless.
type Scheduler struct {
	client   *asynq.Client
	interval time.Duration
}

func NewScheduler(client *asynq.Client, cfg *config.Config) *Scheduler {
	return &Scheduler{
		client:   client,
		interval: cfg.Reconcile.Interval,
	}
}

func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] reconciliation scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.enqueue(TypeBookings)
			s.enqueue(TypeDonations)
		case <-ctx.Done():
			zap.L().Info("[Scheduler] reconciliation scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) enqueue(taskType string) {
	if _, err := s.client.Enqueue(asynq.NewTask(taskType, nil), asynq.Queue("low")); err != nil {
		zap.L().Error("[Scheduler] failed to enqueue task", zap.String("task_type", taskType), zap.Error(err))
	}
}
