package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	cleanup *CleanupService
	policy  Policy
	log     *zap.Logger
	stopCh  chan struct{}
}

func NewScheduler(cleanup *CleanupService, policy Policy, log *zap.Logger) *Scheduler {
	if policy.CartsEvery <= 0 {
		policy.CartsEvery = time.Hour
	}
	if policy.PurgeEvery <= 0 {
		policy.PurgeEvery = 6 * time.Hour
	}
	return &Scheduler{
		cleanup: cleanup,
		policy:  policy,
		log:     log,
		stopCh:  make(chan struct{}),
	}
}

// Start запускает планировщик задач
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting cleanup scheduler",
		zap.Duration("carts_every", s.policy.CartsEvery),
		zap.Duration("purge_every", s.policy.PurgeEvery))

	go s.runCartsExpiry(ctx)
	go s.runCanceledPurge(ctx)
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() {
	s.log.Info("stopping cleanup scheduler")
	close(s.stopCh)
}

func (s *Scheduler) runCartsExpiry(ctx context.Context) {
	ticker := time.NewTicker(s.policy.CartsEvery)
	defer ticker.Stop()

	// Выполняем сразу при старте
	if _, err := s.cleanup.ExpireAbandonedCarts(ctx, s.policy.CartIdle); err != nil {
		s.log.Error("initial carts expiry failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.cleanup.ExpireAbandonedCarts(ctx, s.policy.CartIdle); err != nil {
				s.log.Error("carts expiry failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("carts expiry stopped")
			return
		case <-ctx.Done():
			s.log.Info("carts expiry cancelled")
			return
		}
	}
}

func (s *Scheduler) runCanceledPurge(ctx context.Context) {
	ticker := time.NewTicker(s.policy.PurgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.cleanup.PurgeCanceledOrders(ctx, s.policy.CanceledRetention); err != nil {
				s.log.Error("canceled orders purge failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("canceled orders purge stopped")
			return
		case <-ctx.Done():
			s.log.Info("canceled orders purge cancelled")
			return
		}
	}
}

// RunOnceNow выполняет полную очистку немедленно
func (s *Scheduler) RunOnceNow(ctx context.Context) error {
	return s.cleanup.RunFullCleanup(ctx, s.policy)
}
