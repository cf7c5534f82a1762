package cleanup

import (
	"context"
	"errors"
	"time"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"
	"pizzeria-service/internal/service"

	"go.uber.org/zap"
)

const defaultBatch = 100

// Policy задаёт сроки хранения и периодичность фоновой очистки.
type Policy struct {
	CanceledRetention time.Duration
	CartIdle          time.Duration
	CartsEvery        time.Duration
	PurgeEvery        time.Duration
}

type CleanupService struct {
	orders   repository.OrderRepo
	orderSvc service.OrderService
	log      *zap.Logger
	batch    int
	now      func() time.Time
}

func NewCleanupService(orders repository.OrderRepo, orderSvc service.OrderService, log *zap.Logger) *CleanupService {
	return &CleanupService{
		orders:   orders,
		orderSvc: orderSvc,
		log:      log,
		batch:    defaultBatch,
		now:      time.Now,
	}
}

// PurgeCanceledOrders удаляет отменённые заказы, не менявшиеся дольше olderThan.
func (c *CleanupService) PurgeCanceledOrders(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := c.now().Add(-olderThan)
	total := 0
	for {
		list, err := c.orders.ListStale(ctx, models.OrderStateCanceled, cutoff, c.batch)
		if err != nil {
			c.log.Error("failed to list canceled orders", zap.Error(err))
			return total, err
		}
		for _, o := range list {
			if err := c.orders.Delete(ctx, o); err != nil {
				c.log.Error("failed to delete canceled order", zap.String("order_id", o.ID.String()), zap.Error(err))
				return total, err
			}
			total++
		}
		if len(list) < c.batch {
			break
		}
	}
	if total > 0 {
		c.log.Info("purged canceled orders", zap.Int("count", total))
	}
	return total, nil
}

// ExpireAbandonedCarts отменяет корзины, в которые давно ничего не добавляли.
// Отмена идёт через OrderService, чтобы сработали блокировка покупателя и событие ORDER_CANCELED.
func (c *CleanupService) ExpireAbandonedCarts(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := c.now().Add(-idle)
	total := 0
	for {
		list, err := c.orders.ListStale(ctx, models.OrderStatePending, cutoff, c.batch)
		if err != nil {
			c.log.Error("failed to list abandoned carts", zap.Error(err))
			return total, err
		}

		canceled := 0
		for _, o := range list {
			ok, err := c.expireCart(ctx, o, cutoff)
			if err != nil {
				return total, err
			}
			if ok {
				canceled++
			}
		}
		total += canceled
		if len(list) < c.batch || canceled == 0 {
			break
		}
	}
	if total > 0 {
		c.log.Info("expired abandoned carts", zap.Int("count", total))
	}
	return total, nil
}

// expireCart: сервис сверяет id и время изменения уже под блокировкой покупателя,
// так что корзина, в которую успели добавить товар, не отменяется.
func (c *CleanupService) expireCart(ctx context.Context, stale *models.Order, cutoff time.Time) (bool, error) {
	if _, err := c.orderSvc.ExpireCart(ctx, stale.CustomerID, stale.ID, cutoff); err != nil {
		if errors.Is(err, service.ErrIllegalState) {
			c.log.Debug("cart changed while expiring", zap.String("order_id", stale.ID.String()), zap.Error(err))
			return false, nil
		}
		c.log.Error("failed to cancel abandoned cart", zap.String("order_id", stale.ID.String()), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (c *CleanupService) RunFullCleanup(ctx context.Context, p Policy) error {
	c.log.Info("starting full cleanup")

	if _, err := c.ExpireAbandonedCarts(ctx, p.CartIdle); err != nil {
		return err
	}
	if _, err := c.PurgeCanceledOrders(ctx, p.CanceledRetention); err != nil {
		return err
	}

	c.log.Info("full cleanup completed")
	return nil
}
