package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type orderService struct {
	orders    repository.OrderRepo
	customers CustomerLookup
	products  ProductLookup
	payments  Payments
	events    EventBus
	log       *zap.Logger
	locks     *keyedMutex
	opts      OrderOptions
	now       func() time.Time
}

// NewOrderService: events может быть nil, тогда события не публикуются.
func NewOrderService(
	orders repository.OrderRepo,
	customers CustomerLookup,
	products ProductLookup,
	payments Payments,
	events EventBus,
	log *zap.Logger,
	opts OrderOptions,
) OrderService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOrderOptions().MaxAttempts
	}
	return &orderService{
		orders:    orders,
		customers: customers,
		products:  products,
		payments:  payments,
		events:    events,
		log:       log,
		locks:     newKeyedMutex(),
		opts:      opts,
		now:       time.Now,
	}
}

func transition(o *models.Order, to models.OrderState) error {
	if !o.State.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.State, to)
	}
	o.State = to
	return nil
}

func updateErr(err error) error {
	if errors.Is(err, repository.ErrStaleOrder) {
		return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	}
	return storageErr("update order", err)
}

func (s *orderService) AddToCart(ctx context.Context, productID, customerID uuid.UUID, quantity int) (*models.Order, error) {
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, storageErr("get customer", err)
	}
	if customer == nil {
		return nil, ErrUnknownCustomer
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, storageErr("get product", err)
	}
	if product == nil {
		return nil, ErrUnknownProduct
	}

	unlock := s.locks.Lock(customerID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
		order, err := s.orders.FindPending(ctx, customerID)
		if err != nil {
			return nil, storageErr("find pending order", err)
		}

		line := models.OrderLine{ProductID: product.ID, Product: product, Amount: quantity}

		if order == nil {
			order = &models.Order{
				CustomerID:    customerID,
				OrderDate:     s.now().UTC(),
				State:         models.OrderStatePending,
				PaymentMethod: models.PaymentUnpaid,
				Lines:         []models.OrderLine{line},
			}
			err = s.orders.Save(ctx, order)
			if err == nil {
				order.Customer = customer
				s.log.Info("cart created",
					zap.String("order_id", order.ID.String()),
					zap.String("customer_id", customerID.String()))
				return order, nil
			}
			// корзину только что создал другой экземпляр, дописываем в неё
			if errors.Is(err, repository.ErrPendingOrderExists) {
				lastErr = err
				continue
			}
			return nil, storageErr("save order", err)
		}

		order.Lines = append(order.Lines, line)
		err = s.orders.Update(ctx, order)
		if err == nil {
			order.Customer = customer
			s.log.Debug("line added to cart",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", product.ID.String()),
				zap.Int("amount", quantity))
			return order, nil
		}
		if errors.Is(err, repository.ErrStaleOrder) {
			lastErr = err
			continue
		}
		return nil, storageErr("update order", err)
	}

	s.log.Warn("add to cart gave up after retries",
		zap.String("customer_id", customerID.String()),
		zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %w", ErrConcurrentUpdate, lastErr)
}

func (s *orderService) FinalizeOrder(ctx context.Context, customerID uuid.UUID, method models.PaymentMethod) (*models.Order, error) {
	strategy, ok := s.payments[method]
	if !ok || method == models.PaymentUnpaid {
		return nil, ErrPaymentMethodInvalid
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, storageErr("get customer", err)
	}
	if customer == nil {
		return nil, ErrUnknownCustomer
	}

	unlock := s.locks.Lock(customerID)
	defer unlock()

	var (
		order     *models.Order
		finalized OrderEvent
	)
	err = s.orders.WithTx(ctx, func(tx repository.OrderRepo) error {
		o, err := tx.FindPending(ctx, customerID)
		if err != nil {
			return storageErr("find pending order", err)
		}
		if o == nil {
			return ErrNoPendingOrder
		}
		if len(o.Lines) == 0 {
			return ErrEmptyOrder
		}

		o.Customer = customer
		if err := transition(o, models.OrderStateFinished); err != nil {
			return err
		}
		o.PaymentMethod = method
		// версия проверяется до оплаты: при конфликте деньги не списываются
		if err := tx.Update(ctx, o); err != nil {
			return updateErr(err)
		}

		if err := strategy.Pay(ctx, o, o.Total()); err != nil {
			return fmt.Errorf("%w: %w", ErrPaymentDeclined, err)
		}
		finalized = NewOrderEvent(OrderFinalized, o, s.now().UTC())

		if s.opts.AutoDeliver {
			if err := transition(o, models.OrderStateDelivered); err != nil {
				return err
			}
			if err := tx.Update(ctx, o); err != nil {
				return updateErr(err)
			}
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order finalized",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("payment_method", string(method)),
		zap.String("total", order.Total().StringFixed(2)),
		zap.String("state", string(order.State)))

	s.send(ctx, finalized)
	if order.State == models.OrderStateDelivered {
		s.publish(ctx, OrderDelivered, order)
	}
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	order, err := s.orders.FindPending(ctx, customerID)
	if err != nil {
		return nil, storageErr("find pending order", err)
	}
	if order == nil {
		return nil, ErrNoPendingOrder
	}
	return s.cancel(ctx, order)
}

// ExpireCart отменяет корзину, только если под блокировкой это всё ещё та же
// корзина и её не трогали позже idleSince.
func (s *orderService) ExpireCart(ctx context.Context, customerID, orderID uuid.UUID, idleSince time.Time) (*models.Order, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	order, err := s.orders.FindPending(ctx, customerID)
	if err != nil {
		return nil, storageErr("find pending order", err)
	}
	if order == nil {
		return nil, ErrNoPendingOrder
	}
	if order.ID != orderID || order.UpdatedAt.After(idleSince) {
		return nil, ErrCartTouched
	}
	return s.cancel(ctx, order)
}

func (s *orderService) cancel(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := transition(order, models.OrderStateCanceled); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, updateErr(err)
	}

	s.log.Info("order canceled",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()))
	s.publish(ctx, OrderCanceled, order)
	return order, nil
}

func (s *orderService) DeliverOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storageErr("find order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	unlock := s.locks.Lock(order.CustomerID)
	defer unlock()

	// состояние могло поменяться, пока ждали блокировку
	order, err = s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storageErr("find order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	switch order.State {
	case models.OrderStateFinished:
	case models.OrderStateDelivered:
		return nil, ErrAlreadyDelivered
	default:
		return nil, ErrNotDeliverable
	}

	if err := transition(order, models.OrderStateDelivered); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, updateErr(err)
	}

	s.log.Info("order delivered", zap.String("order_id", order.ID.String()))
	s.publish(ctx, OrderDelivered, order)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storageErr("find order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetCart(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindPending(ctx, customerID)
	if err != nil {
		return nil, storageErr("find pending order", err)
	}
	if order == nil {
		return nil, ErrCartNotFound
	}
	return order, nil
}

func (s *orderService) GetOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, storageErr("get customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	list, err := s.orders.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, storageErr("find orders by customer", err)
	}
	return list, nil
}

func (s *orderService) GetOrdersByState(ctx context.Context, customerID uuid.UUID, state models.OrderState) ([]*models.Order, error) {
	if !state.Valid() {
		return nil, ErrOrderStateInvalid
	}
	if customerID != uuid.Nil {
		customer, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return nil, storageErr("get customer", err)
		}
		if customer == nil {
			return nil, ErrCustomerNotFound
		}
	}
	list, err := s.orders.FindByState(ctx, state, customerID)
	if err != nil {
		return nil, storageErr("find orders by state", err)
	}
	return list, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return storageErr("find order", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.State == models.OrderStatePending {
		return ErrPendingNotDeletable
	}
	if err := s.orders.Delete(ctx, order); err != nil {
		return storageErr("delete order", err)
	}
	s.log.Info("order deleted",
		zap.String("order_id", orderID.String()),
		zap.String("state", string(order.State)))
	return nil
}

// publish не влияет на результат операции: изменение уже закоммичено.
func (s *orderService) publish(ctx context.Context, t OrderEventType, o *models.Order) {
	if s.events == nil {
		return
	}
	if o.Customer == nil {
		if c, err := s.customers.GetByID(ctx, o.CustomerID); err == nil {
			o.Customer = c
		}
	}
	s.send(ctx, NewOrderEvent(t, o, s.now().UTC()))
}

func (s *orderService) send(ctx context.Context, e OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, e); err != nil {
		s.log.Warn("publish order event failed",
			zap.String("type", string(e.Type)),
			zap.String("order_id", e.OrderID.String()),
			zap.Error(err))
	}
}
