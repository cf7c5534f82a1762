package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderEnv struct {
	svc      service.OrderService
	repo     *memOrderRepo
	bus      *recordingBus
	customer *models.Customer
	p1       *models.Product // 10.00
	p2       *models.Product // 5.00
	opts     service.OrderOptions
	cust     memCustomers
	prods    memProducts
}

func newOrderEnv(t *testing.T, opts service.OrderOptions) *orderEnv {
	t.Helper()
	c := &models.Customer{ID: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	p1 := models.NewPizza("Margherita", decimal.RequireFromString("10.00"), nil)
	p1.ID = uuid.New()
	p2 := models.NewDrink("Cola", decimal.RequireFromString("5.00"), models.DrinkBig)
	p2.ID = uuid.New()

	env := &orderEnv{
		repo:     newMemOrderRepo(),
		bus:      &recordingBus{},
		customer: c,
		p1:       p1,
		p2:       p2,
		opts:     opts,
		cust:     memCustomers{c.ID: c},
		prods:    memProducts{p1.ID: p1, p2.ID: p2},
	}
	env.svc = env.newService()
	return env
}

func (e *orderEnv) newService() service.OrderService {
	return service.NewOrderService(e.repo, e.cust, e.prods, service.DefaultPayments(zap.NewNop()), e.bus, zap.NewNop(), e.opts)
}

func TestAddToCart_CreatesPendingOrder(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	o, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatePending, o.State)
	assert.Equal(t, models.PaymentUnpaid, o.PaymentMethod)
	assert.Equal(t, env.customer.ID, o.CustomerID)
	assert.False(t, o.OrderDate.IsZero())
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 2, o.Lines[0].Amount)
	assert.True(t, decimal.RequireFromString("20.00").Equal(o.Total()))
}

func TestAddToCart_AppendsNewLine(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	first, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 2)
	require.NoError(t, err)
	second, err := env.svc.AddToCart(ctx, env.p2.ID, env.customer.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Lines, 2)
	assert.Equal(t, env.p2.ID, second.Lines[1].ProductID)
	assert.True(t, decimal.RequireFromString("25.00").Equal(second.Total()))

	// тот же товар ещё раз: новая строка, без слияния количеств
	third, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)
	require.Len(t, third.Lines, 3)
	assert.Equal(t, 1, third.Lines[2].Amount)
	assert.Equal(t, 1, env.repo.count())
}

func TestAddToCart_InvalidArguments(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	for _, qty := range []int{0, -3} {
		_, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, qty)
		assert.ErrorIs(t, err, service.ErrInvalidArgument)
		assert.ErrorIs(t, err, service.ErrQuantityInvalid)
	}
	assert.Equal(t, 0, env.repo.count())

	_, err := env.svc.AddToCart(ctx, uuid.New(), env.customer.ID, 1)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.svc.AddToCart(ctx, env.p1.ID, uuid.New(), 1)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	assert.ErrorIs(t, err, service.ErrUnknownCustomer)
	assert.Equal(t, 0, env.repo.count())
}

func TestAddToCart_InvalidQuantityLeavesCartUntouched(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	cart, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 2)
	require.NoError(t, err)

	_, err = env.svc.AddToCart(ctx, env.p2.ID, env.customer.ID, 0)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	again, err := env.svc.GetCart(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
	assert.Equal(t, cart.Version, again.Version)
	require.Len(t, again.Lines, 1)
	assert.Equal(t, env.p1.ID, again.Lines[0].ProductID)
	assert.Equal(t, 2, again.Lines[0].Amount)
	assert.Equal(t, 1, env.repo.count())
}

func TestFinalize_AutoDelivers(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	_, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 2)
	require.NoError(t, err)
	_, err = env.svc.AddToCart(ctx, env.p2.ID, env.customer.ID, 1)
	require.NoError(t, err)

	o, err := env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateDelivered, o.State)
	assert.Equal(t, models.PaymentCard, o.PaymentMethod)
	require.NotNil(t, o.Customer)
	assert.Equal(t, env.customer.ID, o.Customer.ID)

	stored, err := env.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateDelivered, stored.State)

	assert.Equal(t, []service.OrderEventType{service.OrderFinalized, service.OrderDelivered}, env.bus.types())
	assert.Equal(t, models.OrderStateFinished, env.bus.events[0].State)
	assert.Equal(t, models.PaymentCard, env.bus.events[0].PaymentMethod)
	assert.Equal(t, models.OrderStateDelivered, env.bus.events[1].State)
	assert.Equal(t, "ana@example.com", env.bus.events[0].CustomerEmail)
	assert.True(t, decimal.RequireFromString("25.00").Equal(env.bus.events[0].Total))

	_, err = env.svc.GetCart(ctx, env.customer.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// доставленный заказ уже не отменить
	_, err = env.svc.CancelOrder(ctx, env.customer.ID)
	assert.ErrorIs(t, err, service.ErrIllegalState)
	stored, err = env.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateDelivered, stored.State)
}

func TestFinalize_StaleConflictDoesNotCharge(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()
	pay := &countingPayment{}
	svc := service.NewOrderService(env.repo, env.cust, env.prods,
		service.Payments{models.PaymentCard: pay}, env.bus, zap.NewNop(), env.opts)

	cart, err := svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)

	env.repo.staleUpdates = 1
	_, err = svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	assert.ErrorIs(t, err, service.ErrConcurrentUpdate)
	assert.Equal(t, 0, pay.count())
	assert.Empty(t, env.bus.types())

	again, err := svc.GetCart(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
	assert.Equal(t, cart.Version, again.Version)

	_, err = svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, 1, pay.count())
}

func TestFinalize_ThenDeliverOnce(t *testing.T) {
	opts := service.DefaultOrderOptions()
	opts.AutoDeliver = false
	env := newOrderEnv(t, opts)
	ctx := context.Background()

	_, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)

	o, err := env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateFinished, o.State)
	assert.Equal(t, models.PaymentCash, o.PaymentMethod)

	d, err := env.svc.DeliverOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateDelivered, d.State)

	_, err = env.svc.DeliverOrder(ctx, o.ID)
	assert.ErrorIs(t, err, service.ErrIllegalState)
	assert.ErrorIs(t, err, service.ErrAlreadyDelivered)
}

func TestFinalize_Errors(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	_, err := env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	assert.ErrorIs(t, err, service.ErrIllegalState)
	assert.ErrorIs(t, err, service.ErrNoPendingOrder)

	_, err = env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentUnpaid)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	_, err = env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentMethod("BITCOIN"))
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	// корзина без строк не финализируется
	env.repo.put(&models.Order{CustomerID: env.customer.ID, State: models.OrderStatePending, PaymentMethod: models.PaymentUnpaid})
	_, err = env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	assert.ErrorIs(t, err, service.ErrEmptyOrder)
	assert.ErrorIs(t, err, service.ErrIllegalState)
}

func TestFinalize_PaymentDeclinedKeepsCart(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()
	svc := service.NewOrderService(env.repo, env.cust, env.prods,
		service.Payments{models.PaymentCard: declinePayment{}}, env.bus, zap.NewNop(), env.opts)

	cart, err := svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)

	_, err = svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	assert.ErrorIs(t, err, service.ErrPaymentDeclined)

	again, err := svc.GetCart(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
	assert.Equal(t, models.OrderStatePending, again.State)
	assert.Empty(t, env.bus.types())
}

func TestCancel(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	_, err := env.svc.CancelOrder(ctx, env.customer.ID)
	assert.ErrorIs(t, err, service.ErrIllegalState)

	cart, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)

	o, err := env.svc.CancelOrder(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, o.ID)
	assert.Equal(t, models.OrderStateCanceled, o.State)

	_, err = env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	assert.ErrorIs(t, err, service.ErrIllegalState)

	// отменённый заказ остаётся в истории
	list, err := env.svc.GetOrdersByCustomer(ctx, env.customer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.OrderStateCanceled, list[0].State)

	_, err = env.svc.DeliverOrder(ctx, o.ID)
	assert.ErrorIs(t, err, service.ErrNotDeliverable)

	// после отмены можно собрать новую корзину
	next, err := env.svc.AddToCart(ctx, env.p2.ID, env.customer.ID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, next.ID)
	assert.Equal(t, []service.OrderEventType{service.OrderCanceled}, env.bus.types())
}

func TestExpireCart(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	cart, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)

	// корзину меняли после момента простоя
	_, err = env.svc.ExpireCart(ctx, env.customer.ID, cart.ID, time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, service.ErrCartTouched)
	assert.ErrorIs(t, err, service.ErrIllegalState)

	// выборка видела другую корзину
	_, err = env.svc.ExpireCart(ctx, env.customer.ID, uuid.New(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, service.ErrCartTouched)

	still, err := env.svc.GetCart(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatePending, still.State)
	assert.Empty(t, env.bus.types())

	o, err := env.svc.ExpireCart(ctx, env.customer.ID, cart.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateCanceled, o.State)
	assert.Equal(t, []service.OrderEventType{service.OrderCanceled}, env.bus.types())

	_, err = env.svc.ExpireCart(ctx, env.customer.ID, cart.ID, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, service.ErrNoPendingOrder)
}

func TestDeliver_Errors(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	_, err := env.svc.DeliverOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	cart, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)
	_, err = env.svc.DeliverOrder(ctx, cart.ID)
	assert.ErrorIs(t, err, service.ErrIllegalState)
	assert.ErrorIs(t, err, service.ErrNotDeliverable)
}

func TestQueriesAndDelete(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	_, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)
	done, err := env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	require.NoError(t, err)
	cart, err := env.svc.AddToCart(ctx, env.p2.ID, env.customer.ID, 3)
	require.NoError(t, err)

	delivered, err := env.svc.GetOrdersByState(ctx, env.customer.ID, models.OrderStateDelivered)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, done.ID, delivered[0].ID)

	all, err := env.svc.GetOrdersByState(ctx, uuid.Nil, models.OrderStatePending)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = env.svc.GetOrdersByState(ctx, env.customer.ID, models.OrderState("LOST"))
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	_, err = env.svc.GetOrdersByState(ctx, uuid.New(), models.OrderStateDelivered)
	assert.ErrorIs(t, err, service.ErrCustomerNotFound)

	_, err = env.svc.GetOrdersByCustomer(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.svc.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrOrderNotFound)

	assert.ErrorIs(t, env.svc.DeleteOrder(ctx, cart.ID), service.ErrIllegalState)
	require.NoError(t, env.svc.DeleteOrder(ctx, done.ID))
	assert.ErrorIs(t, env.svc.DeleteOrder(ctx, done.ID), service.ErrNotFound)
	assert.Equal(t, 1, env.repo.count())
}

func TestStorageFailuresAreWrapped(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()
	cause := errors.New("connection reset")

	env.repo.failNext = cause
	_, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	assert.ErrorIs(t, err, service.ErrStorage)
	assert.ErrorIs(t, err, cause)

	env.repo.failNext = cause
	_, err = env.svc.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrStorage)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	env.bus.err = errors.New("kafka down")
	ctx := context.Background()

	_, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
	require.NoError(t, err)
	o, err := env.svc.FinalizeOrder(ctx, env.customer.ID, models.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateDelivered, o.State)
}

func TestAddToCart_ConcurrentSingleInstance(t *testing.T) {
	env := newOrderEnv(t, service.DefaultOrderOptions())
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.AddToCart(ctx, env.p1.ID, env.customer.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	pending, err := env.svc.GetOrdersByState(ctx, env.customer.ID, models.OrderStatePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Len(t, pending[0].Lines, n)
}

func TestAddToCart_ConcurrentInstancesShareOneCart(t *testing.T) {
	const perInstance = 10
	opts := service.DefaultOrderOptions()
	opts.MaxAttempts = 2*perInstance + 1
	env := newOrderEnv(t, opts)
	ctx := context.Background()

	// два экземпляра сервиса над одним хранилищем: внутрипроцессная блокировка не спасает
	instances := []service.OrderService{env.newService(), env.newService()}

	var wg sync.WaitGroup
	errs := make(chan error, perInstance*len(instances))
	for _, svc := range instances {
		for i := 0; i < perInstance; i++ {
			wg.Add(1)
			go func(svc service.OrderService) {
				defer wg.Done()
				_, err := svc.AddToCart(ctx, env.p2.ID, env.customer.ID, 1)
				errs <- err
			}(svc)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	pending, err := env.svc.GetOrdersByState(ctx, env.customer.ID, models.OrderStatePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Len(t, pending[0].Lines, perInstance*len(instances))
}
