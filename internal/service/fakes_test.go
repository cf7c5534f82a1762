package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"
	"pizzeria-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memOrderRepo ведёт себя как репозиторий на PostgreSQL: одна корзина на покупателя,
// оптимистичная версия, копии при чтении и записи.
type memOrderRepo struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	orders map[uuid.UUID]*models.Order

	failNext error
	// staleUpdates: столько следующих Update вернут ErrStaleOrder, как при гонке с другим экземпляром
	staleUpdates int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Lines = append([]models.OrderLine(nil), o.Lines...)
	return &cp
}

func (r *memOrderRepo) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *memOrderRepo) Save(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if o.State == models.OrderStatePending {
		for _, ex := range r.orders {
			if ex.CustomerID == o.CustomerID && ex.State == models.OrderStatePending {
				return repository.ErrPendingOrderExists
			}
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
		o.Lines[i].Position = i
		if o.Lines[i].ID == uuid.Nil {
			o.Lines[i].ID = uuid.New()
		}
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *memOrderRepo) Update(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if r.staleUpdates > 0 {
		r.staleUpdates--
		return repository.ErrStaleOrder
	}
	cur, ok := r.orders[o.ID]
	if !ok || cur.Version != o.Version {
		return repository.ErrStaleOrder
	}
	if o.State == models.OrderStatePending {
		for id, ex := range r.orders {
			if id != o.ID && ex.CustomerID == o.CustomerID && ex.State == models.OrderStatePending {
				return repository.ErrPendingOrderExists
			}
		}
	}
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
		o.Lines[i].Position = i
		if o.Lines[i].ID == uuid.Nil {
			o.Lines[i].ID = uuid.New()
		}
	}
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *memOrderRepo) Delete(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	delete(r.orders, o.ID)
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	if o, ok := r.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, nil
}

func (r *memOrderRepo) filter(pred func(*models.Order) bool) []*models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Order
	for _, o := range r.orders {
		if pred(o) {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func (r *memOrderRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	return r.filter(func(o *models.Order) bool { return o.CustomerID == customerID }), nil
}

func (r *memOrderRepo) FindByState(ctx context.Context, state models.OrderState, customerID uuid.UUID) ([]*models.Order, error) {
	return r.filter(func(o *models.Order) bool {
		return o.State == state && (customerID == uuid.Nil || o.CustomerID == customerID)
	}), nil
}

func (r *memOrderRepo) FindPending(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	for _, o := range r.orders {
		if o.CustomerID == customerID && o.State == models.OrderStatePending {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (r *memOrderRepo) ListStale(ctx context.Context, state models.OrderState, before time.Time, limit int) ([]*models.Order, error) {
	out := r.filter(func(o *models.Order) bool { return o.State == state && o.UpdatedAt.Before(before) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memOrderRepo) WithTx(ctx context.Context, fn func(txRepo repository.OrderRepo) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := make(map[uuid.UUID]*models.Order, len(r.orders))
	for id, o := range r.orders {
		snapshot[id] = cloneOrder(o)
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.orders = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// put кладёт заказ в обход проверок, для подготовки нестандартных состояний.
func (r *memOrderRepo) put(o *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	r.orders[o.ID] = cloneOrder(o)
}

type memCustomers map[uuid.UUID]*models.Customer

func (m memCustomers) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return m[id], nil
}

type memProducts map[uuid.UUID]*models.Product

func (m memProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return m[id], nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []service.OrderEvent
	err    error
}

func (b *recordingBus) PublishOrderEvent(ctx context.Context, e service.OrderEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return b.err
}

func (b *recordingBus) types() []service.OrderEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]service.OrderEventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

type declinePayment struct{}

func (declinePayment) Pay(ctx context.Context, o *models.Order, amount decimal.Decimal) error {
	return errors.New("card expired")
}

type countingPayment struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPayment) Pay(ctx context.Context, o *models.Order, amount decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return nil
}

func (p *countingPayment) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
