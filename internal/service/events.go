package service

import (
	"context"
	"time"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderFinalized OrderEventType = "ORDER_FINALIZED"
	OrderDelivered OrderEventType = "ORDER_DELIVERED"
	OrderCanceled  OrderEventType = "ORDER_CANCELED"
)

type OrderLineEvent struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Amount      int             `json:"amount"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderEvent struct {
	Type          OrderEventType       `json:"type"`
	OrderID       uuid.UUID            `json:"order_id"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	CustomerName  string               `json:"customer_name,omitempty"`
	CustomerEmail string               `json:"customer_email,omitempty"`
	State         models.OrderState    `json:"state"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Total         decimal.Decimal      `json:"total"`
	Lines         []OrderLineEvent     `json:"lines"`
	At            time.Time            `json:"at"`
}

type EventBus interface {
	PublishOrderEvent(ctx context.Context, e OrderEvent) error
}

func NewOrderEvent(t OrderEventType, o *models.Order, at time.Time) OrderEvent {
	lines := make([]OrderLineEvent, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		ev := OrderLineEvent{ProductID: l.ProductID, Amount: l.Amount, LineTotal: l.Price()}
		if l.Product != nil {
			ev.ProductName = l.Product.Name
			ev.UnitPrice = l.Product.Price
		}
		lines = append(lines, ev)
	}

	e := OrderEvent{
		Type:          t,
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		State:         o.State,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total(),
		Lines:         lines,
		At:            at,
	}
	if o.Customer != nil {
		e.CustomerName = o.Customer.Name
		e.CustomerEmail = o.Customer.Email
	}
	return e
}
