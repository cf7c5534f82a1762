package dto

import (
	"time"

	"pizzeria-service/internal/models"
)

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

type FinalizeRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type OrderLineResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Amount      int    `json:"amount"`
	UnitPrice   string `json:"unit_price"`
	Price       string `json:"price"`
}

// OrderResponse: total и price всегда считаются из строк, в базе не хранятся.
type OrderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id"`
	OrderDate     string              `json:"order_date"`
	State         string              `json:"state"`
	PaymentMethod string              `json:"payment_method"`
	Total         string              `json:"total"`
	Lines         []OrderLineResponse `json:"lines"`
}

type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
}

func ToOrderResponse(o *models.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		lr := OrderLineResponse{
			ID:        l.ID.String(),
			ProductID: l.ProductID.String(),
			Amount:    l.Amount,
			Price:     l.Price().StringFixed(2),
		}
		if l.Product != nil {
			lr.ProductName = l.Product.Name
			lr.UnitPrice = l.Product.Price.StringFixed(2)
		}
		lines = append(lines, lr)
	}
	return OrderResponse{
		ID:            o.ID.String(),
		CustomerID:    o.CustomerID.String(),
		OrderDate:     o.OrderDate.UTC().Format(time.RFC3339),
		State:         string(o.State),
		PaymentMethod: string(o.PaymentMethod),
		Total:         o.Total().StringFixed(2),
		Lines:         lines,
	}
}

func ToOrderList(list []*models.Order) OrderListResponse {
	items := make([]OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, ToOrderResponse(o))
	}
	return OrderListResponse{Items: items}
}
