package service

import (
	"context"
	"time"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
)

type OrderOptions struct {
	// AutoDeliver: finalize сразу переводит заказ в DELIVERED той же транзакцией.
	AutoDeliver bool
	// MaxAttempts повторов addToCart при гонке с другим экземпляром сервиса.
	MaxAttempts int
}

func DefaultOrderOptions() OrderOptions {
	return OrderOptions{AutoDeliver: true, MaxAttempts: 3}
}

type OrderService interface {
	AddToCart(ctx context.Context, productID, customerID uuid.UUID, quantity int) (*models.Order, error)
	FinalizeOrder(ctx context.Context, customerID uuid.UUID, method models.PaymentMethod) (*models.Order, error)
	CancelOrder(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	// ExpireCart отменяет корзину orderID, если с idleSince её не меняли; иначе ErrCartTouched.
	ExpireCart(ctx context.Context, customerID, orderID uuid.UUID, idleSince time.Time) (*models.Order, error)
	DeliverOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)

	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetCart(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	GetOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error)
	// GetOrdersByState: uuid.Nil в customerID означает заказы всех покупателей.
	GetOrdersByState(ctx context.Context, customerID uuid.UUID, state models.OrderState) ([]*models.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}
