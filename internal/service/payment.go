package service

import (
	"context"

	"pizzeria-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentStrategy interface {
	Pay(ctx context.Context, o *models.Order, amount decimal.Decimal) error
}

// Payments сопоставляет способ оплаты и стратегию. Для UNPAID стратегии нет.
type Payments map[models.PaymentMethod]PaymentStrategy

func DefaultPayments(log *zap.Logger) Payments {
	return Payments{
		models.PaymentCard: &CardPayment{log: log},
		models.PaymentCash: &CashPayment{log: log},
	}
}

type CardPayment struct{ log *zap.Logger }

func (p *CardPayment) Pay(ctx context.Context, o *models.Order, amount decimal.Decimal) error {
	p.log.Info("card payment accepted",
		zap.String("order_id", o.ID.String()),
		zap.String("amount", amount.StringFixed(2)))
	return nil
}

type CashPayment struct{ log *zap.Logger }

func (p *CashPayment) Pay(ctx context.Context, o *models.Order, amount decimal.Decimal) error {
	p.log.Info("cash payment registered",
		zap.String("order_id", o.ID.String()),
		zap.String("amount", amount.StringFixed(2)))
	return nil
}
