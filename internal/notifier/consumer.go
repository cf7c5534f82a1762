package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pizzeria-service/internal/service"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const receiptTemplate = "order_delivered"

type Sender interface {
	SendEmail(n EmailNotification) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// OrderEventConsumer читает события заказов и отправляет покупателю чек по доставленным заказам.
type OrderEventConsumer struct {
	reader messageReader
	sender Sender
	log    *zap.Logger
}

func NewOrderEventConsumer(brokers []string, groupID, topic string, sender Sender, log *zap.Logger) *OrderEventConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		CommitInterval:    time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return &OrderEventConsumer{reader: r, sender: sender, log: log}
}

func (c *OrderEventConsumer) Run(ctx context.Context) error {
	c.log.Info("kafka consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			c.log.Error("read message", zap.Error(err))
			continue
		}
		c.handle(m)
	}
}

func (c *OrderEventConsumer) handle(m kafka.Message) {
	var e service.OrderEvent
	if err := json.Unmarshal(m.Value, &e); err != nil {
		c.log.Error("unmarshal order event", zap.ByteString("value", m.Value), zap.Error(err))
		return
	}
	if e.Type != service.OrderDelivered {
		c.log.Debug("event skipped", zap.String("type", string(e.Type)), zap.String("order_id", e.OrderID.String()))
		return
	}
	if e.CustomerEmail == "" {
		c.log.Warn("delivered order without customer email", zap.String("order_id", e.OrderID.String()))
		return
	}

	n := receipt(e)
	if err := c.sender.SendEmail(n); err != nil {
		c.log.Error("send email failed", zap.String("to", n.To), zap.String("order_id", e.OrderID.String()), zap.Error(err))
		return
	}
	c.log.Info("receipt sent", zap.String("to", n.To), zap.String("order_id", e.OrderID.String()))
}

func receipt(e service.OrderEvent) EmailNotification {
	lines := make([]map[string]any, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, map[string]any{
			"Name":      l.ProductName,
			"Amount":    l.Amount,
			"UnitPrice": l.UnitPrice.StringFixed(2),
			"Total":     l.LineTotal.StringFixed(2),
		})
	}
	return EmailNotification{
		To:       e.CustomerEmail,
		Subject:  "Ваш заказ доставлен",
		Template: receiptTemplate,
		Data: map[string]any{
			"Name":          e.CustomerName,
			"OrderID":       e.OrderID.String(),
			"PaymentMethod": string(e.PaymentMethod),
			"Total":         e.Total.StringFixed(2),
			"Lines":         lines,
			"DeliveredAt":   e.At.Format("02.01.2006 15:04"),
		},
	}
}

func (c *OrderEventConsumer) Close() error { return c.reader.Close() }
