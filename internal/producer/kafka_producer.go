package producer

import (
	"context"
	"encoding/json"
	"time"

	"pizzeria-service/internal/service"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventProducer публикует события заказов в Kafka. Ключ сообщения: id заказа,
// поэтому события одного заказа попадают в одну партицию по порядку.
type OrderEventProducer struct {
	writer  messageWriter
	timeout time.Duration
}

func NewOrderEventProducer(brokers []string, topic string) *OrderEventProducer {
	return &OrderEventProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		timeout: 5 * time.Second,
	}
}

func (p *OrderEventProducer) PublishOrderEvent(ctx context.Context, e service.OrderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
}

func (p *OrderEventProducer) Close() error {
	return p.writer.Close()
}
