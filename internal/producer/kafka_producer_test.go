package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishOrderEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &OrderEventProducer{writer: w, timeout: time.Second}

	e := service.OrderEvent{
		Type:          service.OrderDelivered,
		OrderID:       uuid.New(),
		CustomerID:    uuid.New(),
		CustomerEmail: "ana@example.com",
		State:         models.OrderStateDelivered,
		PaymentMethod: models.PaymentCard,
		Total:         decimal.RequireFromString("25.00"),
		At:            time.Now().UTC(),
	}
	require.NoError(t, p.PublishOrderEvent(context.Background(), e))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, e.OrderID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "ORDER_DELIVERED", string(msg.Headers[0].Value))

	var got service.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, e.OrderID, got.OrderID)
	assert.Equal(t, models.OrderStateDelivered, got.State)
	assert.True(t, e.Total.Equal(got.Total))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishOrderEvent_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := &OrderEventProducer{writer: w, timeout: time.Second}
	err := p.PublishOrderEvent(context.Background(), service.OrderEvent{Type: service.OrderCanceled, OrderID: uuid.New()})
	assert.Error(t, err)
}
