package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Routing keys published by the core.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	PaymentPending     = "payment.pending"
	PaymentCompleted   = "payment.completed"
	TableReleased      = "table.released"
)

// Publisher delivers domain events best-effort. Implementations must never
// block the calling operation on broker failures.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any)
}

// AMQPPublisher publishes events to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	log      *slog.Logger
}

func NewAMQP(url, exchange string, log *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("event marshal failed", "key", routingKey, "err", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(pubCtx, p.exchange, routingKey, false, false, amqp091.Publishing{
		DeliveryMode: amqp091.Persistent,
		ContentType:  "application/json",
		Body:         body,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		p.log.Error("event publish failed", "key", routingKey, "err", err)
	}
}

func (p *AMQPPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) {}
