package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"order-management-api/lifecycle"
)

const ordersExchange = "orders.events"

// AMQPSink publishes lifecycle events to a RabbitMQ topic exchange so other
// services (notifications, analytics) can subscribe. A channel is opened per
// publish; the broker connection is shared.
type AMQPSink struct {
	conn *amqp.Connection
}

// NewAMQPSink dials the broker and declares the events exchange
func NewAMQPSink(url string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ordersExchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPSink{conn: conn}, nil
}

func (s *AMQPSink) publish(ctx context.Context, routingKey string, payload any) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, ordersExchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (s *AMQPSink) OrderCreated(ctx context.Context, ev lifecycle.OrderCreatedEvent) error {
	return s.publish(ctx, "order.created", ev)
}

func (s *AMQPSink) OrderStatusUpdated(ctx context.Context, ev lifecycle.StatusUpdatedEvent) error {
	return s.publish(ctx, fmt.Sprintf("order.status.%s", ev.Status), ev)
}

func (s *AMQPSink) Close() error {
	return s.conn.Close()
}
