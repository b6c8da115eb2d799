package events

import (
	"context"
	"log/slog"

	"order-management-api/lifecycle"
)

// LogSink writes lifecycle events to the structured log. It is always
// registered so every deployment has at least one observer.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) OrderCreated(ctx context.Context, ev lifecycle.OrderCreatedEvent) error {
	s.log.Info("order created",
		"order_id", ev.OrderID,
		"customer_ref", ev.CustomerRef,
		"restaurant_id", ev.RestaurantID,
	)
	return nil
}

func (s *LogSink) OrderStatusUpdated(ctx context.Context, ev lifecycle.StatusUpdatedEvent) error {
	s.log.Info("order status updated",
		"order_id", ev.OrderID,
		"status", ev.Status,
	)
	return nil
}
