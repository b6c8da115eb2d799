package events

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"order-management-api/lifecycle"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chanSink struct {
	created chan lifecycle.OrderCreatedEvent
	updated chan lifecycle.StatusUpdatedEvent
}

func newChanSink() *chanSink {
	return &chanSink{
		created: make(chan lifecycle.OrderCreatedEvent, 16),
		updated: make(chan lifecycle.StatusUpdatedEvent, 16),
	}
}

func (s *chanSink) OrderCreated(ctx context.Context, ev lifecycle.OrderCreatedEvent) error {
	s.created <- ev
	return nil
}

func (s *chanSink) OrderStatusUpdated(ctx context.Context, ev lifecycle.StatusUpdatedEvent) error {
	s.updated <- ev
	return nil
}

func TestEmitterDeliversEvents(t *testing.T) {
	sink := newChanSink()
	e := NewEmitter(discardLogger(), 8, sink)
	defer e.Close()

	e.OrderCreated(context.Background(), lifecycle.OrderCreatedEvent{OrderID: 1, CustomerRef: "cust-1", RestaurantID: 7})
	e.OrderStatusUpdated(context.Background(), lifecycle.StatusUpdatedEvent{OrderID: 1, Status: "confirmed"})

	select {
	case ev := <-sink.created:
		if ev.OrderID != 1 || ev.CustomerRef != "cust-1" {
			t.Errorf("unexpected created event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("created event not delivered")
	}

	select {
	case ev := <-sink.updated:
		if ev.OrderID != 1 || ev.Status != "confirmed" {
			t.Errorf("unexpected updated event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("updated event not delivered")
	}
}

type blockingSink struct {
	gate chan struct{}
}

func (s *blockingSink) OrderCreated(ctx context.Context, ev lifecycle.OrderCreatedEvent) error {
	<-s.gate
	return nil
}

func (s *blockingSink) OrderStatusUpdated(ctx context.Context, ev lifecycle.StatusUpdatedEvent) error {
	<-s.gate
	return nil
}

func TestEmitterNeverBlocksCaller(t *testing.T) {
	sink := &blockingSink{gate: make(chan struct{})}
	e := NewEmitter(discardLogger(), 1, sink)

	// With the worker stuck and the queue full, further emits must drop
	// instead of blocking the request path.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			e.OrderCreated(context.Background(), lifecycle.OrderCreatedEvent{OrderID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full queue")
	}

	close(sink.gate)
	e.Close()
}

type countingSink struct {
	n atomic.Int64
}

func (s *countingSink) OrderCreated(ctx context.Context, ev lifecycle.OrderCreatedEvent) error {
	s.n.Add(1)
	return nil
}

func (s *countingSink) OrderStatusUpdated(ctx context.Context, ev lifecycle.StatusUpdatedEvent) error {
	s.n.Add(1)
	return nil
}

func TestEmitterCloseDrainsQueue(t *testing.T) {
	sink := &countingSink{}
	e := NewEmitter(discardLogger(), 32, sink)

	for i := 0; i < 20; i++ {
		e.OrderCreated(context.Background(), lifecycle.OrderCreatedEvent{OrderID: uint(i)})
	}
	e.Close()

	if got := sink.n.Load(); got != 20 {
		t.Errorf("delivered = %d, want 20", got)
	}
}
