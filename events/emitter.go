package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"order-management-api/lifecycle"
)

type eventKind int

const (
	kindOrderCreated eventKind = iota
	kindStatusUpdated
)

type envelope struct {
	id      string
	kind    eventKind
	created lifecycle.OrderCreatedEvent
	status  lifecycle.StatusUpdatedEvent
}

// Emitter decouples notification delivery from the request path. Events are
// queued on a buffered channel and fanned out to the configured sinks by a
// single worker goroutine; a full queue drops the event rather than block
// the caller. Sink failures are logged and discarded.
type Emitter struct {
	sinks []lifecycle.NotificationSink
	queue chan envelope
	log   *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewEmitter builds an emitter with the given queue capacity and starts its
// delivery worker
func NewEmitter(log *slog.Logger, buffer int, sinks ...lifecycle.NotificationSink) *Emitter {
	if buffer < 1 {
		buffer = 64
	}
	e := &Emitter{
		sinks: sinks,
		queue: make(chan envelope, buffer),
		log:   log,
		done:  make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Emitter) run() {
	defer close(e.done)
	for ev := range e.queue {
		e.deliver(ev)
	}
}

func (e *Emitter) deliver(ev envelope) {
	// Delivery happens off the request path; a fresh context keeps a
	// cancelled request from aborting an already-queued notification.
	ctx := context.Background()
	for _, sink := range e.sinks {
		var err error
		switch ev.kind {
		case kindOrderCreated:
			err = sink.OrderCreated(ctx, ev.created)
		case kindStatusUpdated:
			err = sink.OrderStatusUpdated(ctx, ev.status)
		}
		if err != nil {
			e.log.Warn("notification sink failed", "event_id", ev.id, "error", err)
		}
	}
}

func (e *Emitter) enqueue(ev envelope) {
	select {
	case e.queue <- ev:
	default:
		e.log.Warn("notification queue full, event dropped", "event_id", ev.id)
	}
}

// OrderCreated queues an order-created event; it never blocks
func (e *Emitter) OrderCreated(ctx context.Context, ev lifecycle.OrderCreatedEvent) error {
	e.enqueue(envelope{id: uuid.NewString(), kind: kindOrderCreated, created: ev})
	return nil
}

// OrderStatusUpdated queues a status-updated event; it never blocks
func (e *Emitter) OrderStatusUpdated(ctx context.Context, ev lifecycle.StatusUpdatedEvent) error {
	e.enqueue(envelope{id: uuid.NewString(), kind: kindStatusUpdated, status: ev})
	return nil
}

// Close stops accepting events and waits for the queue to drain
func (e *Emitter) Close() {
	e.closeOnce.Do(func() {
		close(e.queue)
		<-e.done
	})
}
