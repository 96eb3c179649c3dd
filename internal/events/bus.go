// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusClosed is returned by Publish after Shutdown.
var ErrBusClosed = errors.New("event bus is shut down")

type registration struct {
	id      string
	handler Handler
}

// Bus is an in-memory observer bus.
//
// Delivery contract: Publish calls every handler registered for the event
// type synchronously, in registration order, on the caller's goroutine.
// Each handler sees an event at most once. Nothing is buffered or replayed,
// so a handler registered after Publish returns never sees that event.
// A handler that panics or errors does not stop delivery to the others.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]registration
	closed   bool
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]registration),
		logger:   logger.Named("event_bus"),
	}
}

// Subscribe registers a handler for one or more event types.
func (b *Bus) Subscribe(handler Handler, types ...EventType) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], registration{id: id, handler: handler})
	}

	b.logger.Debug("Handler subscribed",
		zap.Any("event_types", types),
		zap.String("subscription_id", id))

	return &subscription{id: id, eventBus: b, types: types}
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *Bus) SubscribeFunc(fn func(context.Context, Event) error, types ...EventType) Subscription {
	return b.Subscribe(HandlerFunc(fn), types...)
}

// SubscribeChan delivers events to a buffered channel. Sends never block:
// when the channel is full the event is dropped for this subscriber.
// The channel is closed by Unsubscribe.
func (b *Bus) SubscribeChan(buffer int, types ...EventType) (<-chan Event, Subscription) {
	ch := make(chan Event, buffer)
	var closeMu sync.Mutex
	closed := false

	handler := HandlerFunc(func(_ context.Context, e Event) error {
		closeMu.Lock()
		defer closeMu.Unlock()
		if closed {
			return nil
		}
		select {
		case ch <- e:
		default:
			b.logger.Debug("Subscriber channel full, dropping event",
				zap.String("event_type", string(e.Type())))
		}
		return nil
	})

	sub := b.Subscribe(handler, types...).(*subscription)
	sub.onClose = func() {
		closeMu.Lock()
		closed = true
		close(ch)
		closeMu.Unlock()
	}
	return ch, sub
}

// Publish delivers event to its handlers. Handler errors are logged and
// returned joined; handler panics are recovered and reported as errors.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	regs := b.handlers[event.Type()]
	// Copy so handlers may (un)subscribe without deadlocking
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	b.mu.RUnlock()

	var errs []error
	for _, r := range snapshot {
		if err := b.deliver(ctx, r, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.String("handler_id", r.id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, r registration, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler %s panicked: %v", r.id, rec)
		}
	}()
	return r.handler.Handle(ctx, event)
}

// unsubscribe removes a subscription and reports whether it was present.
func (b *Bus) unsubscribe(id string, types []EventType) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := false
	for _, t := range types {
		regs := b.handlers[t]
		for i, r := range regs {
			if r.id != id {
				continue
			}
			// new slice so in-flight snapshots stay intact
			next := make([]registration, 0, len(regs)-1)
			next = append(next, regs[:i]...)
			next = append(next, regs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, t)
			} else {
				b.handlers[t] = next
			}
			removed = true
			break
		}
	}

	if removed {
		b.logger.Debug("Handler unsubscribed", zap.String("subscription_id", id))
	}
	return removed
}

// Shutdown stops accepting events. Registered handlers are kept.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.logger.Info("Event bus shut down")
}

// Stats returns statistics about the event bus.
func (b *Bus) Stats() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlerCounts := make(map[string]int)
	for eventType, handlers := range b.handlers {
		handlerCounts[string(eventType)] = len(handlers)
	}
	return map[string]interface{}{
		"event_types":       len(b.handlers),
		"handlers_per_type": handlerCounts,
		"closed":            b.closed,
	}
}
