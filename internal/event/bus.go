package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ErrInvalidPattern indicates a subscription pattern with empty segments.
var ErrInvalidPattern = errors.New("invalid topic pattern")

// HandlerFunc receives a delivered event. A returned error is collected
// by Publish but never stops delivery to later subscribers.
type HandlerFunc func(ctx context.Context, ev Event) error

// Subscription is a live registration on the bus.
type Subscription struct {
	id      uint64
	pattern Topic
	handler HandlerFunc
	bus     *Bus
}

// Pattern returns the pattern the subscription listens on.
func (s *Subscription) Pattern() Topic {
	return s.pattern
}

// Unsubscribe removes the subscription. It is safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s.id)
}

// Stats holds bus delivery counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	HandlerErrors uint64
}

// Bus dispatches events synchronously to matching subscriptions in the
// order they subscribed. All methods are thread-safe; handlers must not
// publish back into the bus from the delivery goroutine of the same
// event chain if they also take locks the publisher holds.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	nextID uint64

	published     atomic.Uint64
	delivered     atomic.Uint64
	handlerErrors atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every topic matching the pattern.
func (b *Bus) Subscribe(pattern Topic, handler HandlerFunc) (*Subscription, error) {
	if !validPattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if handler == nil {
		return nil, errors.New("nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, pattern: pattern, handler: handler, bus: b}
	b.subs = append(b.subs, sub)
	return sub, nil
}

func validPattern(pattern Topic) bool {
	if pattern == "" {
		return false
	}
	for _, seg := range pattern.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s *Subscription) bool { return s.id == id })
}

// Publish delivers the payload to every matching subscription and returns
// the joined handler errors. Handler panics are converted to errors so a
// misbehaving observer cannot take down the publishing command.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) error {
	b.published.Add(1)

	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if topic.Matches(sub.pattern) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	ev := Event{Topic: topic, At: time.Now(), Payload: payload}
	var errs []error
	for _, sub := range matched {
		if err := b.deliver(ctx, sub, ev); err != nil {
			b.handlerErrors.Add(1)
			errs = append(errs, fmt.Errorf("%s: %w", sub.pattern, err))
			continue
		}
		b.delivered.Add(1)
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return sub.handler(ctx, ev)
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Stats returns a snapshot of the delivery counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerErrors: b.handlerErrors.Load(),
	}
}
