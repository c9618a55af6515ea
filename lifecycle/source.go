package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/reportcache/observe"
)

// Handler reacts to the end of a session.
type Handler func(ctx context.Context, sessionID string)

// Source delivers session-end events to subscribed handlers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Subscribe returns an idempotent unsubscribe function.
// - Each event is delivered at most once per subscribed handler.
type Source interface {
	Subscribe(h Handler) (unsubscribe func())
}

type subscription struct {
	id uint64
	h  Handler
}

// Broadcaster is an in-process Source. The zero value is ready to use.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
	logger observe.Logger
}

// NewBroadcaster creates a Broadcaster that logs recovered handler panics
// to logger. A nil logger discards them.
func NewBroadcaster(logger observe.Logger) *Broadcaster {
	return &Broadcaster{logger: logger}
}

// Subscribe registers h. Nil handlers are ignored.
func (b *Broadcaster) Subscribe(h Handler) func() {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// End notifies every subscriber, in subscription order, that sessionID
// has ended. A panicking handler does not stop delivery to the others.
func (b *Broadcaster) End(ctx context.Context, sessionID string) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s.h, sessionID)
	}
}

func (b *Broadcaster) deliver(ctx context.Context, h Handler, sessionID string) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error(ctx, "session end handler panicked",
				observe.F("session", sessionID),
				observe.F("panic", fmt.Sprint(r)),
			)
		}
	}()
	h(ctx, sessionID)
}

// Len returns the number of subscribed handlers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Ensure Broadcaster implements Source
var _ Source = (*Broadcaster)(nil)
