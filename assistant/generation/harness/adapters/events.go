package adapters

import (
	"sync"

	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	"github.com/rs/zerolog"
)

// EventHandler receives the payload of one published event.
type EventHandler func(payload string)

// EventBus fans named events out to subscribers. Handlers run synchronously
// on the publishing goroutine, in subscription order, and must return quickly.
type EventBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]subscription
	logger   zerolog.Logger
}

type subscription struct {
	id int
	fn EventHandler
}

func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]subscription),
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers fn for event and returns a func that removes it.
func (b *EventBus) Subscribe(event string, fn EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.handlers[event]
			for i, s := range subs {
				if s.id == id {
					b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers payload to every handler of event. A panicking handler is
// logged and skipped; Publish never fails.
func (b *EventBus) Publish(event string, payload string) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[event]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(event, s.fn, payload)
	}
}

func (b *EventBus) deliver(event string, fn EventHandler, payload string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("event", event).Interface("panic", r).Msg("event handler panicked")
		}
	}()
	fn(payload)
}

var _ ports.FragmentSink = (*EventBus)(nil)
