package event

import (
	"sync"

	"github.com/yola1107/ludo/library/xgo"
)

type Handler func(val any)

// Bus 同步事件总线. Handlers run on the publisher's goroutine in
// subscription order; a panicking handler does not stop the others.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewEventBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

func (b *Bus) Publish(topic string, val any) {
	b.mu.RLock()
	hs := b.handlers[topic]
	b.mu.RUnlock()
	for _, h := range hs {
		func() {
			defer xgo.RecoverFromError(nil)
			h(val)
		}()
	}
}
