package table

import (
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const defaultSubscriberBuffer = 64

type subscriber struct {
	ch   chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Subscribe streams events from now on. The channel is closed by cancel or
// when the table closes. A subscriber that falls behind loses events.
func (t *Table) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	sub := &subscriber{ch: make(chan Event, buffer)}
	id := uuid.NewString()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	t.subs[id] = sub
	t.mu.Unlock()

	return sub.ch, func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
		sub.close()
	}
}

// broadcast 推送给所有订阅者. Must hold mu.
func (t *Table) broadcast(ev Event) {
	for id, sub := range t.subs {
		select {
		case sub.ch <- ev:
		default:
			log.Warnf("subscriber too slow, event dropped. tb=%s sub=%s seq=%d", t.ID, id, ev.Seq)
		}
	}
}

func (t *Table) closeSubscribers() {
	for id, sub := range t.subs {
		sub.close()
		delete(t.subs, id)
	}
}

// Subscribers 当前订阅数
func (t *Table) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
