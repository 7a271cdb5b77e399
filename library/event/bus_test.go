package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus(t *testing.T) {
	b := NewEventBus()
	var got []any
	b.Subscribe("room.game", func(v any) { panic("bad handler") })
	b.Subscribe("room.game", func(v any) { got = append(got, v) })
	b.Subscribe("log.logger", func(v any) { t.Fatal("wrong topic") })

	b.Publish("room.game", 1)
	b.Publish("room.game", "two")
	b.Publish("unknown", 3)
	assert.Equal(t, []any{1, "two"}, got)
}
