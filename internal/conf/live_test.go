package conf

import (
	"encoding/json"
	"testing"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/ludo/library/event"
)

type jsonValue struct {
	config.Value
	data string
}

func (v jsonValue) Scan(dst any) error { return json.Unmarshal([]byte(v.data), dst) }

func TestLiveRoomSwapsOnReload(t *testing.T) {
	bc := DefaultConfig()
	bus := event.NewEventBus()
	live := NewLiveRoom(bc.Room)
	live.Bind(bus)

	before := live.Load()
	game := before.Game
	maxTables := game.MaxTables
	obs := observer("room.game", bc.Room.Game, bus)

	obs("room.game", jsonValue{data: `{"max_tables": 7}`})
	after := live.Load()
	require.NotSame(t, before, after)
	assert.Equal(t, 7, after.Game.MaxTables)
	assert.Same(t, before.Robot, after.Robot)
	assert.Equal(t, maxTables, game.MaxTables, "published config must stay untouched")
	assert.Equal(t, maxTables, bc.Room.Game.MaxTables)

	// same values again: nothing to publish
	obs("room.game", jsonValue{data: `{"max_tables": 7}`})
	assert.Same(t, after, live.Load())

	// invalid values are rejected
	obs("room.game", jsonValue{data: `{"max_tables": -1}`})
	assert.Same(t, after, live.Load())

	obs("room.game", jsonValue{data: `{"max_tables": 9}`})
	assert.Equal(t, 9, live.Load().Game.MaxTables)
	assert.Equal(t, 7, after.Game.MaxTables)
}

func TestLiveRoomIgnoresOtherTypes(t *testing.T) {
	bus := event.NewEventBus()
	live := NewLiveRoom(DefaultConfig().Room)
	live.Bind(bus)

	before := live.Load()
	bus.Publish("room.turn", "not a turn")
	assert.Same(t, before, live.Load())
}
