package conf

import (
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/ludo/library/event"
	"github.com/yola1107/ludo/library/ext"
)

// LiveRoom 当前房间配置. A reload stores a new *Room; a *Room returned by
// Load is never modified afterwards.
type LiveRoom struct {
	p atomic.Pointer[Room]
}

// NewLiveRoom starts from a private copy of r.
func NewLiveRoom(r *Room) *LiveRoom {
	l := &LiveRoom{}
	cp := &Room{}
	if err := ext.DeepCopy(cp, r); err != nil {
		log.Errorf("[config] copy room failed: %v", err)
		cp = r
	}
	l.p.Store(cp)
	return l
}

func (l *LiveRoom) Load() *Room { return l.p.Load() }

// Bind follows the room sections published on bus.
func (l *LiveRoom) Bind(bus *event.Bus) {
	bus.Subscribe("room.game", func(val any) {
		if v, ok := val.(*Room_Game); ok {
			l.swap(func(r *Room) { r.Game = v })
		}
	})
	bus.Subscribe("room.robot", func(val any) {
		if v, ok := val.(*Room_Robot); ok {
			l.swap(func(r *Room) { r.Robot = v })
		}
	})
	bus.Subscribe("room.turn", func(val any) {
		if v, ok := val.(*Room_Turn); ok {
			l.swap(func(r *Room) { r.Turn = v })
		}
	})
	bus.Subscribe("room.log_cache", func(val any) {
		if v, ok := val.(*Room_LogCache); ok {
			l.swap(func(r *Room) { r.LogCache = v })
		}
	})
}

func (l *LiveRoom) swap(set func(*Room)) {
	for {
		old := l.p.Load()
		next := *old
		set(&next)
		if l.p.CompareAndSwap(old, &next) {
			return
		}
	}
}
