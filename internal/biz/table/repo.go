package table

import (
	"context"

	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/library/work"
)

// Repo is everything a table needs from the outside world.
type Repo interface {
	GetLoop() work.Loop
	GetTimer() work.Scheduler
	GetRoomConfig() *conf.Room
	SaveSnapshot(ctx context.Context, s Snapshot) error
	SaveHistory(ctx context.Context, h History) error
	PublishResult(ctx context.Context, h History) error
}
