package biz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/library/work"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewUsecase)

// 实现table.Repo
var _ table.Repo = (*Usecase)(nil)

var (
	// ErrNotFound is returned by repositories for a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrGameNotFound means neither a live table nor a snapshot exists.
	ErrGameNotFound = errors.New("game not found")
	// ErrInvalidArgument wraps malformed request fields.
	ErrInvalidArgument = errors.New("invalid argument")
)

// SnapshotRepo persists live table state.
type SnapshotRepo interface {
	SaveSnapshot(ctx context.Context, s table.Snapshot) error
	LoadSnapshot(ctx context.Context, id string) (table.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// HistoryFilter 历史查询条件. Zero fields do not filter.
type HistoryFilter struct {
	Winner string    `form:"winner"`
	Table  string    `form:"table"`
	Since  time.Time `form:"since"`
	Limit  int       `form:"limit"`
	Offset int       `form:"offset"`
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Normalize clamps the page size.
func (f HistoryFilter) Normalize() HistoryFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultHistoryLimit
	case f.Limit > maxHistoryLimit:
		f.Limit = maxHistoryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// HistoryRepo stores finished games.
type HistoryRepo interface {
	SaveHistory(ctx context.Context, h table.History) error
	ListHistory(ctx context.Context, f HistoryFilter) ([]table.History, error)
}

// ResultPublisher announces finished games to other services.
type ResultPublisher interface {
	PublishResult(ctx context.Context, h table.History) error
}

// Usecase owns the live tables and the worker pool driving their timers.
type Usecase struct {
	snaps SnapshotRepo
	hist  HistoryRepo
	pub   ResultPublisher
	log   *log.Helper

	rc   *conf.LiveRoom
	ws   work.Store
	tm   *table.Manager
	gone sync.Map // ids removed by DeleteGame
}

// NewUsecase new a usecase and starts its pool and table reaper.
func NewUsecase(snaps SnapshotRepo, hist HistoryRepo, pub ResultPublisher, c *conf.LiveRoom, logger log.Logger) (*Usecase, func(), error) {
	uc := &Usecase{
		snaps: snaps,
		hist:  hist,
		pub:   pub,
		log:   log.NewHelper(logger),
		rc:    c,
		ws:    work.NewStore(c.Load().Work.PoolSize, c.Load().Work.Tick.Std()),
	}
	uc.tm = table.NewManager(uc)

	cleanup := func() {
		uc.log.Info("closing the room resources")
		uc.tm.Close()
		uc.ws.Stop()
	}
	if err := uc.ws.Start(); err != nil {
		return nil, nil, err
	}
	if err := uc.tm.Start(); err != nil {
		uc.ws.Stop()
		return nil, nil, err
	}
	return uc, cleanup, nil
}

// GetLoop 获取任务池
func (uc *Usecase) GetLoop() work.Loop { return uc.ws }

// GetTimer 获取定时器
func (uc *Usecase) GetTimer() work.Scheduler { return uc.ws }

// GetRoomConfig 获取当前房间配置
func (uc *Usecase) GetRoomConfig() *conf.Room { return uc.rc.Load() }

func (uc *Usecase) SaveSnapshot(ctx context.Context, s table.Snapshot) error {
	if uc.deleted(s.ID) {
		return nil
	}
	return uc.snaps.SaveSnapshot(ctx, s)
}

func (uc *Usecase) SaveHistory(ctx context.Context, h table.History) error {
	return uc.hist.SaveHistory(ctx, h)
}

func (uc *Usecase) PublishResult(ctx context.Context, h table.History) error {
	return uc.pub.PublishResult(ctx, h)
}

// Manager exposes the table manager to the service layer.
func (uc *Usecase) Manager() *table.Manager { return uc.tm }
