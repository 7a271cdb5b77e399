package biz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/internal/model"
)

type memRepo struct {
	mu        sync.Mutex
	snaps     map[string]table.Snapshot
	history   []table.History
	published int
}

func newMemRepo() *memRepo {
	return &memRepo{snaps: make(map[string]table.Snapshot)}
}

func (r *memRepo) SaveSnapshot(_ context.Context, s table.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps[s.ID] = s
	return nil
}

func (r *memRepo) LoadSnapshot(_ context.Context, id string) (table.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snaps[id]
	if !ok {
		return table.Snapshot{}, ErrNotFound
	}
	return s, nil
}

func (r *memRepo) DeleteSnapshot(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snaps[id]; !ok {
		return ErrNotFound
	}
	delete(r.snaps, id)
	return nil
}

func (r *memRepo) SaveHistory(_ context.Context, h table.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, h)
	return nil
}

func (r *memRepo) ListHistory(_ context.Context, f HistoryFilter) ([]table.History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []table.History
	for _, h := range r.history {
		if f.Winner == "" || h.Winner.String() == f.Winner {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memRepo) PublishResult(context.Context, table.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published++
	return nil
}

func newTestUsecase(t *testing.T) (*Usecase, *memRepo) {
	t.Helper()
	room := conf.DefaultConfig().Room
	room.LogCache.Dir = t.TempDir()
	room.Robot.ThinkMin, room.Robot.ThinkMax = 0, 0
	room.Turn.Timeout = 0
	room.Work.Tick = conf.Duration(5 * time.Millisecond)

	repo := newMemRepo()
	uc, cleanup, err := NewUsecase(repo, repo, repo, conf.NewLiveRoom(room), log.DefaultLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return uc, repo
}

func humanSeats(colors ...model.Color) []table.Seat {
	seats := make([]table.Seat, len(colors))
	for i, c := range colors {
		seats[i] = table.Seat{Color: c, Kind: table.SeatHuman}
	}
	return seats
}

func TestUsecaseGameFlow(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	v, err := uc.CreateGame(ctx, CreateGameReq{Seats: humanSeats(model.Red, model.Yellow), Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, model.Red, v.Game.Turn.Color)
	assert.Len(t, uc.ListGames(ctx), 1)

	reply, err := uc.Roll(ctx, v.ID, model.Red, 0)
	require.NoError(t, err)
	assert.Equal(t, model.CmdRoll, reply.Outcome.Kind)
	assert.Equal(t, int64(1), reply.Game.Game.Seq)

	_, err = uc.Roll(ctx, "missing", model.Red, 0)
	assert.ErrorIs(t, err, ErrGameNotFound)

	reply, err = uc.Reset(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAwaitRoll, reply.Game.Game.Phase)

	snap, err := repo.LoadSnapshot(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Game.Seq)
}

func TestUsecaseRestoresFromSnapshot(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	v, err := uc.CreateGame(ctx, CreateGameReq{Seats: humanSeats(model.Green, model.Blue)})
	require.NoError(t, err)

	// drop the live table, keep the snapshot
	require.True(t, uc.Manager().Remove(v.ID))
	_, err = repo.LoadSnapshot(ctx, v.ID)
	require.NoError(t, err)

	got, err := uc.GetGame(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Game, got.Game)
	assert.Equal(t, 1, uc.Manager().Len())

	events, cancel, err := uc.Subscribe(ctx, v.ID, 4)
	require.NoError(t, err)
	defer cancel()
	_, err = uc.Roll(ctx, v.ID, model.Green, 0)
	require.NoError(t, err)
	select {
	case ev := <-events:
		assert.Equal(t, table.EventRolled, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestUsecaseDeleteGame(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	v, err := uc.CreateGame(ctx, CreateGameReq{Seats: humanSeats(model.Red, model.Blue)})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteGame(ctx, v.ID))

	_, err = repo.LoadSnapshot(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = uc.GetGame(ctx, v.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.ErrorIs(t, uc.DeleteGame(ctx, v.ID), ErrGameNotFound)
}

func TestUsecaseDeletedGameStaysDeleted(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	v, err := uc.CreateGame(ctx, CreateGameReq{Seats: humanSeats(model.Red, model.Blue)})
	require.NoError(t, err)
	snap, err := repo.LoadSnapshot(ctx, v.ID)
	require.NoError(t, err)
	require.NoError(t, uc.DeleteGame(ctx, v.ID))

	// a save that was already in flight
	require.NoError(t, uc.SaveSnapshot(ctx, snap))
	_, err = repo.LoadSnapshot(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// a snapshot read before the delete landed
	require.NoError(t, repo.SaveSnapshot(ctx, snap))
	_, err = uc.GetGame(ctx, v.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.Zero(t, uc.Manager().Len())

	assert.NoError(t, uc.DeleteGame(ctx, v.ID))
	assert.ErrorIs(t, uc.DeleteGame(ctx, v.ID), ErrGameNotFound)
}

func TestUsecaseDeleteUnknownGame(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	assert.ErrorIs(t, uc.DeleteGame(ctx, "nope"), ErrGameNotFound)
	snap := table.Snapshot{ID: "nope"}
	require.NoError(t, uc.SaveSnapshot(ctx, snap))
	_, err := repo.LoadSnapshot(ctx, "nope")
	assert.NoError(t, err)
}

func TestUsecaseHistory(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	seats := []table.Seat{{Color: model.Red, Kind: table.SeatAI}, {Color: model.Green, Kind: table.SeatAI}}
	v, err := uc.CreateGame(ctx, CreateGameReq{Seats: seats, Seed: 11})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.history) == 1 && repo.published == 1
	}, 20*time.Second, 10*time.Millisecond)

	list, err := uc.History(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, v.ID, list[0].ID)

	want := 0
	if list[0].Winner == model.Red {
		want = 1
	}
	list, err = uc.History(ctx, HistoryFilter{Winner: "RED"})
	require.NoError(t, err)
	assert.Len(t, list, want)

	_, err = uc.History(ctx, HistoryFilter{Winner: "purple"})
	assert.Error(t, err)
}

func TestUsecaseHistoryAfterReset(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()
	finished := func(n int) func() bool {
		return func() bool {
			repo.mu.Lock()
			defer repo.mu.Unlock()
			return len(repo.history) == n && repo.published == n
		}
	}

	seats := []table.Seat{{Color: model.Yellow, Kind: table.SeatAI}, {Color: model.Blue, Kind: table.SeatAI}}
	v, err := uc.CreateGame(ctx, CreateGameReq{Seats: seats, Seed: 23})
	require.NoError(t, err)
	require.Eventually(t, finished(1), 20*time.Second, 10*time.Millisecond)

	_, err = uc.Reset(ctx, v.ID)
	require.NoError(t, err)
	require.Eventually(t, finished(2), 20*time.Second, 10*time.Millisecond)

	list, err := uc.History(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{table.RoundID(v.ID, 1), table.RoundID(v.ID, 2)}, []string{list[0].GameID, list[1].GameID})
	assert.Equal(t, v.ID, list[1].ID)
	assert.False(t, list[1].StartedAt.Before(list[0].FinishedAt))
}

func TestHistoryFilterNormalize(t *testing.T) {
	assert.Equal(t, defaultHistoryLimit, HistoryFilter{}.Normalize().Limit)
	assert.Equal(t, maxHistoryLimit, HistoryFilter{Limit: 10000}.Normalize().Limit)
	f := HistoryFilter{Limit: 7, Offset: -3}.Normalize()
	assert.Equal(t, 7, f.Limit)
	assert.Zero(t, f.Offset)
}
