package table

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/library/work"
)

type fakeRepo struct {
	store work.Store
	room  *conf.Room

	mu        sync.Mutex
	snaps     map[string]Snapshot
	history   []History
	published []History
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	room := conf.DefaultConfig().Room
	room.LogCache.Open = true
	room.LogCache.Dir = t.TempDir()
	room.Robot.ThinkMin, room.Robot.ThinkMax = 0, 0
	room.Turn.Timeout = 0

	store := work.NewStore(16, 5*time.Millisecond)
	require.NoError(t, store.Start())
	t.Cleanup(store.Stop)
	return &fakeRepo{store: store, room: room, snaps: make(map[string]Snapshot)}
}

func (r *fakeRepo) GetLoop() work.Loop        { return r.store }
func (r *fakeRepo) GetTimer() work.Scheduler  { return r.store }
func (r *fakeRepo) GetRoomConfig() *conf.Room { return r.room }

func (r *fakeRepo) SaveSnapshot(_ context.Context, s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps[s.ID] = s
	return nil
}

func (r *fakeRepo) SaveHistory(_ context.Context, h History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, h)
	return nil
}

func (r *fakeRepo) PublishResult(_ context.Context, h History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, h)
	return nil
}

func (r *fakeRepo) snapshot(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snaps[id]
	return s, ok
}

func (r *fakeRepo) historyLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history) + len(r.published)
}

func humans(colors ...model.Color) []Seat {
	seats := make([]Seat, 0, len(colors))
	for _, c := range colors {
		seats = append(seats, Seat{Color: c, Kind: SeatHuman})
	}
	return seats
}

func TestTableHumanTurns(t *testing.T) {
	repo := newFakeRepo(t)
	m := NewManager(repo)
	tb, err := m.Create(CreateOptions{Seats: humans(model.Red, model.Green), Dice: model.NewFixedDice(6, 3)})
	require.NoError(t, err)

	_, err = tb.Roll(model.Green, 0)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	_, err = tb.Roll(model.Blue, 0)
	assert.ErrorIs(t, err, ErrUnknownSeat)
	_, err = tb.Roll(model.Red, 4)
	assert.ErrorIs(t, err, ErrFixedDice)
	_, err = tb.Move(model.Red, 0)
	assert.ErrorIs(t, err, model.ErrWrongPhase)

	out, err := tb.Roll(model.Red, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Die)
	assert.Equal(t, []int{0, 1, 2, 3}, out.Movable)

	_, err = tb.Move(model.Red, 7)
	assert.ErrorIs(t, err, model.ErrNotMovable)

	out, err = tb.Move(model.Red, 2)
	require.NoError(t, err)
	assert.True(t, out.Move.ExtraTurn)
	assert.Equal(t, model.Red, out.Next)

	out, err = tb.Roll(model.Red, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, out.Movable)

	snap, ok := repo.snapshot(tb.ID)
	require.True(t, ok)
	assert.Equal(t, tb.View().Game.Seq, snap.Game.Seq)
	assert.Equal(t, model.PhaseAwaitMove, snap.Game.Phase)
}

func TestTableClientDice(t *testing.T) {
	repo := newFakeRepo(t)
	repo.room.Game.AllowFixedDice = true
	tb, err := NewManager(repo).Create(CreateOptions{Seats: humans(model.Red, model.Yellow)})
	require.NoError(t, err)

	_, err = tb.Roll(model.Red, 9)
	assert.ErrorIs(t, err, model.ErrInvalidDie)
	out, err := tb.Roll(model.Red, 2)
	require.NoError(t, err)
	assert.True(t, out.Passed)
	assert.Equal(t, model.Yellow, tb.View().Game.Turn.Color)
}

func TestTableEventsAndReset(t *testing.T) {
	repo := newFakeRepo(t)
	tb, err := NewManager(repo).Create(CreateOptions{Seats: humans(model.Blue, model.Red), Dice: model.NewFixedDice(6)})
	require.NoError(t, err)

	events, cancel := tb.Subscribe(8)
	defer cancel()

	_, err = tb.Roll(model.Blue, 0)
	require.NoError(t, err)
	_, err = tb.Move(model.Blue, 0)
	require.NoError(t, err)
	_, err = tb.Reset()
	require.NoError(t, err)

	var types []EventType
	for i := 0; i < 3; i++ {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
			assert.Equal(t, tb.ID, ev.GameID)
			require.NotNil(t, ev.View)
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
	assert.Equal(t, []EventType{EventRolled, EventMoved, EventReset}, types)

	v := tb.View()
	assert.Equal(t, model.NewBoard(), v.Game.Board)
	assert.Equal(t, model.Blue, v.Game.Turn.Color)
	assert.Equal(t, int64(3), v.Game.Seq)
	assert.Equal(t, 2, v.Round)
	assert.False(t, v.StartedAt.Before(v.CreatedAt))
}

func TestTableAIGamePlaysToTheEnd(t *testing.T) {
	repo := newFakeRepo(t)
	seats := []Seat{
		{Color: model.Red, Kind: SeatAI, Strategy: model.StrategyEvaluate},
		{Color: model.Green, Kind: SeatAI, Strategy: model.StrategyRandom},
		{Color: model.Yellow, Kind: SeatAI},
	}
	tb, err := NewManager(repo).Create(CreateOptions{Seats: seats, Seed: 5})
	require.NoError(t, err)
	defer tb.Close()

	_, err = tb.Roll(model.Red, 0)
	assert.Error(t, err, "ai seats refuse manual commands")

	require.Eventually(t, func() bool { return !tb.FinishedAt().IsZero() }, 20*time.Second, 10*time.Millisecond)
	v := tb.View()
	assert.True(t, v.Game.Over())
	assert.True(t, v.Game.Board.HasWon(v.Game.Winner))
	require.Eventually(t, func() bool { return repo.historyLen() == 2 }, time.Second, 5*time.Millisecond)

	repo.mu.Lock()
	h := repo.history[0]
	repo.mu.Unlock()
	assert.Equal(t, tb.ID, h.ID)
	assert.Equal(t, RoundID(tb.ID, 1), h.GameID)
	assert.Equal(t, v.Game.Winner, h.Winner)
	assert.Equal(t, v.Game.Stats.Moves, h.Moves)
	assert.Equal(t, v.CreatedAt, h.StartedAt)

	// a reset starts round two, which the ai seats play out as well
	_, err = tb.Reset()
	require.NoError(t, err)
	assert.Equal(t, 2, tb.View().Round)
	require.Eventually(t, func() bool { return repo.historyLen() == 4 }, 20*time.Second, 10*time.Millisecond)

	repo.mu.Lock()
	second := repo.history[1]
	repo.mu.Unlock()
	assert.Equal(t, RoundID(tb.ID, 2), second.GameID)
	assert.Equal(t, 2, second.Round)
	assert.False(t, second.StartedAt.Before(h.FinishedAt))
	assert.True(t, second.FinishedAt.After(second.StartedAt) || second.FinishedAt.Equal(second.StartedAt))
}

func TestTableTurnTimeoutPlaysForHuman(t *testing.T) {
	repo := newFakeRepo(t)
	repo.room.Turn.Timeout = conf.Duration(20 * time.Millisecond)
	tb, err := NewManager(repo).Create(CreateOptions{Seats: humans(model.Red, model.Green), Dice: &model.FixedDice{Faces: []int{1}, Fallback: 1}})
	require.NoError(t, err)
	defer tb.Close()

	events, cancel := tb.Subscribe(4)
	defer cancel()

	select {
	case ev := <-events:
		assert.True(t, ev.Timeout)
		assert.Equal(t, EventRolled, ev.Type)
		assert.True(t, ev.Outcome.Passed)
		assert.Equal(t, model.Red, ev.Outcome.Color)
		assert.Equal(t, model.Green, ev.Outcome.Next)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout did not auto play")
	}
	assert.False(t, tb.Deadline().IsZero())
}

func TestTableStaleTimerIgnored(t *testing.T) {
	repo := newFakeRepo(t)
	tb, err := NewManager(repo).Create(CreateOptions{Seats: humans(model.Red, model.Green), Dice: model.NewFixedDice(2)})
	require.NoError(t, err)

	_, err = tb.Roll(model.Red, 0)
	require.NoError(t, err)
	before := tb.View()
	tb.onTimer(before.Game.Seq-1, true)
	assert.Equal(t, before.Game, tb.View().Game)
}

func TestTableCloseEndsSubscriptions(t *testing.T) {
	repo := newFakeRepo(t)
	tb, err := NewManager(repo).Create(CreateOptions{Seats: humans(model.Red, model.Green)})
	require.NoError(t, err)

	events, cancel := tb.Subscribe(4)
	tb.Close()
	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, EventClosed, ev.Type)
	_, ok = <-events
	assert.False(t, ok)
	cancel()

	_, err = tb.Roll(model.Red, 0)
	assert.ErrorIs(t, err, ErrTableClosed)
	_, err = tb.Reset()
	assert.ErrorIs(t, err, ErrTableClosed)
}

func TestNewTableRejectsBadSeats(t *testing.T) {
	repo := newFakeRepo(t)
	_, err := NewTable("x", CreateOptions{}, repo)
	assert.ErrorIs(t, err, model.ErrInvalidSeating)
	_, err = NewTable("x", CreateOptions{Seats: humans(model.Red)}, repo)
	assert.ErrorIs(t, err, model.ErrInvalidSeating)
	_, err = NewTable("x", CreateOptions{Seats: []Seat{{Color: model.Red, Kind: "robot"}, {Color: model.Blue, Kind: SeatHuman}}}, repo)
	assert.ErrorIs(t, err, model.ErrInvalidSeating)
}
