package table

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/samber/lo"

	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/library/ext"
)

// stage 当前回合的定时器
type stage struct {
	timerID  int64
	deadline time.Time
	auto     bool // ai seat, not a human timeout
}

// Table is one live game. Every exported method is serialized on mu.
type Table struct {
	ID   string
	repo Repo

	mu         sync.Mutex
	seats      []Seat
	game       model.Game
	dice       model.Dice
	rng        *rand.Rand
	mLog       *Log
	stage      stage
	subs       map[string]*subscriber
	round      int
	createdAt  time.Time
	startedAt  time.Time
	updatedAt  time.Time
	finishedAt *time.Time
	closed     bool
}

// NewTable seats the players in the given order; the first seat rolls first.
func NewTable(id string, opts CreateOptions, repo Repo) (*Table, error) {
	if len(opts.Seats) == 0 {
		return nil, fmt.Errorf("%w: no seats", model.ErrInvalidSeating)
	}
	for _, s := range opts.Seats {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidSeating, err)
		}
	}

	var rules model.Rules
	if opts.Rules != nil {
		rules = *opts.Rules
	} else {
		r, err := repo.GetRoomConfig().Game.Rules()
		if err != nil {
			return nil, err
		}
		rules = r
	}
	colors := lo.Map(opts.Seats, func(s Seat, _ int) model.Color { return s.Color })
	game, err := model.NewGame(rules, colors)
	if err != nil {
		return nil, err
	}

	dice := opts.Dice
	if dice == nil {
		dice = model.NewDice(opts.Seed)
	}
	now := time.Now()
	return newTable(id, repo, View{
		ID:        id,
		Seats:     slices.Clone(opts.Seats),
		Game:      game,
		Round:     1,
		CreatedAt: now,
		StartedAt: now,
		UpdatedAt: now,
	}, dice, opts.Seed), nil
}

// restoreTable rebuilds a table from a persisted snapshot.
func restoreTable(s Snapshot, repo Repo) (*Table, error) {
	if s.ID == "" || len(s.Seats) != len(s.Game.Colors) {
		return nil, fmt.Errorf("corrupt snapshot %q", s.ID)
	}
	if err := s.Game.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", s.ID, err)
	}
	for c, tokens := range s.Game.Board.Tokens {
		for i, tk := range tokens {
			if !tk.Valid() {
				return nil, fmt.Errorf("snapshot %q: %v token %d at %v", s.ID, model.Color(c), i, tk)
			}
		}
	}
	if s.Round < 1 {
		s.Round = 1
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = s.CreatedAt
	}
	return newTable(s.ID, repo, s, model.NewDice(0), 0), nil
}

func newTable(id string, repo Repo, v View, dice model.Dice, seed int64) *Table {
	return &Table{
		ID:         id,
		repo:       repo,
		seats:      v.Seats,
		game:       v.Game,
		dice:       dice,
		rng:        ext.NewRand(seed),
		mLog:       NewTableLog(id, repo.GetRoomConfig().LogCache),
		subs:       make(map[string]*subscriber),
		round:      v.Round,
		createdAt:  v.CreatedAt,
		startedAt:  v.StartedAt,
		updatedAt:  v.UpdatedAt,
		finishedAt: v.FinishedAt,
	}
}

func (t *Table) Desc() string {
	return fmt.Sprintf("(T:%s round:%d seats:%d %s)", t.ID, t.round, len(t.seats), t.game.Desc())
}

// View returns a copy of the current state.
func (t *Table) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *Table) viewLocked() View {
	v := View{
		ID:        t.ID,
		Seats:     slices.Clone(t.seats),
		Game:      t.game,
		Round:     t.round,
		CreatedAt: t.createdAt,
		StartedAt: t.startedAt,
		UpdatedAt: t.updatedAt,
	}
	v.Game.Colors = slices.Clone(t.game.Colors)
	v.Game.Turn.Movable = slices.Clone(t.game.Turn.Movable)
	if t.finishedAt != nil {
		at := *t.finishedAt
		v.FinishedAt = &at
	}
	return v
}

// FinishedAt reports when the game was won, zero while it is running.
func (t *Table) FinishedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finishedAt == nil {
		return time.Time{}
	}
	return *t.finishedAt
}

func (t *Table) seatOf(c model.Color) (Seat, bool) {
	return lo.Find(t.seats, func(s Seat) bool { return s.Color == c })
}

// Deadline 当前行动截止时间, zero when nobody is on the clock.
func (t *Table) Deadline() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage.deadline
}

func (t *Table) history() History {
	h := History{
		GameID:    RoundID(t.ID, t.round),
		ID:        t.ID,
		Round:     t.round,
		Colors:    slices.Clone(t.game.Colors),
		Seats:     slices.Clone(t.seats),
		Winner:    t.game.Winner,
		Turns:     t.game.Stats.TurnsDone,
		Rolls:     t.game.Stats.Rolls,
		Moves:     t.game.Stats.Moves,
		Captures:  t.game.Stats.Captures,
		Forfeits:  t.game.Stats.Forfeits,
		StartedAt: t.startedAt,
	}
	if t.finishedAt != nil {
		h.FinishedAt = *t.finishedAt
	}
	return h
}

// Close stops the timers, tells subscribers and releases the table log.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.cancelStage()
	t.broadcast(Event{Type: EventClosed, GameID: t.ID, Seq: t.game.Seq, At: time.Now()})
	t.closeSubscribers()
	t.mLog.close(t.Desc())
	if err := t.mLog.Close(); err != nil {
		log.Warnf("close table log failed. tb=%s err=%v", t.ID, err)
	}
}
