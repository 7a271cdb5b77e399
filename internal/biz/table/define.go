package table

import (
	"errors"
	"fmt"
	"time"

	"github.com/yola1107/ludo/internal/model"
)

var (
	ErrNotYourTurn   = errors.New("not this color's turn")
	ErrSeatNotHuman  = errors.New("seat is played by the ai")
	ErrUnknownSeat   = errors.New("color is not seated at this table")
	ErrTableClosed   = errors.New("table is closed")
	ErrFixedDice     = errors.New("client supplied dice are disabled")
	ErrTooManyTables = errors.New("table limit reached")
)

// SeatKind 座位类型
type SeatKind string

const (
	SeatHuman SeatKind = "human"
	SeatAI    SeatKind = "ai"
)

// Seat binds a colour to whoever plays it.
type Seat struct {
	Color    model.Color    `json:"color" yaml:"color"`
	Kind     SeatKind       `json:"kind" yaml:"kind"`
	Strategy model.Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	PlayerID string         `json:"player_id,omitempty" yaml:"player_id,omitempty"`
}

func (s Seat) IsAI() bool { return s.Kind == SeatAI }

func (s Seat) Validate() error {
	if !s.Color.Valid() {
		return fmt.Errorf("seat color %q invalid", s.Color)
	}
	switch s.Kind {
	case SeatHuman:
	case SeatAI:
		if s.Strategy != "" && !s.Strategy.Valid() {
			return fmt.Errorf("seat %v: unknown strategy %q", s.Color, s.Strategy)
		}
	default:
		return fmt.Errorf("seat %v: unknown kind %q", s.Color, s.Kind)
	}
	return nil
}

// EventType 推送事件类型
type EventType string

const (
	EventCreated  EventType = "created"
	EventRolled   EventType = "rolled"
	EventMoved    EventType = "moved"
	EventReset    EventType = "reset"
	EventFinished EventType = "finished"
	EventClosed   EventType = "closed"
)

// Event is pushed to subscribers after each accepted command.
type Event struct {
	Type    EventType      `json:"type"`
	GameID  string         `json:"game_id"`
	Seq     int64          `json:"seq"`
	Timeout bool           `json:"timeout,omitempty"`
	Outcome *model.Outcome `json:"outcome,omitempty"`
	View    *View          `json:"view,omitempty"`
	At      time.Time      `json:"at"`
}

// View 对局快照, safe to hand out: it shares nothing mutable with the table.
type View struct {
	ID         string     `json:"id"`
	Seats      []Seat     `json:"seats"`
	Game       model.Game `json:"game"`
	Round      int        `json:"round"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  time.Time  `json:"started_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Snapshot is what gets persisted to rebuild a table after a restart.
type Snapshot = View

// History 已结束对局记录. A table plays a new round after every reset; each
// finished round is one record keyed by GameID.
type History struct {
	GameID     string        `json:"game_id"`
	ID         string        `json:"id"`
	Round      int           `json:"round"`
	Colors     []model.Color `json:"colors"`
	Seats      []Seat        `json:"seats"`
	Winner     model.Color   `json:"winner"`
	Turns      int           `json:"turns"`
	Rolls      int           `json:"rolls"`
	Moves      int           `json:"moves"`
	Captures   int           `json:"captures"`
	Forfeits   int           `json:"forfeits"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// RoundID names one round played at a table.
func RoundID(tableID string, round int) string {
	return fmt.Sprintf("%s.%d", tableID, round)
}

// CreateOptions 建桌参数
type CreateOptions struct {
	Seats []Seat
	Rules *model.Rules
	Seed  int64
	Dice  model.Dice
}
