package service

import (
	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/model"
)

type CreateGameRequest struct {
	Seats []table.Seat `json:"seats"`
	Rules *model.Rules `json:"rules,omitempty"`
	Seed  int64        `json:"seed,omitempty"`
}

type GameRequest struct {
	ID string `json:"id"`
}

type GameReply struct {
	Game table.View `json:"game"`
}

type ListGamesRequest struct{}

type ListGamesReply struct {
	Games []table.View `json:"games"`
	Total int          `json:"total"`
}

// RollRequest 掷骰. Die 0 lets the server roll.
type RollRequest struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Die   int    `json:"die,omitempty"`
}

type MoveRequest struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Token *int   `json:"token"`
}

type ActionReply = biz.ActionReply

type DeleteGameReply struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type HistoryRequest = biz.HistoryFilter

type HistoryReply struct {
	Items  []table.History `json:"items"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
