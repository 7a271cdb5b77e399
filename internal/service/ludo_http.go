package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/go-playground/form/v4"

	"github.com/yola1107/ludo/pkg/codes"
)

const (
	OperationLudoCreateGame = "/ludo.v1.Ludo/CreateGame"
	OperationLudoListGames  = "/ludo.v1.Ludo/ListGames"
	OperationLudoGetGame    = "/ludo.v1.Ludo/GetGame"
	OperationLudoRoll       = "/ludo.v1.Ludo/Roll"
	OperationLudoMove       = "/ludo.v1.Ludo/Move"
	OperationLudoReset      = "/ludo.v1.Ludo/Reset"
	OperationLudoDeleteGame = "/ludo.v1.Ludo/DeleteGame"
	OperationLudoHistory    = "/ludo.v1.Ludo/History"
)

// EventsPath is the websocket route streaming one game's events.
const EventsPath = "/v1/games/{id}/events"

type LudoHTTPServer interface {
	CreateGame(context.Context, *CreateGameRequest) (*GameReply, error)
	ListGames(context.Context, *ListGamesRequest) (*ListGamesReply, error)
	GetGame(context.Context, *GameRequest) (*GameReply, error)
	Roll(context.Context, *RollRequest) (*ActionReply, error)
	Move(context.Context, *MoveRequest) (*ActionReply, error)
	Reset(context.Context, *GameRequest) (*ActionReply, error)
	DeleteGame(context.Context, *GameRequest) (*DeleteGameReply, error)
	History(context.Context, *HistoryRequest) (*HistoryReply, error)
}

func RegisterLudoHTTPServer(s *http.Server, srv *LudoService) {
	r := s.Route("/")
	r.POST("/v1/games", _Ludo_CreateGame_HTTP_Handler(srv))
	r.GET("/v1/games", _Ludo_ListGames_HTTP_Handler(srv))
	r.GET("/v1/games/{id}", _Ludo_GetGame_HTTP_Handler(srv))
	r.POST("/v1/games/{id}/roll", _Ludo_Roll_HTTP_Handler(srv))
	r.POST("/v1/games/{id}/move", _Ludo_Move_HTTP_Handler(srv))
	r.POST("/v1/games/{id}/reset", _Ludo_Reset_HTTP_Handler(srv))
	r.DELETE("/v1/games/{id}", _Ludo_DeleteGame_HTTP_Handler(srv))
	r.GET("/v1/history", _Ludo_History_HTTP_Handler(srv, srv.decoder))
	s.HandleFunc(EventsPath, srv.ServeEvents)
}

func _Ludo_CreateGame_HTTP_Handler(srv LudoHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in CreateGameRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationLudoCreateGame)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.CreateGame(ctx, req.(*CreateGameRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(201, out.(*GameReply))
	}
}

func _Ludo_ListGames_HTTP_Handler(srv LudoHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ListGamesRequest
		http.SetOperation(ctx, OperationLudoListGames)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListGames(ctx, req.(*ListGamesRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ListGamesReply))
	}
}

func _Ludo_GetGame_HTTP_Handler(srv LudoHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := GameRequest{ID: ctx.Vars().Get("id")}
		http.SetOperation(ctx, OperationLudoGetGame)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetGame(ctx, req.(*GameRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*GameReply))
	}
}

func _Ludo_Roll_HTTP_Handler(srv LudoHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in RollRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		in.ID = ctx.Vars().Get("id")
		http.SetOperation(ctx, OperationLudoRoll)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Roll(ctx, req.(*RollRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ActionReply))
	}
}

func _Ludo_Move_HTTP_Handler(srv LudoHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in MoveRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		in.ID = ctx.Vars().Get("id")
		http.SetOperation(ctx, OperationLudoMove)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Move(ctx, req.(*MoveRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ActionReply))
	}
}

func _Ludo_Reset_HTTP_Handler(srv LudoHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := GameRequest{ID: ctx.Vars().Get("id")}
		http.SetOperation(ctx, OperationLudoReset)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Reset(ctx, req.(*GameRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ActionReply))
	}
}

func _Ludo_DeleteGame_HTTP_Handler(srv LudoHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := GameRequest{ID: ctx.Vars().Get("id")}
		http.SetOperation(ctx, OperationLudoDeleteGame)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.DeleteGame(ctx, req.(*GameRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*DeleteGameReply))
	}
}

// History filters come from the query string and use form tags.
func _Ludo_History_HTTP_Handler(srv LudoHTTPServer, dec *form.Decoder) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in HistoryRequest
		if err := dec.Decode(&in, ctx.Query()); err != nil {
			return codes.InvalidArgument("query: %v", err)
		}
		http.SetOperation(ctx, OperationLudoHistory)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.History(ctx, req.(*HistoryRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*HistoryReply))
	}
}
