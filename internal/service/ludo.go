package service

import (
	"context"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/pkg/codes"
)

var _ LudoHTTPServer = (*LudoService)(nil)

func (s *LudoService) CreateGame(ctx context.Context, in *CreateGameRequest) (*GameReply, error) {
	v, err := s.uc.CreateGame(ctx, biz.CreateGameReq{Seats: in.Seats, Rules: in.Rules, Seed: in.Seed})
	if err != nil {
		return nil, codes.FromError(err)
	}
	return &GameReply{Game: v}, nil
}

func (s *LudoService) ListGames(ctx context.Context, _ *ListGamesRequest) (*ListGamesReply, error) {
	games := s.uc.ListGames(ctx)
	return &ListGamesReply{Games: games, Total: len(games)}, nil
}

func (s *LudoService) GetGame(ctx context.Context, in *GameRequest) (*GameReply, error) {
	v, err := s.uc.GetGame(ctx, in.ID)
	if err != nil {
		return nil, codes.FromError(err)
	}
	return &GameReply{Game: v}, nil
}

func (s *LudoService) Roll(ctx context.Context, in *RollRequest) (*ActionReply, error) {
	c, err := parseSeatColor(in.Color)
	if err != nil {
		return nil, err
	}
	reply, err := s.uc.Roll(ctx, in.ID, c, in.Die)
	if err != nil {
		return nil, codes.FromError(err)
	}
	return &reply, nil
}

func (s *LudoService) Move(ctx context.Context, in *MoveRequest) (*ActionReply, error) {
	c, err := parseSeatColor(in.Color)
	if err != nil {
		return nil, err
	}
	if in.Token == nil {
		return nil, codes.InvalidArgument("token is required")
	}
	reply, err := s.uc.Move(ctx, in.ID, c, *in.Token)
	if err != nil {
		return nil, codes.FromError(err)
	}
	return &reply, nil
}

func (s *LudoService) Reset(ctx context.Context, in *GameRequest) (*ActionReply, error) {
	reply, err := s.uc.Reset(ctx, in.ID)
	if err != nil {
		return nil, codes.FromError(err)
	}
	return &reply, nil
}

func (s *LudoService) DeleteGame(ctx context.Context, in *GameRequest) (*DeleteGameReply, error) {
	if err := s.uc.DeleteGame(ctx, in.ID); err != nil {
		return nil, codes.FromError(err)
	}
	return &DeleteGameReply{ID: in.ID, Deleted: true}, nil
}

func (s *LudoService) History(ctx context.Context, in *HistoryRequest) (*HistoryReply, error) {
	f := in.Normalize()
	items, err := s.uc.History(ctx, f)
	if err != nil {
		return nil, codes.FromError(err)
	}
	return &HistoryReply{Items: items, Limit: f.Limit, Offset: f.Offset}, nil
}

func parseSeatColor(s string) (model.Color, error) {
	c, err := model.ParseColor(s)
	if err != nil {
		return c, codes.InvalidArgument("%v", err)
	}
	if !c.Valid() {
		return c, codes.InvalidArgument("color is required")
	}
	return c, nil
}
