package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/model"
)

// CreateGameReq 建局参数. Seed 0 picks a random dice seed.
type CreateGameReq struct {
	Seats []table.Seat `json:"seats"`
	Rules *model.Rules `json:"rules,omitempty"`
	Seed  int64        `json:"seed,omitempty"`
}

// ActionReply is the result of one roll, move or reset.
type ActionReply struct {
	Outcome model.Outcome `json:"outcome"`
	Game    table.View    `json:"game"`
}

func (uc *Usecase) CreateGame(ctx context.Context, req CreateGameReq) (table.View, error) {
	t, err := uc.tm.Create(table.CreateOptions{Seats: req.Seats, Rules: req.Rules, Seed: req.Seed})
	if err != nil {
		return table.View{}, err
	}
	uc.log.WithContext(ctx).Infof("CreateGame: %s", t.Desc())
	return t.View(), nil
}

// lookup returns the live table, restoring it from its snapshot on a miss.
func (uc *Usecase) lookup(ctx context.Context, id string) (*table.Table, error) {
	if t, ok := uc.tm.Get(id); ok {
		return t, nil
	}
	s, err := uc.snaps.LoadSnapshot(ctx, id)
	if errors.Is(err, ErrNotFound) || uc.deleted(id) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	t, err := uc.tm.Restore(s)
	if err != nil {
		return nil, err
	}
	// deleted while the snapshot was being loaded
	if uc.deleted(id) {
		uc.tm.Remove(id)
		return nil, ErrGameNotFound
	}
	return t, nil
}

func (uc *Usecase) GetGame(ctx context.Context, id string) (table.View, error) {
	t, err := uc.lookup(ctx, id)
	if err != nil {
		return table.View{}, err
	}
	return t.View(), nil
}

// ListGames 当前内存中的对局, oldest first.
func (uc *Usecase) ListGames(_ context.Context) []table.View {
	return lo.Map(uc.tm.List(), func(t *table.Table, _ int) table.View { return t.View() })
}

func (uc *Usecase) Roll(ctx context.Context, id string, c model.Color, die int) (ActionReply, error) {
	return uc.act(ctx, id, func(t *table.Table) (model.Outcome, error) { return t.Roll(c, die) })
}

func (uc *Usecase) Move(ctx context.Context, id string, c model.Color, token int) (ActionReply, error) {
	return uc.act(ctx, id, func(t *table.Table) (model.Outcome, error) { return t.Move(c, token) })
}

func (uc *Usecase) Reset(ctx context.Context, id string) (ActionReply, error) {
	return uc.act(ctx, id, func(t *table.Table) (model.Outcome, error) { return t.Reset() })
}

func (uc *Usecase) act(ctx context.Context, id string, fn func(*table.Table) (model.Outcome, error)) (ActionReply, error) {
	t, err := uc.lookup(ctx, id)
	if err != nil {
		return ActionReply{}, err
	}
	out, err := fn(t)
	if err != nil {
		return ActionReply{}, err
	}
	return ActionReply{Outcome: out, Game: t.View()}, nil
}

// DeleteGame closes the table and drops its snapshot. The id is marked
// deleted first so that a concurrent restore or save cannot bring it back.
func (uc *Usecase) DeleteGame(ctx context.Context, id string) error {
	_, marked := uc.gone.LoadOrStore(id, struct{}{})
	live := uc.tm.Remove(id)
	err := uc.snaps.DeleteSnapshot(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if !live && err != nil {
		if !marked {
			uc.gone.Delete(id)
		}
		return ErrGameNotFound
	}
	if !marked {
		uc.ws.Once(uc.GetRoomConfig().Game.FinishedTTL.Std(), func() { uc.gone.Delete(id) })
	}
	uc.log.WithContext(ctx).Infof("DeleteGame: id=%s live=%v", id, live)
	return nil
}

func (uc *Usecase) deleted(id string) bool {
	_, ok := uc.gone.Load(id)
	return ok
}

// History 已结束对局, newest first.
func (uc *Usecase) History(ctx context.Context, f HistoryFilter) ([]table.History, error) {
	f = f.Normalize()
	if f.Winner != "" {
		c, err := model.ParseColor(f.Winner)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		f.Winner = c.String()
	}
	return uc.hist.ListHistory(ctx, f)
}

// Subscribe streams the events of a game, restoring it first if needed.
func (uc *Usecase) Subscribe(ctx context.Context, id string, buffer int) (<-chan table.Event, func(), error) {
	t, err := uc.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := t.Subscribe(buffer)
	return ch, cancel, nil
}
