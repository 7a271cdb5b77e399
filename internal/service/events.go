package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/gorilla/mux"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/library/xgo"
	"github.com/yola1107/ludo/pkg/codes"
)

// Frame types pushed to websocket clients.
const (
	FrameSnapshot = "snapshot"
	FrameEvent    = "event"
	FrameReply    = "reply"
	FrameError    = "error"
)

// Command is an inbound websocket frame.
type Command struct {
	Op    string `json:"op"` // roll | move | reset
	Color string `json:"color,omitempty"`
	Die   int    `json:"die,omitempty"`
	Token *int   `json:"token,omitempty"`
}

type ErrorBody struct {
	Code    int32  `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Frame is an outbound websocket frame.
type Frame struct {
	Type  string           `json:"type"`
	Op    string           `json:"op,omitempty"`
	Game  *table.View      `json:"game,omitempty"`
	Event *table.Event     `json:"event,omitempty"`
	Reply *biz.ActionReply `json:"reply,omitempty"`
	Error *ErrorBody       `json:"error,omitempty"`
}

// ServeEvents upgrades to a websocket that streams the game's events and
// accepts roll/move/reset commands.
func (s *LudoService) ServeEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	events, unsub, err := s.uc.Subscribe(r.Context(), id, 0)
	if err != nil {
		khttp.DefaultErrorEncoder(w, r, codes.FromError(err))
		return
	}
	view, err := s.uc.GetGame(r.Context(), id)
	if err != nil {
		unsub()
		khttp.DefaultErrorEncoder(w, r, codes.FromError(err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		unsub()
		log.Errorf("[websocket] upgrade error: %v", err)
		return
	}

	sess := newSession(s, id, conn, unsub)
	s.addSession(sess)
	log.Infof("session opened. sessionID=%q game=%s remote=%s", sess.ID(), id, conn.RemoteAddr())

	_ = sess.SendJSON(Frame{Type: FrameSnapshot, Game: &view})
	sess.run(s.dispatch)
	xgo.Go(func() { s.forward(sess, events) })
}

// forward pushes table events until the table or the session closes.
func (s *LudoService) forward(sess *Session, events <-chan table.Event) {
	for {
		select {
		case <-sess.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				sess.Close("game closed")
				return
			}
			if err := sess.SendJSON(Frame{Type: FrameEvent, Event: &ev}); err != nil {
				return
			}
		}
	}
}

func (s *LudoService) dispatch(sess *Session, data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.replyError(sess, "", codes.InvalidArgument("bad frame: %v", err))
		return
	}
	if !sess.limiter.Allow() {
		s.replyError(sess, cmd.Op, codes.ErrRateLimited)
		return
	}

	reply, err := s.command(sess.ctx, sess.gameID, cmd)
	if err != nil {
		s.replyError(sess, cmd.Op, err)
		return
	}
	_ = sess.SendJSON(Frame{Type: FrameReply, Op: cmd.Op, Reply: reply})
}

func (s *LudoService) command(ctx context.Context, id string, cmd Command) (*biz.ActionReply, error) {
	switch cmd.Op {
	case "roll":
		return s.Roll(ctx, &RollRequest{ID: id, Color: cmd.Color, Die: cmd.Die})
	case "move":
		return s.Move(ctx, &MoveRequest{ID: id, Color: cmd.Color, Token: cmd.Token})
	case "reset":
		return s.Reset(ctx, &GameRequest{ID: id})
	default:
		return nil, codes.InvalidArgument("unknown op %q", cmd.Op)
	}
}

func (s *LudoService) replyError(sess *Session, op string, err error) {
	e := errors.FromError(codes.FromError(err))
	_ = sess.SendJSON(Frame{Type: FrameError, Op: op, Error: &ErrorBody{Code: e.Code, Reason: e.Reason, Message: e.Message}})
}
