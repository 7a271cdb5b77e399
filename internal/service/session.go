package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/library/xgo"
)

var errSessionClosed = errors.New("session: closed send")

const sendChanSize = 128

// Session is one websocket watching a game. Writes go through sendChan so
// that only writePump touches the connection besides control frames.
type Session struct {
	id         string
	gameID     string
	svc        *LudoService
	config     *conf.Server_Websocket
	limiter    *rate.Limiter
	connMu     sync.Mutex
	conn       *websocket.Conn
	sendMu     sync.Mutex
	sendChan   chan []byte
	closed     atomic.Bool
	lastActive atomic.Value // time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	unsub      func()
}

func newSession(svc *LudoService, gameID string, conn *websocket.Conn, unsub func()) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	c := svc.wc
	s := &Session{
		id:       uuid.NewString(),
		gameID:   gameID,
		svc:      svc,
		config:   c,
		limiter:  rate.NewLimiter(rate.Limit(c.CommandRate), c.CommandBurst),
		conn:     conn,
		sendChan: make(chan []byte, sendChanSize),
		ctx:      ctx,
		cancel:   cancel,
		unsub:    unsub,
	}
	s.lastActive.Store(time.Now())
	if c.ReadLimit > 0 {
		conn.SetReadLimit(c.ReadLimit)
	}
	conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) LastActive() time.Time {
	return s.lastActive.Load().(time.Time)
}

func (s *Session) touch() { s.lastActive.Store(time.Now()) }

func (s *Session) Closed() bool { return s.closed.Load() }

// readTimeout 超过未收到任何消息视为断线
func (s *Session) readTimeout() time.Duration {
	return 4 * s.config.PingInterval.Std()
}

func (s *Session) run(dispatch func(*Session, []byte)) {
	xgo.Go(func() { s.readPump(dispatch) })
	xgo.Go(s.writePump)
	xgo.Go(s.heartbeat)
}

func (s *Session) Send(message []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.Closed() {
		return errSessionClosed
	}
	select {
	case s.sendChan <- message:
		return nil
	case <-s.ctx.Done():
		return errSessionClosed
	}
}

func (s *Session) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Send(data)
}

func (s *Session) readPump(dispatch func(*Session, []byte)) {
	defer s.Close("")

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout())); err != nil {
			log.Errorf("sessionID=%q set read deadline error: %v", s.id, err)
			return
		}
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("sessionID=%q unexpected close: %v", s.id, err)
			}
			return
		}
		s.touch()

		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			if err := xgo.Try(func() error { dispatch(s, data); return nil }); err != nil {
				log.Errorf("sessionID=%q dispatch %v\n%s", s.id, err, err.(*xgo.PanicError).Stack)
			}
		default:
			log.Warnf("sessionID=%q unsupported message type: %d", s.id, msgType)
		}
	}
}

func (s *Session) writePump() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-s.sendChan:
			if !ok {
				return
			}
			if err := s.writeText(msg); err != nil {
				if errors.Is(err, errSessionClosed) || strings.Contains(err.Error(), "close sent") {
					log.Infof("sessionID=%q write aborted, reason: %v", s.id, err)
				} else {
					log.Errorf("sessionID=%q write error: %v", s.id, err)
				}
				s.Close("write failed")
				return
			}
		}
	}
}

func (s *Session) heartbeat() {
	ticker := time.NewTicker(s.config.PingInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if time.Since(s.LastActive()) > s.readTimeout() {
				log.Warnf("sessionID=%q heartbeat timeout", s.id)
				s.Close("heartbeat timeout")
				return
			}
			s.writeControl(websocket.PingMessage, nil)
		}
	}
}

// Close ends the session once. An empty reason means the peer went away.
func (s *Session) Close(reason string) bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}
	if reason == "" {
		reason = "Normal Closure"
	}
	s.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))

	s.cancel()
	s.unsub()

	s.sendMu.Lock()
	close(s.sendChan)
	s.sendMu.Unlock()

	s.connMu.Lock()
	_ = s.conn.Close()
	s.connMu.Unlock()

	s.svc.removeSession(s)
	log.Infof("session closed. sessionID=%q game=%s reason=%s", s.id, s.gameID, reason)
	return true
}

func (s *Session) writeControl(msgType int, data []byte) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	_ = s.conn.WriteControl(msgType, data, time.Now().Add(s.config.WriteTimeout.Std()))
}

func (s *Session) writeText(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.Closed() {
		return errSessionClosed
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout.Std())); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
