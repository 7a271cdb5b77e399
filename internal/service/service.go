package service

import (
	"net/http"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-playground/form/v4"
	"github.com/google/wire"
	"github.com/gorilla/websocket"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/conf"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewLudoService)

// LudoService serves the game API and the event stream.
type LudoService struct {
	uc       *biz.Usecase
	wc       *conf.Server_Websocket
	upgrader *websocket.Upgrader
	decoder  *form.Decoder

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewLudoService(uc *biz.Usecase, c *conf.Server) (*LudoService, func()) {
	s := &LudoService{
		uc: uc,
		wc: c.Websocket,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		decoder:  form.NewDecoder(),
		sessions: make(map[string]*Session),
	}
	cleanup := func() {
		log.Info("closing the websocket sessions")
		s.closeSessions()
	}
	return s, cleanup
}

func (s *LudoService) addSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

func (s *LudoService) removeSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.ID())
}

// SessionCount 当前连接数
func (s *LudoService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *LudoService) closeSessions() {
	s.mu.Lock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.Unlock()
	for _, sess := range list {
		sess.Close("server shutdown")
	}
}
