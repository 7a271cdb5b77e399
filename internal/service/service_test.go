package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/pkg/codes"
)

type memStore struct {
	mu    sync.Mutex
	snaps map[string]table.Snapshot
	hist  []table.History
}

func (m *memStore) SaveSnapshot(_ context.Context, s table.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[s.ID] = s
	return nil
}

func (m *memStore) LoadSnapshot(_ context.Context, id string) (table.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.snaps[id]; ok {
		return s, nil
	}
	return table.Snapshot{}, biz.ErrNotFound
}

func (m *memStore) DeleteSnapshot(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, id)
	return nil
}

func (m *memStore) SaveHistory(_ context.Context, h table.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hist = append(m.hist, h)
	return nil
}

func (m *memStore) ListHistory(_ context.Context, f biz.HistoryFilter) ([]table.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]table.History{}, m.hist...), nil
}

func (m *memStore) PublishResult(context.Context, table.History) error { return nil }

func newTestServer(t *testing.T, tweak func(*conf.Bootstrap)) (*httptest.Server, *LudoService) {
	t.Helper()
	bc := conf.DefaultConfig()
	bc.Room.LogCache.Dir = t.TempDir()
	bc.Room.Turn.Timeout = 0
	bc.Room.Robot.ThinkMin, bc.Room.Robot.ThinkMax = 0, 0
	if tweak != nil {
		tweak(bc)
	}

	store := &memStore{snaps: make(map[string]table.Snapshot)}
	uc, ucCleanup, err := biz.NewUsecase(store, store, store, conf.NewLiveRoom(bc.Room), log.DefaultLogger)
	require.NoError(t, err)
	svc, svcCleanup := NewLudoService(uc, bc.Server)

	srv := http.NewServer()
	RegisterLudoHTTPServer(srv, svc)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		svcCleanup()
		ucCleanup()
	})
	return ts, svc
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := nethttp.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createGame(t *testing.T, base string) table.View {
	t.Helper()
	var reply GameReply
	code := doJSON(t, "POST", base+"/v1/games", map[string]any{
		"seats": []map[string]string{
			{"color": "red", "kind": "human"},
			{"color": "blue", "kind": "human"},
		},
	}, &reply)
	require.Equal(t, 201, code)
	require.NotEmpty(t, reply.Game.ID)
	return reply.Game
}

func TestHTTPGameFlow(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	g := createGame(t, ts.URL)
	assert.Equal(t, model.Red, g.Game.Turn.Color)

	var list ListGamesReply
	require.Equal(t, 200, doJSON(t, "GET", ts.URL+"/v1/games", nil, &list))
	assert.Equal(t, 1, list.Total)

	var e ErrorBody
	code := doJSON(t, "POST", ts.URL+"/v1/games/"+g.ID+"/roll", map[string]any{"color": "blue"}, &e)
	assert.Equal(t, 409, code)
	assert.Equal(t, codes.ReasonNotYourTurn, e.Reason)

	code = doJSON(t, "POST", ts.URL+"/v1/games/"+g.ID+"/roll", map[string]any{"color": "red", "die": 6}, &e)
	assert.Equal(t, 403, code)
	assert.Equal(t, codes.ReasonFixedDice, e.Reason)

	var act ActionReply
	require.Equal(t, 200, doJSON(t, "POST", ts.URL+"/v1/games/"+g.ID+"/roll", map[string]any{"color": "red"}, &act))
	assert.Equal(t, model.CmdRoll, act.Outcome.Kind)
	assert.Equal(t, int64(1), act.Game.Game.Seq)

	code = doJSON(t, "POST", ts.URL+"/v1/games/"+g.ID+"/move", map[string]any{"color": "red"}, &e)
	assert.Equal(t, 400, code)
	assert.Equal(t, codes.ReasonInvalidArgument, e.Reason)

	require.Equal(t, 200, doJSON(t, "POST", ts.URL+"/v1/games/"+g.ID+"/reset", nil, &act))
	assert.Equal(t, model.PhaseAwaitRoll, act.Game.Game.Phase)

	var got GameReply
	require.Equal(t, 200, doJSON(t, "GET", ts.URL+"/v1/games/"+g.ID, nil, &got))
	assert.Equal(t, int64(2), got.Game.Game.Seq)

	var del DeleteGameReply
	require.Equal(t, 200, doJSON(t, "DELETE", ts.URL+"/v1/games/"+g.ID, nil, &del))
	assert.True(t, del.Deleted)

	code = doJSON(t, "GET", ts.URL+"/v1/games/"+g.ID, nil, &e)
	assert.Equal(t, 404, code)
	assert.Equal(t, codes.ReasonGameNotFound, e.Reason)
}

func TestHTTPCreateRejectsBadSeats(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	var e ErrorBody
	code := doJSON(t, "POST", ts.URL+"/v1/games", map[string]any{
		"seats": []map[string]string{{"color": "red", "kind": "human"}},
	}, &e)
	assert.Equal(t, 400, code)
	assert.Equal(t, codes.ReasonInvalidArgument, e.Reason)
}

func TestHTTPHistoryQuery(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var reply HistoryReply
	require.Equal(t, 200, doJSON(t, "GET", ts.URL+"/v1/history?limit=5&winner=red", nil, &reply))
	assert.Equal(t, 5, reply.Limit)

	var e ErrorBody
	assert.Equal(t, 400, doJSON(t, "GET", ts.URL+"/v1/history?limit=abc", nil, &e))
	assert.Equal(t, 400, doJSON(t, "GET", ts.URL+"/v1/history?winner=purple", nil, &e))
}

func dialEvents(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/games/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebsocketEvents(t *testing.T) {
	ts, svc := newTestServer(t, nil)
	g := createGame(t, ts.URL)

	conn := dialEvents(t, ts, g.ID)
	first := readFrame(t, conn)
	require.Equal(t, FrameSnapshot, first.Type)
	assert.Equal(t, g.ID, first.Game.ID)
	require.Eventually(t, func() bool { return svc.SessionCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Command{Op: "roll", Color: "red"}))
	seen := map[string]bool{}
	for len(seen) < 2 {
		f := readFrame(t, conn)
		seen[f.Type] = true
		switch f.Type {
		case FrameEvent:
			assert.Equal(t, table.EventRolled, f.Event.Type)
		case FrameReply:
			assert.Equal(t, "roll", f.Op)
			assert.Equal(t, model.CmdRoll, f.Reply.Outcome.Kind)
		default:
			t.Fatalf("unexpected frame %+v", f)
		}
	}

	require.NoError(t, conn.WriteJSON(Command{Op: "jump"}))
	f := readFrame(t, conn)
	require.Equal(t, FrameError, f.Type)
	assert.Equal(t, codes.ReasonInvalidArgument, f.Error.Reason)

	// deleting the game ends the stream
	require.Equal(t, 200, doJSON(t, "DELETE", ts.URL+"/v1/games/"+g.ID, nil, nil))
	require.Eventually(t, func() bool { return svc.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketRateLimit(t *testing.T) {
	ts, _ := newTestServer(t, func(bc *conf.Bootstrap) {
		bc.Server.Websocket.CommandRate = 0.001
		bc.Server.Websocket.CommandBurst = 1
	})
	g := createGame(t, ts.URL)
	conn := dialEvents(t, ts, g.ID)
	require.Equal(t, FrameSnapshot, readFrame(t, conn).Type)

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(Command{Op: "move", Color: "red"}))
	}
	var reasons []string
	for len(reasons) < 2 {
		f := readFrame(t, conn)
		if f.Type == FrameError {
			reasons = append(reasons, f.Error.Reason)
		}
	}
	assert.Equal(t, []string{codes.ReasonInvalidArgument, codes.ReasonRateLimited}, reasons)
}

func TestWebsocketUnknownGame(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/games/nope/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode, fmt.Sprint(resp.Status))
}
