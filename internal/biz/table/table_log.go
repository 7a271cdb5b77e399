package table

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/library/log/file"
	"github.com/yola1107/ludo/library/xgo"
)

// Log 桌子日志, a human readable trail of one game.
type Log struct {
	c      *conf.Room_LogCache
	logger *file.Log
}

func NewTableLog(id string, c *conf.Room_LogCache) *Log {
	return &Log{
		c:      c,
		logger: file.NewFileLog(filepath.Join(c.Dir, fmt.Sprintf("table_%s.log", id)), file.Rotation{
			MaxSizeMB:  c.MaxSizeMB,
			MaxAgeDays: c.MaxAgeDays,
			MaxBackups: c.MaxBackups,
		}),
	}
}

func (l *Log) Close() error {
	return l.logger.Close()
}

func (l *Log) write(msg string, args ...any) {
	if !l.c.Open {
		return
	}
	l.logger.WriteLog(msg, args...)
}

func (l *Log) begin(tb string, seats []Seat) {
	logs := []string{fmt.Sprintf("[游戏开始] %s", tb)}
	for _, s := range seats {
		logs = append(logs, fmt.Sprintf("座位:%v kind=%s strategy=%q player=%q", s.Color, s.Kind, s.Strategy, s.PlayerID))
	}
	l.write(strings.Join(logs, "\r\n"))
}

func (l *Log) dice(out model.Outcome, timeout bool) {
	l.write("[玩家掷骰] color=%v dice=%d movable=%v forfeited=%v passed=%v next=%v timeout=%v",
		out.Color, out.Die, out.Movable, out.Forfeited, out.Passed, out.Next, timeout)
}

func (l *Log) move(out model.Outcome, timeout bool) {
	if out.Move == nil {
		return
	}
	m := out.Move
	eat := ""
	if len(m.Captures) > 0 {
		eat = fmt.Sprintf("(cnt=%d,e=%s)", len(m.Captures), xgo.ToJSON(m.Captures))
	}
	l.write("[玩家移动] color=%v [id=%d, x=%d] %v->%v eat=%s extra=%v won=%v next=%v timeout=%v",
		m.Color, m.Index, m.Die, m.From, m.To, eat, m.Reasons, m.Won, out.Next, timeout)
}

func (l *Log) reset(tb string) {
	l.write("[重置对局] %s", tb)
}

func (l *Log) settle(h History) {
	l.write("[结算] winner=%v turns=%d rolls=%d moves=%d captures=%d forfeits=%d",
		h.Winner, h.Turns, h.Rolls, h.Moves, h.Captures, h.Forfeits)
}

func (l *Log) close(tb string) {
	l.write("[关闭桌子] %s", tb)
	l.write("\r\n\r\n")
}
