package zap

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yola1107/ludo/library/log/zap/conf"
)

var _ log.Logger = (*Logger)(nil)

const sensitiveMask = "***"

// callerSkip is the frame count between Logger.Log and the code that logged,
// for direct calls and for calls through the kratos log package.
const (
	directSkip = 2
	facadeSkip = 3
)

// Logger adapts zap to the kratos log.Logger interface.
type Logger struct {
	wrap       *zapWrap
	direct     *zap.Logger
	facade     *zap.Logger
	sensitives atomic.Pointer[map[string]struct{}]
}

// NewLogger builds a kratos logger on zap. A nil config means dev defaults.
func NewLogger(c *conf.Logger) (*Logger, error) {
	if c == nil {
		c = conf.DefaultConfig()
	}
	wrap, err := newZapWrap(c)
	if err != nil {
		return nil, err
	}
	l := &Logger{
		wrap:   wrap,
		direct: wrap.log.WithOptions(zap.AddCallerSkip(directSkip)),
		facade: wrap.log.WithOptions(zap.AddCallerSkip(facadeSkip)),
	}
	l.SetSensitive(c.Sensitive)
	wrap.log.Debug("logger ready",
		zap.String("mode", c.Mode), zap.String("app", c.AppName), zap.String("level", c.Level),
		zap.String("dir", c.Directory), zap.Strings("sensitive", c.Sensitive))
	return l, nil
}

func (l *Logger) Log(level log.Level, keyvals ...any) error {
	zl := zapcore.Level(level)
	if zl < zapcore.DPanicLevel && !l.wrap.log.Core().Enabled(zl) {
		return nil
	}
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.wrap.log.Warn(fmt.Sprint("keyvals must come in pairs: ", keyvals))
		return nil
	}

	msg, fields := l.fields(keyvals)
	logger := l.direct
	if viaFacade() {
		logger = l.facade
	}
	if ce := logger.Check(zl, msg); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

// fields splits out the message and masks sensitive keys.
func (l *Logger) fields(keyvals []any) (string, []zap.Field) {
	var msg string
	masked := *l.sensitives.Load()
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		switch _, secret := masked[strings.ToLower(key)]; {
		case key == log.DefaultMessageKey:
			msg, _ = keyvals[i+1].(string)
		case secret:
			fields = append(fields, zap.String(key, sensitiveMask))
		default:
			fields = append(fields, zap.Any(key, keyvals[i+1]))
		}
	}
	return msg, fields
}

// viaFacade reports whether the record came through the kratos log package
// (helper or global functions) rather than a direct Log call.
func viaFacade() bool {
	var pcs [6]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if strings.Contains(f.Function, "kratos/v2/log.") {
			return true
		}
		if !more {
			return false
		}
	}
}

func (l *Logger) Close() error {
	return l.wrap.close()
}

func (l *Logger) GetZap() *zap.Logger {
	return l.wrap.log
}

func (l *Logger) GetLevel() string {
	return l.wrap.level.String()
}

// SetLevel changes the level of every core at runtime.
func (l *Logger) SetLevel(level string) error {
	if err := l.wrap.level.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.wrap.log.Info("log level updated", zap.String("level", level))
	return nil
}

func (l *Logger) GetSensitive() []string {
	set := *l.sensitives.Load()
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}

// SetSensitive replaces the masked keys; matching ignores case.
func (l *Logger) SetSensitive(keys []string) {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	l.sensitives.Store(&set)
}
