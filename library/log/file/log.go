package file

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006/01/02 15:04:05.000"

// Rotation bounds a log file on disk. Zero fields fall back to the defaults.
type Rotation struct {
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

var defaultRotation = Rotation{MaxSizeMB: 10, MaxAgeDays: 7, MaxBackups: 3}

func (r Rotation) withDefaults() Rotation {
	if r.MaxSizeMB <= 0 {
		r.MaxSizeMB = defaultRotation.MaxSizeMB
	}
	if r.MaxAgeDays <= 0 {
		r.MaxAgeDays = defaultRotation.MaxAgeDays
	}
	if r.MaxBackups <= 0 {
		r.MaxBackups = defaultRotation.MaxBackups
	}
	return r
}

// Log 单个文件的日志: plain lines prefixed with a timestamp, no level or caller.
type Log struct {
	sugar *zap.SugaredLogger
	out   *lumberjack.Logger
}

// NewFileLog opens a rotated log at filename. The file is created on the
// first write.
func NewFileLog(filename string, rot ...Rotation) *Log {
	r := defaultRotation
	if len(rot) > 0 {
		r = rot[0].withDefaults()
	}
	out := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    r.MaxSizeMB,
		MaxAge:     r.MaxAgeDays,
		MaxBackups: r.MaxBackups,
		LocalTime:  true,
		Compress:   true,
	}
	enc := zapcore.EncoderConfig{
		TimeKey:          "T",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       bracketTime,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(out), zapcore.InfoLevel)
	return &Log{sugar: zap.New(core).Sugar(), out: out}
}

func bracketTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("[%s]", t.Format(timeLayout)))
}

// Close flushes and releases the file handle.
func (l *Log) Close() error {
	_ = l.sugar.Sync()
	return l.out.Close()
}

// Infow writes msg followed by the key/values as json.
func (l *Log) Infow(msg string, kvs ...any) {
	l.sugar.Infow(msg, kvs...)
}

// WriteLog writes one formatted line.
func (l *Log) WriteLog(format string, args ...any) {
	l.sugar.Infof(format, args...)
}
