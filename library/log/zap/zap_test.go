package zap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yola1107/ludo/library/log/zap/conf"
)

func TestLoggerWritesFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(conf.DefaultConfig(
		conf.WithProduction(),
		conf.WithAppName("ludo"),
		conf.WithDirectory(dir),
		conf.WithErrorFile(true),
		conf.WithSensitive("Token"),
	))
	require.NoError(t, err)

	h := log.NewHelper(l)
	h.Infow("msg", "game created", "game", "g1", "token", "secret")
	h.Errorf("roll rejected: %v", "wrong phase")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "ludo.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "game created")
	assert.Contains(t, string(data), "***")
	assert.NotContains(t, string(data), "secret")

	errData, err := os.ReadFile(filepath.Join(dir, "ludo_error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errData), "wrong phase")
	assert.NotContains(t, string(errData), "game created")
}

func TestLoggerLevel(t *testing.T) {
	l, err := NewLogger(nil)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, "debug", l.GetLevel())
	require.NoError(t, l.SetLevel("warn"))
	assert.Equal(t, "warn", l.GetLevel())
	assert.False(t, l.GetZap().Core().Enabled(zap.InfoLevel))
	assert.Error(t, l.SetLevel("loud"))

	l.SetSensitive([]string{"A", "b"})
	assert.ElementsMatch(t, []string{"a", "b"}, l.GetSensitive())
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(conf.DefaultConfig(conf.WithLevel("chatty")))
	assert.Error(t, err)
}
