package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLog(t *testing.T) {
	name := filepath.Join(t.TempDir(), "table_g1.log")
	l := NewFileLog(name)
	l.WriteLog("[掷骰] color:%s die:%d", "red", 6)
	l.Infow("move", "token", 2)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[掷骰] color:red die:6")
	assert.Contains(t, string(data), `{"token": 2}`)
	assert.NotContains(t, string(data), "INFO")
}

func TestRotationDefaults(t *testing.T) {
	assert.Equal(t, defaultRotation, Rotation{}.withDefaults())
	assert.Equal(t, Rotation{MaxSizeMB: 1, MaxAgeDays: 7, MaxBackups: 3}, Rotation{MaxSizeMB: 1}.withDefaults())
}
