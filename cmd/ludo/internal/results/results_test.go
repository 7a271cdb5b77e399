package results

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/model"
)

func history() table.History {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return table.History{
		GameID:     "t-1.2",
		ID:         "t-1",
		Round:      2,
		Colors:     []model.Color{model.Red, model.Blue},
		Winner:     model.Blue,
		Turns:      40,
		Rolls:      90,
		Moves:      60,
		Captures:   3,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}

func TestFormat(t *testing.T) {
	s := Format(history())
	assert.Contains(t, s, "t-1.2  winner=blue")
	assert.Contains(t, s, "seats=[red blue]")
	assert.Contains(t, s, "captures=3")
	assert.Contains(t, s, "took=1.5s")
}

func TestHandler(t *testing.T) {
	body, err := json.Marshal(history())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, NewHandler(&out, false)(body))
	assert.Equal(t, Format(history())+"\n", out.String())

	out.Reset()
	require.NoError(t, NewHandler(&out, true)(body))
	assert.Contains(t, out.String(), "winner: blue")

	assert.Error(t, NewHandler(&out, false)([]byte("{")))
}
