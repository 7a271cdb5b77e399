package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/model"
)

// historyRepo stores finished games in sqlite.
type historyRepo struct {
	db *sql.DB
}

func NewHistoryRepo(d *Data) biz.HistoryRepo {
	return &historyRepo{db: d.db}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func (r *historyRepo) SaveHistory(ctx context.Context, h table.History) error {
	colors, err := json.Marshal(h.Colors)
	if err != nil {
		return fmt.Errorf("marshal colors: %w", err)
	}
	seats, err := json.Marshal(h.Seats)
	if err != nil {
		return fmt.Errorf("marshal seats: %w", err)
	}
	if h.GameID == "" {
		h.GameID = table.RoundID(h.ID, max(h.Round, 1))
	}
	// a retried save of the same round replaces its own row only
	_, err = r.db.ExecContext(ctx, `
INSERT OR REPLACE INTO game_history
    (game_id, id, round, colors, seats, winner, turns, rolls, moves, captures, forfeits, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.GameID, h.ID, max(h.Round, 1), string(colors), string(seats), h.Winner.String(),
		h.Turns, h.Rolls, h.Moves, h.Captures, h.Forfeits,
		toMillis(h.StartedAt), toMillis(h.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert history %s: %w", h.GameID, err)
	}
	return nil
}

func (r *historyRepo) ListHistory(ctx context.Context, f biz.HistoryFilter) ([]table.History, error) {
	f = f.Normalize()
	var (
		where []string
		args  []any
	)
	if f.Winner != "" {
		where = append(where, "winner = ?")
		args = append(args, f.Winner)
	}
	if f.Table != "" {
		where = append(where, "id = ?")
		args = append(args, f.Table)
	}
	if !f.Since.IsZero() {
		where = append(where, "finished_at >= ?")
		args = append(args, toMillis(f.Since))
	}
	q := `SELECT game_id, id, round, colors, seats, winner, turns, rolls, moves, captures, forfeits, started_at, finished_at
FROM game_history`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY finished_at DESC, game_id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var list []table.History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return list, nil
}

func scanHistory(rows *sql.Rows) (table.History, error) {
	var (
		h                 table.History
		colors, seats     string
		winner            string
		started, finished int64
	)
	if err := rows.Scan(&h.GameID, &h.ID, &h.Round, &colors, &seats, &winner, &h.Turns, &h.Rolls, &h.Moves,
		&h.Captures, &h.Forfeits, &started, &finished); err != nil {
		return h, fmt.Errorf("scan history: %w", err)
	}
	if err := json.Unmarshal([]byte(colors), &h.Colors); err != nil {
		return h, fmt.Errorf("decode colors of %s: %w", h.GameID, err)
	}
	if err := json.Unmarshal([]byte(seats), &h.Seats); err != nil {
		return h, fmt.Errorf("decode seats of %s: %w", h.GameID, err)
	}
	c, err := model.ParseColor(winner)
	if err != nil {
		return h, fmt.Errorf("decode winner of %s: %w", h.GameID, err)
	}
	h.Winner = c
	h.StartedAt = fromMillis(started)
	h.FinishedAt = fromMillis(finished)
	return h, nil
}
