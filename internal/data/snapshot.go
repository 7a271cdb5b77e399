package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/biz/table"
)

const snapshotKeyPrefix = "ludo:game:"

func snapshotKey(id string) string {
	return snapshotKeyPrefix + id
}

// snapshotRepo keeps one JSON snapshot per game in redis.
type snapshotRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSnapshotRepo(d *Data) biz.SnapshotRepo {
	return &snapshotRepo{rdb: d.rdb, ttl: d.c.Redis.SnapshotTTL.Std()}
}

func (r *snapshotRepo) SaveSnapshot(ctx context.Context, s table.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", s.ID, err)
	}
	if err := r.rdb.Set(ctx, snapshotKey(s.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.ID, err)
	}
	return nil
}

func (r *snapshotRepo) LoadSnapshot(ctx context.Context, id string) (table.Snapshot, error) {
	b, err := r.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return table.Snapshot{}, biz.ErrNotFound
	}
	if err != nil {
		return table.Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	var s table.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return table.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return s, nil
}

func (r *snapshotRepo) DeleteSnapshot(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, snapshotKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if n == 0 {
		return biz.ErrNotFound
	}
	return nil
}
