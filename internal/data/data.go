package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/library/mq/rabbitmq"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewData, NewSnapshotRepo, NewHistoryRepo, NewResultPublisher)

const (
	redisPoolSize    = 10
	redisMinIdle     = 5
	redisMaxIdleTime = 5 * time.Minute
)

// Data holds the storage clients shared by the repos.
type Data struct {
	c   *conf.Data
	rdb *redis.Client
	db  *sql.DB
	pub *rabbitmq.Publisher
}

// NewData opens redis, sqlite and, when enabled, the result publisher.
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	l := log.NewHelper(logger)
	d := &Data{c: c, rdb: newRedis(c.Redis)}

	ctx, cancel := context.WithTimeout(context.Background(), c.Redis.Timeout.Std())
	defer cancel()
	if err := d.rdb.Ping(ctx).Err(); err != nil {
		// the client reconnects on its own; tables keep running without snapshots
		l.Warnf("redis unreachable. addr=%s err=%v", c.Redis.Addr, err)
	}

	db, err := openSqlite(c.Sqlite.Path)
	if err != nil {
		_ = d.rdb.Close()
		return nil, nil, err
	}
	d.db = db

	if c.Rabbitmq.Enabled {
		pub, err := rabbitmq.NewPublisher(c.Rabbitmq.Conn, c.Rabbitmq.Publisher)
		if err != nil {
			_ = d.rdb.Close()
			_ = d.db.Close()
			return nil, nil, err
		}
		d.pub = pub
	}

	cleanup := func() {
		l.Info("closing the data resources")
		if d.pub != nil {
			d.pub.Close()
		}
		if err := d.db.Close(); err != nil {
			l.Errorf("close sqlite: %v", err)
		}
		if err := d.rdb.Close(); err != nil {
			l.Errorf("close redis: %v", err)
		}
	}
	return d, cleanup, nil
}

func newRedis(c *conf.Data_Redis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.Db,
		PoolSize:        redisPoolSize,
		MinIdleConns:    redisMinIdle,
		ConnMaxIdleTime: redisMaxIdleTime,
		DialTimeout:     c.Timeout.Std(),
		ReadTimeout:     c.Timeout.Std(),
		WriteTimeout:    c.Timeout.Std(),
	})
}

// openSqlite opens the history database and applies the embedded migrations.
func openSqlite(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := clean + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}
