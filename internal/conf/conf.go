package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/library/log/zap/conf"
	"github.com/yola1107/ludo/library/mq/rabbitmq"
)

const (
	Name    = "ludo"
	Version = "v0.1.0"
)

type Bootstrap struct {
	Server *Server `json:"server" envPrefix:"SERVER_"`
	Data   *Data   `json:"data" envPrefix:"DATA_"`
	Room   *Room   `json:"room" envPrefix:"ROOM_"`
	Log    *Log    `json:"log" envPrefix:"LOG_"`
}

type Log struct {
	Logger *conf.Logger `json:"logger"`
	Level  string       `json:"-" env:"LEVEL"`
}

type Server struct {
	Http      *Server_HTTP      `json:"http" envPrefix:"HTTP_"`
	Websocket *Server_Websocket `json:"websocket" envPrefix:"WS_"`
}

type Server_HTTP struct {
	Network   string   `json:"network" env:"NETWORK"`
	Addr      string   `json:"addr" env:"ADDR"`
	Timeout   Duration `json:"timeout" env:"TIMEOUT"`
	RateLimit bool     `json:"rate_limit" env:"RATE_LIMIT"`
}

// Server_Websocket 事件推送连接
type Server_Websocket struct {
	CommandRate  float64  `json:"command_rate" env:"COMMAND_RATE"`
	CommandBurst int      `json:"command_burst" env:"COMMAND_BURST"`
	PingInterval Duration `json:"ping_interval" env:"PING_INTERVAL"`
	WriteTimeout Duration `json:"write_timeout" env:"WRITE_TIMEOUT"`
	ReadLimit    int64    `json:"read_limit" env:"READ_LIMIT"`
}

type Data struct {
	Redis    *Data_Redis    `json:"redis" envPrefix:"REDIS_"`
	Sqlite   *Data_Sqlite   `json:"sqlite" envPrefix:"SQLITE_"`
	Rabbitmq *Data_Rabbitmq `json:"rabbitmq" envPrefix:"RABBITMQ_"`
}

type Data_Redis struct {
	Addr        string   `json:"addr" env:"ADDR"`
	Password    string   `json:"password" env:"PASSWORD"`
	Db          int      `json:"db" env:"DB"`
	SnapshotTTL Duration `json:"snapshot_ttl" env:"SNAPSHOT_TTL"`
	Timeout     Duration `json:"timeout" env:"TIMEOUT"`
}

type Data_Sqlite struct {
	Path string `json:"path" env:"PATH"`
}

// Data_Rabbitmq publishes finished games. Disabled when Enabled is false.
type Data_Rabbitmq struct {
	Enabled   bool                      `json:"enabled" env:"ENABLED"`
	Conn      rabbitmq.Options          `json:"conn" envPrefix:"CONN_"`
	Publisher rabbitmq.PublisherOptions `json:"publisher" envPrefix:"PUB_"`
}

type Room struct {
	Game     *Room_Game     `json:"game" envPrefix:"GAME_"`
	Robot    *Room_Robot    `json:"robot" envPrefix:"ROBOT_"`
	Turn     *Room_Turn     `json:"turn" envPrefix:"TURN_"`
	LogCache *Room_LogCache `json:"log_cache" envPrefix:"LOG_CACHE_"`
	Work     *Room_Work     `json:"work" envPrefix:"WORK_"`
}

// Room_Game 对局规则与桌子管理
type Room_Game struct {
	StartOffsets   []int    `json:"start_offsets" env:"START_OFFSETS"`
	SafeCells      []int    `json:"safe_cells" env:"SAFE_CELLS"`
	MaxSixes       int      `json:"max_sixes" env:"MAX_SIXES"`
	ExtraTurns     []string `json:"extra_turns" env:"EXTRA_TURNS"`
	AllowFixedDice bool     `json:"allow_fixed_dice" env:"ALLOW_FIXED_DICE"`
	MaxTables      int      `json:"max_tables" env:"MAX_TABLES"`
	FinishedTTL    Duration `json:"finished_ttl" env:"FINISHED_TTL"`
	ReapInterval   Duration `json:"reap_interval" env:"REAP_INTERVAL"`
	SaveTimeout    Duration `json:"save_timeout" env:"SAVE_TIMEOUT"`
}

// Room_Robot AI座位
type Room_Robot struct {
	Strategy string   `json:"strategy" env:"STRATEGY"`
	ThinkMin Duration `json:"think_min" env:"THINK_MIN"`
	ThinkMax Duration `json:"think_max" env:"THINK_MAX"`
}

// Room_Turn 玩家超时托管
type Room_Turn struct {
	Timeout  Duration `json:"timeout" env:"TIMEOUT"`
	Fallback string   `json:"fallback" env:"FALLBACK"`
}

type Room_LogCache struct {
	Open       bool   `json:"open" env:"OPEN"`
	Dir        string `json:"dir" env:"DIR"`
	MaxSizeMB  int    `json:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxAgeDays int    `json:"max_age_days" env:"MAX_AGE_DAYS"`
	MaxBackups int    `json:"max_backups" env:"MAX_BACKUPS"`
}

type Room_Work struct {
	PoolSize int      `json:"pool_size" env:"POOL_SIZE"`
	Tick     Duration `json:"tick" env:"TICK"`
}

// Rules builds the engine rules. Empty fields keep the engine defaults.
func (g *Room_Game) Rules() (model.Rules, error) {
	r := model.DefaultRules()
	if g == nil {
		return r, nil
	}
	if len(g.StartOffsets) > 0 {
		if len(g.StartOffsets) != model.ColorCount {
			return r, fmt.Errorf("start_offsets needs %d entries, got %d", model.ColorCount, len(g.StartOffsets))
		}
		copy(r.StartOffsets[:], g.StartOffsets)
	}
	if g.SafeCells != nil {
		r.SafeCells = append([]int(nil), g.SafeCells...)
	}
	if g.MaxSixes > 0 {
		r.MaxSixes = g.MaxSixes
	}
	if g.ExtraTurns != nil {
		r.ExtraTurns = make([]model.ExtraTurnReason, 0, len(g.ExtraTurns))
		for _, s := range g.ExtraTurns {
			r.ExtraTurns = append(r.ExtraTurns, model.ExtraTurnReason(strings.TrimSpace(s)))
		}
	}
	return r, r.Validate()
}

func (g *Room_Game) Validate() error {
	if _, err := g.Rules(); err != nil {
		return err
	}
	if g.MaxTables < 0 {
		return errors.New("max_tables must not be negative")
	}
	if g.ReapInterval <= 0 {
		return errors.New("reap_interval must be positive")
	}
	return nil
}

func (r *Room_Robot) Validate() error {
	if _, err := model.ParseStrategy(r.Strategy); err != nil {
		return err
	}
	if r.ThinkMin < 0 || r.ThinkMax < r.ThinkMin {
		return fmt.Errorf("invalid think delay [%v, %v]", r.ThinkMin, r.ThinkMax)
	}
	return nil
}

func (t *Room_Turn) Validate() error {
	if t.Timeout < 0 {
		return errors.New("turn timeout must not be negative")
	}
	_, err := model.ParseStrategy(t.Fallback)
	return err
}

func (l *Room_LogCache) Validate() error {
	if l.Open && l.Dir == "" {
		return errors.New("log_cache.dir is required when open")
	}
	return nil
}

func (c *Room) Validate() error {
	for _, v := range []interface{ Validate() error }{c.Game, c.Robot, c.Turn, c.LogCache} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Bootstrap) Validate() error {
	if c.Server == nil || c.Server.Http == nil || c.Server.Http.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if c.Data == nil || c.Data.Redis == nil || c.Data.Sqlite == nil || c.Data.Rabbitmq == nil {
		return errors.New("data section is incomplete")
	}
	if c.Data.Rabbitmq.Enabled {
		if err := c.Data.Rabbitmq.Publisher.Validate(); err != nil {
			return fmt.Errorf("data.rabbitmq: %w", err)
		}
	}
	if c.Room == nil {
		return errors.New("room section is required")
	}
	return c.Room.Validate()
}
