package conf

import (
	"time"

	"github.com/yola1107/ludo/internal/model"
	zconf "github.com/yola1107/ludo/library/log/zap/conf"
	"github.com/yola1107/ludo/library/mq/rabbitmq"
)

// DefaultConfig is merged under whatever the config file leaves empty.
func DefaultConfig() *Bootstrap {
	return &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: "tcp",
				Addr:    "0.0.0.0:8000",
				Timeout: Duration(5 * time.Second),
			},
			Websocket: &Server_Websocket{
				CommandRate:  5,
				CommandBurst: 10,
				PingInterval: Duration(15 * time.Second),
				WriteTimeout: Duration(5 * time.Second),
				ReadLimit:    4096,
			},
		},
		Data: &Data{
			Redis: &Data_Redis{
				Addr:        "127.0.0.1:6379",
				SnapshotTTL: Duration(24 * time.Hour),
				Timeout:     Duration(time.Second),
			},
			Sqlite: &Data_Sqlite{Path: "./data/ludo.db"},
			Rabbitmq: &Data_Rabbitmq{
				Conn: rabbitmq.DefaultOptions(),
				Publisher: rabbitmq.PublisherOptions{
					Exchange:     "ludo.results",
					ExchangeType: "fanout",
				},
			},
		},
		Room: &Room{
			Game: &Room_Game{
				MaxTables:    1000,
				FinishedTTL:  Duration(10 * time.Minute),
				ReapInterval: Duration(time.Minute),
				SaveTimeout:  Duration(time.Second),
			},
			Robot: &Room_Robot{
				Strategy: string(model.StrategyEvaluate),
				ThinkMin: Duration(500 * time.Millisecond),
				ThinkMax: Duration(1500 * time.Millisecond),
			},
			Turn: &Room_Turn{
				Timeout:  Duration(30 * time.Second),
				Fallback: string(model.StrategyFurthest),
			},
			LogCache: &Room_LogCache{Dir: "./logs/log_cache", MaxSizeMB: 10, MaxAgeDays: 7, MaxBackups: 3},
			Work: &Room_Work{
				PoolSize: 200,
				Tick:     Duration(50 * time.Millisecond),
			},
		},
		Log: &Log{
			Logger: zconf.DefaultConfig(zconf.WithAppName(Name)),
		},
	}
}
