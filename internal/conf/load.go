package conf

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/ludo/library/event"
	"github.com/yola1107/ludo/library/ext"
	"github.com/yola1107/ludo/library/log/zap"
	zconf "github.com/yola1107/ludo/library/log/zap/conf"
)

// EnvPrefix 环境变量前缀, e.g. LUDO_SERVER_HTTP_ADDR.
const EnvPrefix = "LUDO_"

// LoadConfig reads the file (or directory) at path, fills defaults, applies
// environment overrides and validates the result.
func LoadConfig(path string) (config.Config, *Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	if err := c.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config %q: %w", path, err)
	}

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("scan config: %w", err)
	}
	if err := Complete(&bc); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, &bc, nil
}

// Complete merges defaults and env overrides into bc and validates it.
func Complete(bc *Bootstrap) error {
	if err := mergo.Merge(bc, DefaultConfig()); err != nil {
		return fmt.Errorf("merge defaults: %w", err)
	}
	if err := env.ParseWithOptions(bc, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	if bc.Log.Level != "" {
		bc.Log.Logger.Level = bc.Log.Level
	}
	if err := bc.Validate(); err != nil {
		return fmt.Errorf("bootstrap config invalid: %w", err)
	}
	return nil
}

// WatchConfig 监听配置变更并推送事件
func WatchConfig(c config.Config, bc *Bootstrap, logger *zap.Logger) (*event.Bus, error) {
	bus := event.NewEventBus()
	subscribeBus(bus, logger)

	for key, ptr := range map[string]any{
		"room.game":      bc.Room.Game,
		"room.robot":     bc.Room.Robot,
		"room.turn":      bc.Room.Turn,
		"room.log_cache": bc.Room.LogCache,
		"log.logger":     bc.Log.Logger,
	} {
		if err := c.Watch(key, observer(key, ptr, bus)); err != nil {
			if errors.Is(err, config.ErrNotFound) {
				log.Debugf("[config] %q not in config file, not watched", key)
				continue
			}
			return nil, fmt.Errorf("watch %q failed: %w", key, err)
		}
	}
	return bus, nil
}

// observer publishes a freshly scanned copy of key on every effective change.
// Values already published are never written again, readers swap pointers.
func observer(key string, target any, bus *event.Bus) config.Observer {
	var mu sync.Mutex
	cur := target
	return func(_ string, val config.Value) {
		mu.Lock()
		defer mu.Unlock()

		typ := reflect.TypeOf(cur)
		if typ.Kind() != reflect.Pointer {
			log.Errorf("[config] %q target must be a pointer", key)
			return
		}

		newVal := reflect.New(typ.Elem()).Interface()
		if err := val.Scan(newVal); err != nil {
			log.Errorf("[config] scan failed: key=%q, err=%v", key, err)
			return
		}
		// 未配置的字段沿用当前值
		if err := mergo.Merge(newVal, cur); err != nil {
			log.Errorf("[config] merge failed: key=%q, err=%v", key, err)
			return
		}
		if v, ok := newVal.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				log.Errorf("[config] validation failed: key=%q, err=%v", key, err)
				return
			}
		}

		changes, diff, err := ext.DiffLog(cur, newVal)
		if err != nil {
			log.Errorf("[config] diff failed: key=%q, err=%v", key, err)
			return
		}
		if len(changes) == 0 {
			return
		}
		log.Warnf("[config] [%q] updated:\n%s", key, diff)
		cur = newVal
		bus.Publish(key, newVal)
	}
}

func subscribeBus(bus *event.Bus, logger *zap.Logger) {
	if logger == nil {
		return
	}
	bus.Subscribe("log.logger", func(val any) {
		v, ok := val.(*zconf.Logger)
		if !ok {
			return
		}
		if v.Level != logger.GetLevel() {
			if err := logger.SetLevel(v.Level); err != nil {
				log.Errorf("[config] %v", err)
			}
		}
		if changes, err := ext.Diff(v.Sensitive, logger.GetSensitive()); err == nil && len(changes) > 0 {
			logger.SetSensitive(v.Sensitive)
		}
	})
}
