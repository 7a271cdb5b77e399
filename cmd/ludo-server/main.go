package main

import (
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/library/log/zap"
)

var (
	Name     = conf.Name
	Version  = conf.Version
	flagconf string // -conf path
	id, _    = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, e.g. -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}

func main() {
	flag.Parse()

	c, bc, err := conf.LoadConfig(flagconf)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	logger, err := zap.NewLogger(bc.Log.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Close()
	log.SetLogger(logger)

	bus, err := conf.WatchConfig(c, bc, logger)
	if err != nil {
		panic(err)
	}
	room := conf.NewLiveRoom(bc.Room)
	room.Bind(bus)

	app, cleanup, err := wireApp(bc.Server, bc.Data, room, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	log.Infof("start server:%q version:%s addr:%s", Name, Version, bc.Server.Http.Addr)
	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
