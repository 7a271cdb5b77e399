package server

import (
	"github.com/go-kratos/aegis/ratelimit/bbr"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/ratelimit"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/internal/service"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, ludo *service.LudoService, logger log.Logger) *http.Server {
	ms := []middleware.Middleware{
		recovery.Recovery(),
		logging.Server(logger),
	}
	if c.Http.RateLimit {
		ms = append(ms, ratelimit.Server(ratelimit.WithLimiter(bbr.NewLimiter())))
	}
	var opts = []http.ServerOption{
		http.Middleware(ms...),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout > 0 {
		opts = append(opts, http.Timeout(c.Http.Timeout.Std()))
	}
	srv := http.NewServer(opts...)
	service.RegisterLudoHTTPServer(srv, ludo)
	return srv
}
