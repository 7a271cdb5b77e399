package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/library/mq/rabbitmq"
)

// resultPublisher fans finished games out on the results exchange. Without a
// broker it only logs.
type resultPublisher struct {
	pub *rabbitmq.Publisher
}

func NewResultPublisher(d *Data) biz.ResultPublisher {
	return &resultPublisher{pub: d.pub}
}

func (p *resultPublisher) PublishResult(ctx context.Context, h table.History) error {
	if p.pub == nil {
		log.Debugf("result publisher disabled. tb=%s winner=%v", h.ID, h.Winner)
		return nil
	}
	return p.pub.PublishJSON(ctx, h)
}
