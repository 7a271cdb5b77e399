package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Publisher 生产者, safe for concurrent use.
type Publisher struct {
	opts    Options
	pubOpts PublisherOptions

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(opts Options, pubOpts PublisherOptions) (*Publisher, error) {
	if err := pubOpts.Validate(); err != nil {
		return nil, err
	}
	conn, err := amqp.Dial(opts.BuildURL())
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if pubOpts.Exchange != "" {
		if err := ch.ExchangeDeclare(
			pubOpts.Exchange,
			pubOpts.ExchangeType,
			true, false, false, false, nil,
		); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare exchange %q: %w", pubOpts.Exchange, err)
		}
	}

	return &Publisher{
		conn:    conn,
		ch:      ch,
		opts:    opts,
		pubOpts: pubOpts,
	}, nil
}

// Publish sends body with the given content type.
func (p *Publisher) Publish(ctx context.Context, contentType string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return fmt.Errorf("publisher closed")
	}
	return p.ch.Publish(
		p.pubOpts.Exchange,
		p.pubOpts.RoutingKey,
		p.pubOpts.Mandatory,
		p.pubOpts.Immediate,
		amqp.Publishing{
			ContentType:  contentType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// PublishJSON marshals v and publishes it as application/json.
func (p *Publisher) PublishJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, "application/json", body)
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
