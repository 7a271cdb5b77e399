package rabbitmq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/streadway/amqp"
)

const (
	minRetryInterval = 500 * time.Millisecond
	maxRetryInterval = 30 * time.Second
)

// MessageHandler handles one delivery body. A returned error requeues the
// message unless the consumer auto-acks.
type MessageHandler func([]byte) error

// ConsumerStats counts deliveries since the consumer started.
type ConsumerStats struct {
	Handled    int64
	Failed     int64
	Reconnects int64
}

// Consumer reads a queue with a fixed number of workers and redials the
// broker with backoff until Close.
type Consumer struct {
	opts    Options
	copts   ConsumerOptions
	handler MessageHandler

	mu   sync.Mutex
	conn *amqp.Connection

	handled    atomic.Int64
	failed     atomic.Int64
	reconnects atomic.Int64

	quit      chan struct{}
	quitOnce  sync.Once
	done      chan struct{}
	startOnce sync.Once
}

func NewConsumer(opts Options, copts ConsumerOptions, handler MessageHandler) (*Consumer, error) {
	if err := copts.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, fmt.Errorf("consumer %q: nil handler", copts.Queue)
	}
	copts.Workers = max(copts.Workers, 1)
	if copts.PrefetchCount <= 0 {
		copts.PrefetchCount = copts.Workers
	}
	if copts.ConsumerTag == "" {
		copts.ConsumerTag = fmt.Sprintf("%s-%d", copts.Queue, time.Now().UnixNano())
	}
	return &Consumer{
		opts:    opts,
		copts:   copts,
		handler: handler,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{Handled: c.handled.Load(), Failed: c.failed.Load(), Reconnects: c.reconnects.Load()}
}

// Start runs the consume loop in the background. Calling it twice is a no-op.
func (c *Consumer) Start() {
	c.startOnce.Do(func() { go c.loop() })
}

func (c *Consumer) loop() {
	defer close(c.done)
	backoff := minRetryInterval
	for {
		began := time.Now()
		err := c.session()
		if c.stopping() {
			return
		}
		// a session that lived a while resets the backoff
		if time.Since(began) > maxRetryInterval {
			backoff = minRetryInterval
		}
		c.reconnects.Add(1)
		log.Warnf("[consumer] queue=%s lost, redial in %v: %v", c.copts.Queue, backoff, err)
		select {
		case <-c.quit:
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxRetryInterval)
	}
}

func (c *Consumer) stopping() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// session serves one broker connection until it drops or Close is called.
func (c *Consumer) session() error {
	conn, err := amqp.Dial(c.opts.BuildURL())
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer ch.Close()

	deliveries, err := c.subscribe(ch)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	log.Infof("[consumer] queue=%s consuming with %d workers", c.copts.Queue, c.copts.Workers)

	var wg sync.WaitGroup
	for i := range c.copts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(i, deliveries)
		}()
	}

	lost := ch.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-c.quit:
		err = nil
	case e := <-lost:
		err = e
	}
	_ = ch.Close()
	wg.Wait()
	return err
}

// subscribe declares the topology and opens the delivery stream.
func (c *Consumer) subscribe(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	o := c.copts
	if err := ch.Qos(o.PrefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	if o.Exchange != "" {
		if err := ch.ExchangeDeclare(o.Exchange, o.ExchangeType, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare exchange %s: %w", o.Exchange, err)
		}
	}
	if _, err := ch.QueueDeclare(o.Queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", o.Queue, err)
	}
	if o.Exchange != "" {
		if err := ch.QueueBind(o.Queue, o.RoutingKey, o.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind %s to %s: %w", o.Queue, o.Exchange, err)
		}
	}
	return ch.Consume(o.Queue, o.ConsumerTag, o.AutoAck, false, false, false, nil)
}

func (c *Consumer) work(id int, deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		c.deliver(id, d)
	}
}

func (c *Consumer) deliver(id int, d amqp.Delivery) {
	err := c.handler(d.Body)
	if err != nil {
		c.failed.Add(1)
		log.Errorf("[consumer] worker-%d queue=%s handle failed: %v", id, c.copts.Queue, err)
	} else {
		c.handled.Add(1)
	}
	if c.copts.AutoAck {
		return
	}
	if err != nil {
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}

// Close stops consuming and waits for in-flight handlers.
func (c *Consumer) Close() {
	c.quitOnce.Do(func() {
		close(c.quit)
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	})
	c.startOnce.Do(func() { close(c.done) })
	<-c.done
}
