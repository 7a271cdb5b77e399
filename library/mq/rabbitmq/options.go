package rabbitmq

import (
	"errors"
	"fmt"
	"net/url"
)

// Options 连接配置
type Options struct {
	Host     string `json:"host" yaml:"host" env:"HOST"`
	Port     string `json:"port" yaml:"port" env:"PORT"`
	Username string `json:"username" yaml:"username" env:"USERNAME"`
	Password string `json:"password" yaml:"password" env:"PASSWORD"`
	VHost    string `json:"vhost" yaml:"vhost" env:"VHOST"`
}

func DefaultOptions() Options {
	return Options{
		Host:     "localhost",
		Port:     "5672",
		Username: "guest",
		Password: "guest",
		VHost:    "/",
	}
}

// BuildURL 构建RabbitMQ连接URL
func (o Options) BuildURL() string {
	vhost := o.VHost
	if vhost == "/" {
		vhost = ""
	}
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/%s",
		url.QueryEscape(o.Username),
		url.QueryEscape(o.Password),
		o.Host,
		o.Port,
		url.PathEscape(vhost),
	)
}

// ConsumerOptions 消费者配置
type ConsumerOptions struct {
	Queue        string `json:"queue" yaml:"queue"`
	Exchange     string `json:"exchange" yaml:"exchange"`
	ExchangeType string `json:"exchange_type" yaml:"exchange_type"`
	RoutingKey   string `json:"routing_key" yaml:"routing_key"`

	ConsumerTag   string `json:"consumer_tag" yaml:"consumer_tag"`
	AutoAck       bool   `json:"auto_ack" yaml:"auto_ack"`
	PrefetchCount int    `json:"prefetch_count" yaml:"prefetch_count"`
	Workers       int    `json:"workers" yaml:"workers"`
}

func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{
		Queue:         "default-queue",
		ExchangeType:  "direct",
		PrefetchCount: 1,
		Workers:       1,
	}
}

func (o ConsumerOptions) Validate() error {
	if o.Queue == "" {
		return errors.New("consumer queue is required")
	}
	return nil
}

// PublisherOptions 生产者配置
type PublisherOptions struct {
	Exchange     string `json:"exchange" yaml:"exchange" env:"EXCHANGE"`
	ExchangeType string `json:"exchange_type" yaml:"exchange_type" env:"EXCHANGE_TYPE"`
	RoutingKey   string `json:"routing_key" yaml:"routing_key" env:"ROUTING_KEY"`

	Mandatory bool `json:"mandatory" yaml:"mandatory"`
	Immediate bool `json:"immediate" yaml:"immediate"`
}

func DefaultPublisherOptions() PublisherOptions {
	return PublisherOptions{ExchangeType: "direct"}
}

func (o PublisherOptions) Validate() error {
	if o.Exchange == "" && o.RoutingKey == "" {
		return errors.New("publisher needs an exchange or a routing key")
	}
	return nil
}
