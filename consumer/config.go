package consumer

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"github.com/nano-interactive/go-amqp-archive/logging"
	"github.com/nano-interactive/go-amqp-archive/serializer"
)

type (
	Config[T any] struct {
		serializer     serializer.Reader[T]
		logger         logging.Logger
		onMessageError func(context.Context, *amqp091.Delivery, error)
		onError        func(error)
		queueConfig    QueueConfig
	}

	Option[T any] func(*Config[T])
)

func WithQueueConfig[T any](cfg QueueConfig) Option[T] {
	return func(c *Config[T]) {
		if cfg.Workers < 1 {
			cfg.Workers = 1
		}

		if cfg.PrefetchCount < 1 {
			cfg.PrefetchCount = 128
		}

		c.queueConfig = cfg
	}
}

// WithSerializer sets the reader for deliveries without a known content
// type. JSON, XML and text deliveries are always decoded by their own reader.
func WithSerializer[T any](ser serializer.Reader[T]) Option[T] {
	return func(c *Config[T]) {
		if ser != nil {
			c.serializer = ser
		}
	}
}

func WithLogger[T any](logger logging.Logger) Option[T] {
	return func(c *Config[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithOnMessageError[T any](onMessageError func(context.Context, *amqp091.Delivery, error)) Option[T] {
	return func(c *Config[T]) {
		c.onMessageError = onMessageError
	}
}

func WithOnErrorFunc[T any](onError func(error)) Option[T] {
	return func(c *Config[T]) {
		c.onError = onError
	}
}

func defaultConfig[T any]() Config[T] {
	return Config[T]{
		serializer: serializer.JSON[T]{},
		logger:     logging.EmptyLogger{},
		queueConfig: QueueConfig{
			Workers:       1,
			PrefetchCount: 128,
		},
	}
}

func (c *Config[T]) setDefaults(queueName string) {
	if c.onMessageError == nil {
		logger := c.logger
		c.onMessageError = func(_ context.Context, _ *amqp091.Delivery, err error) {
			logger.Error("Failed to handle message(%s): %v", queueName, err)
		}
	}

	if c.onError == nil {
		logger := c.logger
		c.onError = func(err error) {
			logger.Error("Consumer(%s) connection error: %v", queueName, err)
		}
	}
}
