package publisher

import (
	"context"

	"github.com/nano-interactive/go-amqp-archive/connection"
	"github.com/nano-interactive/go-amqp-archive/logging"
	"github.com/nano-interactive/go-amqp-archive/serializer"
)

type (
	Config[T any] struct {
		serializer serializer.Writer[T]
		logger     logging.Logger
		onError    connection.OnErrorFunc
		err        error
		exchange   ExchangeDeclare
	}

	Option[T any] func(*Config[T])
)

func WithExchangeDeclare[T any](exchange ExchangeDeclare) Option[T] {
	return func(c *Config[T]) {
		exchange.name = c.exchange.name
		c.exchange = exchange
	}
}

// WithSerializer sets the writer used to encode published messages; its
// content type is stamped on every message.
func WithSerializer[T any](ser serializer.Writer[T]) Option[T] {
	return func(c *Config[T]) {
		c.serializer = ser
	}
}

// WithFormat selects one of serializer.Formats by name ("xml", "text").
func WithFormat[T any](name string) Option[T] {
	return func(c *Config[T]) {
		format, err := serializer.ParseFormat[T](name)
		if err != nil {
			c.err = err
			return
		}

		c.serializer = format.Writer
	}
}

func WithOnErrorFunc[T any](onError connection.OnErrorFunc) Option[T] {
	return func(c *Config[T]) {
		c.onError = onError
	}
}

func WithLogger[T any](logger logging.Logger) Option[T] {
	return func(c *Config[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultConfig[T any](exchangeName string) Config[T] {
	return Config[T]{
		serializer: serializer.JSON[T]{},
		logger:     logging.EmptyLogger{},
		exchange: ExchangeDeclare{
			name:       exchangeName,
			RoutingKey: "",
			Type:       ExchangeTypeFanout,
			Durable:    true,
			AutoDelete: false,
			Internal:   false,
			NoWait:     false,
			Args:       nil,
		},
	}
}

func (c Config[T]) reportError(ctx context.Context) connection.OnErrorFunc {
	return func(err error) {
		if c.onError != nil {
			c.onError(err)
			return
		}

		if ctx.Err() == nil {
			c.logger.Error("Publisher(%s) connection error: %v", c.exchange.name, err)
		}
	}
}
