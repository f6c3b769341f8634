package connection

import (
	"context"

	"github.com/rabbitmq/amqp091-go"
)

type (
	OnReconnectingFunc func(context.Context) error
	OnConnectionReady  func(context.Context, *amqp091.Connection) error
	OnErrorFunc        func(error)

	// Events are invoked by the connection on every (re)connect attempt.
	// OnConnectionReady is required, it is where channels, exchanges and
	// queues get declared on the fresh connection.
	Events struct {
		OnConnectionReady       OnConnectionReady  `json:"-" mapstructure:"-" yaml:"-"`
		OnBeforeConnectionReady OnReconnectingFunc `json:"-" mapstructure:"-" yaml:"-"`
		OnError                 OnErrorFunc        `json:"-" mapstructure:"-" yaml:"-"`
	}
)
