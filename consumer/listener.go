package consumer

import (
	"context"

	"github.com/rabbitmq/amqp091-go"
)

type listener struct {
	channel    *amqp091.Channel
	deliveries <-chan amqp091.Delivery
	handler    RawHandler
	onError    func(context.Context, *amqp091.Delivery, error)
}

func openListener(
	conn *amqp091.Connection,
	queueName string,
	cfg QueueConfig,
	handler RawHandler,
	onMessageError func(context.Context, *amqp091.Delivery, error),
) (*listener, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	if err = channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		_ = channel.Close()
		return nil, err
	}

	deliveries, err := channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		if !channel.IsClosed() {
			_ = channel.Close()
		}
		return nil, err
	}

	return &listener{
		channel:    channel,
		deliveries: deliveries,
		handler:    handler,
		onError:    onMessageError,
	}, nil
}

func (l *listener) Close() error {
	if l.channel.IsClosed() {
		return nil
	}

	return l.channel.Close()
}

// Listen handles deliveries until ctx is done or the broker closes the
// channel.
func (l *listener) Listen(ctx context.Context) {
	defer func() {
		_ = l.Close()
	}()

	for {
		select {
		case delivery, more := <-l.deliveries:
			if !more {
				return
			}

			if err := l.handler.Handle(ctx, &delivery); err != nil {
				l.onError(ctx, &delivery, err)
			}
		case <-ctx.Done():
			return
		}
	}
}
