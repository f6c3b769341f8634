package publisher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/nano-interactive/go-amqp-archive/connection"
	"github.com/nano-interactive/go-amqp-archive/logging"
	"github.com/nano-interactive/go-amqp-archive/serializer"
)

type (
	Pub[T any] interface {
		Publish(ctx context.Context, msg T) error
	}

	Publisher[T any] struct {
		serializer serializer.Writer[T]
		logger     logging.Logger
		conn       *connection.Connection
		ch         *amqp091.Channel
		cancel     context.CancelFunc
		exchange   ExchangeDeclare
		wg         sync.WaitGroup
		ready      sync.RWMutex
		closeOnce  sync.Once
		closed     atomic.Bool
	}

	ExchangeDeclare struct {
		Args       amqp091.Table
		name       string
		RoutingKey string
		Type       ExchangeType
		Durable    bool
		AutoDelete bool
		Internal   bool
		NoWait     bool
	}
)

func (e ExchangeDeclare) Name() string {
	return e.name
}

func (e ExchangeDeclare) declare(ch *amqp091.Channel, logger logging.Logger) error {
	err := ch.ExchangeDeclare(e.name, e.Type.String(), e.Durable, e.AutoDelete, e.Internal, e.NoWait, e.Args)
	if err != nil {
		logger.Error("Failed to declare exchange: %s(%s) %v", e.name, e.Type, err)
		return err
	}

	return nil
}

func newChannel(
	conn *amqp091.Connection,
	exchange ExchangeDeclare,
	logger logging.Logger,
) (*amqp091.Channel, chan *amqp091.Error, error) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to get channel: %v", err)
		return nil, nil, err
	}

	if err = exchange.declare(ch, logger); err != nil {
		if !ch.IsClosed() {
			_ = ch.Close()
		}

		return nil, nil, err
	}

	notifyClose := ch.NotifyClose(make(chan *amqp091.Error, 1))

	return ch, notifyClose, nil
}

func (p *Publisher[T]) onConnectionReady(ctx context.Context, conn *amqp091.Connection) error {
	ch, notifyClose, err := newChannel(conn, p.exchange, p.logger)
	if err != nil {
		return err
	}

	p.ready.Lock()
	p.ch = ch
	p.ready.Unlock()

	p.wg.Add(1)
	go p.watchChannel(ctx, conn, notifyClose)

	return nil
}

// watchChannel replaces the publishing channel when the broker closes it
// while the connection stays up (e.g. after publishing to a missing
// exchange). Connection loss is handled by connection.Connection.
func (p *Publisher[T]) watchChannel(ctx context.Context, conn *amqp091.Connection, notifyClose chan *amqp091.Error) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.ready.Lock()
			if p.ch != nil && !p.ch.IsClosed() {
				if err := p.ch.Close(); err != nil {
					p.logger.Error("Failed to close channel: %v", err)
				}
			}
			p.ready.Unlock()
			return
		case amqpErr, ok := <-notifyClose:
			if !ok || conn.IsClosed() {
				return
			}

			p.logger.Error("Channel Error: %v", amqpErr)

			ch, next, err := newChannel(conn, p.exchange, p.logger)
			if err != nil {
				return
			}

			p.ready.Lock()
			p.ch = ch
			p.ready.Unlock()
			notifyClose = next
		}
	}
}

func New[T any](ctx context.Context, connectionOptions connection.Config, exchangeName string, options ...Option[T]) (*Publisher[T], error) {
	if exchangeName == "" {
		return nil, ErrExchangeNameRequired
	}

	cfg := defaultConfig[T](exchangeName)

	for _, option := range options {
		option(&cfg)
	}

	if cfg.err != nil {
		return nil, cfg.err
	}

	ctx, cancel := context.WithCancel(ctx)

	publisher := &Publisher[T]{
		serializer: cfg.serializer,
		logger:     cfg.logger,
		cancel:     cancel,
		exchange:   cfg.exchange,
	}

	conn, err := connection.New(ctx, connectionOptions, connection.Events{
		OnConnectionReady: publisher.onConnectionReady,
		OnError:           cfg.reportError(ctx),
	})
	if err != nil {
		cancel()
		publisher.wg.Wait()
		return nil, err
	}

	publisher.conn = conn
	return publisher, nil
}

func (p *Publisher[T]) ContentType() string {
	return p.serializer.GetContentType()
}

func (p *Publisher[T]) Publish(ctx context.Context, msg T) error {
	if p.closed.Load() {
		return ErrClosed
	}

	body, err := p.serializer.Marshal(msg)
	if err != nil {
		return err
	}

	p.ready.RLock()
	defer p.ready.RUnlock()

	if p.ch == nil || p.ch.IsClosed() {
		if p.closed.Load() {
			return ErrClosed
		}

		return ErrChannelNotReady
	}

	err = p.ch.PublishWithContext(
		ctx,
		p.exchange.name,
		p.exchange.RoutingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  p.serializer.GetContentType(),
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)

	if errors.Is(err, amqp091.ErrClosed) && p.closed.Load() {
		return ErrClosed
	}

	return err
}

func (p *Publisher[T]) Close() error {
	var err error

	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.cancel()
		err = p.conn.Close()
		p.wg.Wait()
	})

	return err
}
