package consumer

import (
	"context"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/nano-interactive/go-amqp-archive/connection"
)

type Consumer[T any] struct {
	handler  RawHandler
	cancel   context.CancelFunc
	done     chan struct{}
	queue    QueueDeclare
	connCfg  connection.Config
	cfg      Config[T]
	workers  sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	startErr error
}

func NewRaw[T any](h RawHandler, connCfg connection.Config, queue QueueDeclare, options ...Option[T]) (*Consumer[T], error) {
	if err := queue.validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig[T]()

	for _, o := range options {
		o(&cfg)
	}

	cfg.setDefaults(queue.QueueName)

	return &Consumer[T]{
		handler: h,
		queue:   queue,
		connCfg: connCfg,
		cfg:     cfg,
	}, nil
}

// New creates a consumer that decodes every delivery into T before calling h.
// The reader is picked by the delivery's content type, see WithSerializer.
func New[T any](h Handler[T], connCfg connection.Config, queue QueueDeclare, options ...Option[T]) (*Consumer[T], error) {
	c, err := NewRaw[T](nil, connCfg, queue, options...)
	if err != nil {
		return nil, err
	}

	c.handler = handler[T]{
		fallback: c.cfg.serializer,
		handler:  h,
	}

	return c, nil
}

func NewFunc[T any](h HandlerFunc[T], connCfg connection.Config, queue QueueDeclare, options ...Option[T]) (*Consumer[T], error) {
	return New[T](h, connCfg, queue, options...)
}

func (c *Consumer[T]) onConnectionReady(ctx context.Context, conn *amqp091.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err = c.queue.declare(ch); err != nil {
		return err
	}

	if err = ch.Close(); err != nil {
		return err
	}

	listeners := make([]*listener, c.cfg.queueConfig.Workers)

	var g errgroup.Group
	for i := range listeners {
		g.Go(func() error {
			l, err := openListener(conn, c.queue.QueueName, c.cfg.queueConfig, c.handler, c.cfg.onMessageError)
			if err != nil {
				return err
			}

			listeners[i] = l
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		for _, l := range listeners {
			if l != nil {
				err = multierr.Append(err, l.Close())
			}
		}

		return &ListenerStartFailedError{Inner: err}
	}

	for _, l := range listeners {
		c.workers.Add(1)
		go c.watchdog(ctx, &c.workers, conn, l)
	}

	c.cfg.logger.Info("Consumer(%s) started %d workers", c.queue.QueueName, len(listeners))

	return nil
}

// Start connects to the broker and consumes until ctx is done or Close is
// called. It returns once every worker has stopped.
func (c *Consumer[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.done != nil {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	defer close(done)
	defer cancel()

	conn, err := connection.New(ctx, c.connCfg, connection.Events{
		OnConnectionReady: c.onConnectionReady,
		OnError:           c.cfg.onError,
	})
	if err != nil {
		cancel()
		c.workers.Wait()
		c.setStartErr(err)
		return err
	}

	<-ctx.Done()

	// Once the connection is closed no new workers can be added.
	err = conn.Close()
	c.workers.Wait()

	return err
}

func (c *Consumer[T]) setStartErr(err error) {
	c.mu.Lock()
	c.startErr = err
	c.mu.Unlock()
}

// Close stops a running consumer and waits for Start to return. Calling
// Close more than once, or before Start, is safe.
func (c *Consumer[T]) Close() error {
	c.mu.Lock()
	c.closed = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done

	return nil
}

// Err returns the error Start failed with, if any.
func (c *Consumer[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.startErr
}
