package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const restartInterval = 500 * time.Millisecond

// watchdog keeps one worker consuming. When the broker closes the worker's
// channel while the connection is still up, a fresh channel is opened; a
// closed connection is left to connection.Connection, which calls
// onConnectionReady again after reconnecting.
func (c *Consumer[T]) watchdog(ctx context.Context, wg *sync.WaitGroup, conn *amqp091.Connection, l *listener) {
	defer wg.Done()

	for {
		l.Listen(ctx)

		for {
			if ctx.Err() != nil || conn.IsClosed() {
				return
			}

			timer := time.NewTimer(restartInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			next, err := openListener(conn, c.queue.QueueName, c.cfg.queueConfig, c.handler, c.cfg.onMessageError)
			if err != nil {
				c.cfg.logger.Error("Failed to restart listener(%s): %v", c.queue.QueueName, err)
				continue
			}

			l = next
			break
		}
	}
}
