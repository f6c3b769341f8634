package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nano-interactive/go-amqp-archive/consumer"
	"github.com/nano-interactive/go-amqp-archive/internal/config"
	"github.com/nano-interactive/go-amqp-archive/logging"
	"github.com/nano-interactive/go-amqp-archive/publisher"
)

var (
	consumeQueue  string
	consumeOutput string
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume records from a queue and print them",
	Long: `Consumes the queue until interrupted. Each message is decoded by its
content type (json, xml or text) and printed to stdout in --output.`,
	Example: `  amqp-archive consume --queue orders_archive --output text`,
	RunE:    runConsume,
}

func init() {
	rootCmd.AddCommand(consumeCmd)

	consumeCmd.Flags().StringVar(&consumeQueue, "queue", "", "queue name (overrides config)")
	consumeCmd.Flags().StringVar(&consumeOutput, "output", config.FormatJSON, "output format: json, xml or text")
}

func runConsume(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if consumeQueue != "" {
		cfg.Queue = consumeQueue
	}

	// Messages without a content type are read in the configured format.
	fallback, err := serializerFor(cfg.Format)
	if err != nil {
		return err
	}

	output, err := serializerFor(consumeOutput)
	if err != nil {
		return err
	}

	log := logging.MustZapLogger(cfg.Debug)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	write := printer(cmd.OutOrStdout(), output.Marshal)

	c, err := consumer.NewFunc(
		func(_ context.Context, record Record) error {
			return write(record)
		},
		cfg.Connection,
		queueDeclare(cfg),
		consumer.WithSerializer[Record](fallback),
		consumer.WithQueueConfig[Record](consumer.QueueConfig{
			Workers:       cfg.Workers,
			PrefetchCount: cfg.PrefetchCount,
		}),
		consumer.WithLogger[Record](logging.NewZap(log)),
		consumer.WithOnMessageError[Record](func(_ context.Context, d *amqp091.Delivery, err error) {
			log.Error("message failed",
				zap.String("queue", cfg.Queue),
				zap.String("content_type", d.ContentType),
				zap.Error(err),
			)
		}),
		consumer.WithOnErrorFunc[Record](func(err error) {
			log.Error("connection error", zap.Error(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("creating consumer: %w", err)
	}

	log.Info("consuming", zap.String("queue", cfg.Queue), zap.Int("workers", cfg.Workers))

	return c.Start(ctx)
}

// queueDeclare binds the configured queue to the configured exchange,
// declaring the exchange the way publish does when it does not exist yet.
func queueDeclare(cfg *config.Config) consumer.QueueDeclare {
	queue := consumer.QueueDeclare{QueueName: cfg.Queue}

	if cfg.Exchange != "" {
		queue.Bindings = []consumer.QueueBinding{{
			Exchange:     cfg.Exchange,
			ExchangeKind: publisher.ExchangeTypeFanout.String(),
		}}
	}

	return queue
}

// printer serializes records to out one at a time. Workers run
// concurrently, so writes are serialized by a mutex.
func printer(out io.Writer, marshal func(Record) ([]byte, error)) func(Record) error {
	var mu sync.Mutex

	return func(record Record) error {
		data, err := marshal(record)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()

		if _, err = out.Write(data); err != nil {
			return err
		}

		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err = io.WriteString(out, "\n")
		}

		return err
	}
}
