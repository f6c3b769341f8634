package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nano-interactive/go-amqp-archive/logging"
	"github.com/nano-interactive/go-amqp-archive/publisher"
)

var (
	publishExchange string
	publishFormat   string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish JSON records from stdin to an exchange",
	Long: `Reads a stream of JSON records from stdin and publishes each one to
the exchange, encoded in --format.`,
	Example: `  amqp-archive publish --exchange orders --format text < records.jsonl`,
	RunE:    runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishExchange, "exchange", "", "exchange name (overrides config)")
	publishCmd.Flags().StringVar(&publishFormat, "format", "", "body format: json, xml or text (overrides config)")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if publishExchange != "" {
		cfg.Exchange = publishExchange
	}

	if publishFormat != "" {
		cfg.Format = publishFormat
	}

	writer, err := serializerFor(cfg.Format)
	if err != nil {
		return err
	}

	log := logging.MustZapLogger(cfg.Debug)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	pub, err := publisher.New[Record](
		ctx,
		cfg.Connection,
		cfg.Exchange,
		publisher.WithSerializer[Record](writer),
		publisher.WithLogger[Record](logging.NewZap(log)),
	)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	published, err := publishRecords(ctx, cmd.InOrStdin(), pub.Publish)

	log.Info("publish finished",
		zap.String("exchange", cfg.Exchange),
		zap.String("content_type", pub.ContentType()),
		zap.Int("published", published),
	)

	return err
}

// publishRecords decodes JSON records from in until EOF and hands each to
// publish. Records without an ID get a random UUID. It returns how many
// were published.
func publishRecords(ctx context.Context, in io.Reader, publish func(context.Context, Record) error) (int, error) {
	dec := json.NewDecoder(in)
	published := 0

	for {
		var record Record

		err := dec.Decode(&record)
		if errors.Is(err, io.EOF) {
			return published, nil
		}

		if err != nil {
			return published, fmt.Errorf("decoding record %d: %w", published+1, err)
		}

		if record.ID == "" {
			record.ID = uuid.NewString()
		}

		if err = publish(ctx, record); err != nil {
			return published, fmt.Errorf("publishing record %d: %w", published+1, err)
		}

		published++
	}
}
