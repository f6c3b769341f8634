// Package testing holds helpers for tests that run against a local RabbitMQ
// broker. Exchanges and queues are suffixed with a random string so parallel
// tests never share them, and are deleted on test cleanup.
package testing

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/nano-interactive/go-amqp-archive/connection"
	"github.com/nano-interactive/go-amqp-archive/serializer"
)

func GetAMQPConnection(t testing.TB, cfg connection.Config) (*amqp091.Connection, *amqp091.Channel) {
	t.Helper()

	properties := amqp091.NewConnectionProperties()
	properties.SetClientConnectionName("testing_connection_name")

	config := amqp091.Config{
		Vhost:      cfg.Vhost,
		ChannelMax: 1000,
		Properties: properties,
		Dial:       amqp091.DefaultDial(10 * time.Second),
	}

	conn, err := amqp091.DialConfig(cfg.WithDefaults().URI(), config)
	if err != nil {
		t.Fatal(err)
	}

	ch, err := conn.Channel()
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if !ch.IsClosed() {
			if err = ch.Close(); err != nil {
				t.Logf("error closing channel: %v", err)
			}
		}

		if err = conn.Close(); err != nil {
			t.Logf("error closing connection: %v", err)
		}
	})

	return conn, ch
}

func randomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}

	return base64.RawURLEncoding.EncodeToString(b)[:n]
}

type Mappings struct {
	t         testing.TB
	channel   *amqp091.Channel
	exchanges map[string]string
	queues    map[string]string
}

func NewMappings(t testing.TB) *Mappings {
	return NewMappingsWithConfig(t, connection.DefaultConfig)
}

func NewMappingsWithConfig(t testing.TB, cfg connection.Config) *Mappings {
	t.Helper()
	_, channel := GetAMQPConnection(t, cfg)

	return &Mappings{
		t:         t,
		channel:   channel,
		exchanges: make(map[string]string),
		queues:    make(map[string]string),
	}
}

// AddMapping declares a durable fanout exchange and a durable queue bound to
// it. Use Exchange and Queue to get the real, suffixed names.
func (m *Mappings) AddMapping(exchange, queue string) *Mappings {
	m.t.Helper()

	exchangeName := fmt.Sprintf("%s-%s", exchange, randomString(16))
	queueName := fmt.Sprintf("%s-%s", queue, randomString(16))

	if err := m.channel.ExchangeDeclare(exchangeName, amqp091.ExchangeFanout, true, false, false, false, nil); err != nil {
		m.t.Fatal(err)
	}

	if _, err := m.channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		m.t.Fatal(err)
	}

	if err := m.channel.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		m.t.Fatal(err)
	}

	m.exchanges[exchange] = exchangeName
	m.queues[queue] = queueName

	m.t.Cleanup(func() {
		_, _ = m.channel.QueueDelete(queueName, false, false, false)
		_ = m.channel.ExchangeDelete(exchangeName, false, false)
	})

	return m
}

// Reserve picks suffixed names for an exchange and a queue without declaring
// them, for code under test that declares its own topology. Both are deleted
// on cleanup.
func (m *Mappings) Reserve(exchange, queue string) *Mappings {
	m.t.Helper()

	exchangeName := fmt.Sprintf("%s-%s", exchange, randomString(16))
	queueName := fmt.Sprintf("%s-%s", queue, randomString(16))

	m.exchanges[exchange] = exchangeName
	m.queues[queue] = queueName

	m.t.Cleanup(func() {
		_, _ = m.channel.QueueDelete(queueName, false, false, false)
		_ = m.channel.ExchangeDelete(exchangeName, false, false)
	})

	return m
}

func (m *Mappings) Exchange(name string) string {
	m.t.Helper()

	exchange, ok := m.exchanges[name]
	if !ok {
		m.t.Fatalf("exchange %q is not mapped", name)
	}

	return exchange
}

func (m *Mappings) Queue(name string) string {
	m.t.Helper()

	queue, ok := m.queues[name]
	if !ok {
		m.t.Fatalf("queue %q is not mapped", name)
	}

	return queue
}

// ConsumeAMQPMessages drains queueName for the given duration. Bodies are
// decoded by the reader matching their content type, JSON when unknown.
func ConsumeAMQPMessages[T any](
	t testing.TB,
	queueName string,
	cfg connection.Config,
	duration time.Duration,
) []T {
	t.Helper()

	_, channel := GetAMQPConnection(t, cfg)
	messages := make([]T, 0, 10)

	ch, err := channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	for {
		select {
		case d, more := <-ch:
			if !more {
				return messages
			}

			if err = d.Ack(false); err != nil {
				t.Fatal(err)
			}

			data, err := serializer.ReaderFor[T](d.ContentType, serializer.JSON[T]{}).Unmarshal(d.Body)
			if err != nil {
				t.Fatal(err)
			}

			messages = append(messages, data)
		case <-ctx.Done():
			return messages
		}
	}
}

func PublishAMQPMessage[T any](
	t testing.TB,
	ctx context.Context,
	channel *amqp091.Channel,
	exchange string,
	msg T,
	writer serializer.Writer[T],
) {
	t.Helper()

	message, err := writer.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	err = channel.PublishWithContext(
		ctx,
		exchange,
		"",
		false,
		false,
		amqp091.Publishing{
			ContentType:  writer.GetContentType(),
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         message,
		},
	)
	if err != nil {
		t.Fatal(err)
	}
}
