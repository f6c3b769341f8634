package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nano-interactive/go-amqp-archive/consumer"
	"github.com/nano-interactive/go-amqp-archive/internal/config"
	"github.com/nano-interactive/go-amqp-archive/serializer"
)

const recordJSON = `{"id":"r1","source":"cli","timestamp":"2024-01-02T03:04:05Z","tags":["a"],"count":2}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()

	return out.String(), err
}

func TestFormatsCommand(t *testing.T) {
	assert := require.New(t)

	out, err := execute(t, "", "formats")

	assert.NoError(err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(lines, 3)
	assert.Equal([]string{"NAME", "CONTENT", "TYPE", "SUFFIX"}, strings.Fields(lines[0]))
	assert.Equal([]string{"xml", serializer.ContentTypeXML, ".xml"}, strings.Fields(lines[1]))
	assert.Equal([]string{"text", serializer.ContentTypeText, ".txt"}, strings.Fields(lines[2]))
}

func TestVersionCommand(t *testing.T) {
	assert := require.New(t)

	out, err := execute(t, "", "version")

	assert.NoError(err)
	assert.Contains(out, "amqp-archive dev")
	assert.Contains(out, "serialization::archive v1")
}

func TestConvertCommand(t *testing.T) {
	t.Run("JSONToText", func(t *testing.T) {
		assert := require.New(t)

		out, err := execute(t, recordJSON, "convert", "--from", "json", "--to", "text")

		assert.NoError(err)
		assert.Equal("22 serialization::archive 1 2 r1 3 cli 20 2024-01-02T03:04:05Z 1 1 a 2 0\n", out)
	})

	t.Run("TextToJSON", func(t *testing.T) {
		assert := require.New(t)

		out, err := execute(
			t,
			"22 serialization::archive 1 2 r1 3 cli 20 2024-01-02T03:04:05Z 1 1 a 2 0\n",
			"convert", "--from", "txt", "--to", "json",
		)

		assert.NoError(err)
		assert.JSONEq(recordJSON, out)
	})

	t.Run("ThroughXML", func(t *testing.T) {
		assert := require.New(t)

		xmlOut, err := execute(t, recordJSON, "convert", "--from", "json", "--to", "xml")
		assert.NoError(err)
		assert.Contains(xmlOut, `<archive signature="serialization::archive" version="1">`)

		out, err := execute(t, xmlOut, "convert", "--from", "xml", "--to", "json")
		assert.NoError(err)
		assert.JSONEq(recordJSON, out)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := execute(t, recordJSON, "convert", "--from", "json", "--to", "yaml")

		require.ErrorIs(t, err, serializer.ErrBadFormat)
	})

	t.Run("BadInput", func(t *testing.T) {
		_, err := execute(t, "14 not-an-archive 1", "convert", "--from", "text", "--to", "json")

		require.ErrorIs(t, err, serializer.ErrInvalidSignature)
	})
}

func TestPublishRecords(t *testing.T) {
	t.Run("Stream", func(t *testing.T) {
		assert := require.New(t)

		var published []Record
		n, err := publishRecords(
			context.Background(),
			strings.NewReader(recordJSON+"\n"+`{"source":"stdin"}`+"\n"),
			func(_ context.Context, r Record) error {
				published = append(published, r)
				return nil
			},
		)

		assert.NoError(err)
		assert.Equal(2, n)

		expected := []Record{
			{
				ID:        "r1",
				Source:    "cli",
				Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
				Tags:      []string{"a"},
				Count:     2,
			},
			{Source: "stdin"},
		}
		assert.Len(published, 2)
		_, err = uuid.Parse(published[1].ID)
		assert.NoError(err)
		assert.Empty(cmp.Diff(expected, published, cmpopts.IgnoreFields(Record{}, "ID")))
		assert.Equal("r1", published[0].ID)
	})

	t.Run("PublishFails", func(t *testing.T) {
		assert := require.New(t)

		//nolint:goerr113
		failure := errors.New("channel closed")

		n, err := publishRecords(
			context.Background(),
			strings.NewReader(recordJSON+recordJSON),
			func(context.Context, Record) error { return failure },
		)

		assert.ErrorIs(err, failure)
		assert.Equal(0, n)
	})

	t.Run("Malformed", func(t *testing.T) {
		assert := require.New(t)

		n, err := publishRecords(
			context.Background(),
			strings.NewReader(recordJSON+"{"),
			func(context.Context, Record) error { return nil },
		)

		assert.Error(err)
		assert.Equal(1, n)
	})
}

func TestPrinter(t *testing.T) {
	assert := require.New(t)

	var out bytes.Buffer
	write := printer(&out, serializer.JSON[Record]{}.Marshal)

	assert.NoError(write(Record{ID: "a"}))
	assert.NoError(write(Record{ID: "b"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(lines, 2)
	assert.Contains(lines[0], `"id":"a"`)
	assert.Contains(lines[1], `"id":"b"`)
}

func TestQueueDeclare(t *testing.T) {
	t.Run("BoundToExchange", func(t *testing.T) {
		assert := require.New(t)

		queue := queueDeclare(config.Defaults())

		assert.Equal("archive", queue.QueueName)
		assert.Equal([]consumer.QueueBinding{{Exchange: "archive", ExchangeKind: "fanout"}}, queue.Bindings)
	})

	t.Run("NoExchange", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Exchange = ""

		require.Empty(t, queueDeclare(cfg).Bindings)
	})
}
