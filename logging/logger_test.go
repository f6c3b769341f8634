package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	t.Parallel()
	assert := require.New(t)

	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewZap(zap.New(core))

	logger.Info("Consumer started on %s", "queue")
	logger.Error("Failed to ack AMQP Message(%s): %v", "queue", "closed")

	entries := logs.AllUntimed()
	assert.Len(entries, 2)
	assert.Equal(zapcore.InfoLevel, entries[0].Level)
	assert.Equal("Consumer started on queue", entries[0].Message)
	assert.Equal(zapcore.ErrorLevel, entries[1].Level)
	assert.Equal("Failed to ack AMQP Message(queue): closed", entries[1].Message)
}

func TestNilZapLogger(t *testing.T) {
	t.Parallel()
	assert := require.New(t)

	logger := NewZap(nil)

	assert.IsType(EmptyLogger{}, logger)
	assert.NotPanics(func() {
		logger.Error("ignored %d", 1)
	})
}

func TestNewZapLogger(t *testing.T) {
	t.Parallel()

	for _, development := range []bool{true, false} {
		log, err := NewZapLogger(development)

		require.NoError(t, err)
		require.Equal(t, development, log.Core().Enabled(zapcore.DebugLevel))
	}
}
