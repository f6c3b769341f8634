package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nano-interactive/go-amqp-archive/serializer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	assert := require.New(t)

	cfg, err := Load("")

	assert.NoError(err)
	assert.Equal(Defaults(), cfg)
}

func TestLoadFile(t *testing.T) {
	assert := require.New(t)

	path := writeConfig(t, `
connection:
  host: rabbitmq
  port: 5673
  reconnect_interval: 250ms
exchange: orders
queue: orders_archive
format: text
workers: 4
`)

	cfg, err := Load(path)

	assert.NoError(err)
	assert.Equal("rabbitmq", cfg.Connection.Host)
	assert.Equal(5673, cfg.Connection.Port)
	assert.Equal(250*time.Millisecond, cfg.Connection.ReconnectInterval)
	assert.Equal("guest", cfg.Connection.User)
	assert.Equal("orders", cfg.Exchange)
	assert.Equal("orders_archive", cfg.Queue)
	assert.Equal(serializer.FormatText, cfg.Format)
	assert.Equal(4, cfg.Workers)
	assert.Equal(128, cfg.PrefetchCount)
}

func TestLoadEnvOverride(t *testing.T) {
	assert := require.New(t)

	t.Setenv("AMQP_ARCHIVE_CONNECTION_HOST", "broker.internal")
	t.Setenv("AMQP_ARCHIVE_FORMAT", "xml")

	cfg, err := Load(writeConfig(t, "exchange: events\n"))

	assert.NoError(err)
	assert.Equal("broker.internal", cfg.Connection.Host)
	assert.Equal(serializer.FormatXML, cfg.Format)
	assert.Equal("events", cfg.Exchange)
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.Error(t, err)
	})

	t.Run("BadFormat", func(t *testing.T) {
		_, err := Load(writeConfig(t, "format: protobuf\n"))

		require.ErrorIs(t, err, ErrConfigInvalid)
		require.ErrorIs(t, err, serializer.ErrBadFormat)
	})

	t.Run("BadPort", func(t *testing.T) {
		_, err := Load(writeConfig(t, "connection:\n  port: 70000\n"))

		require.ErrorIs(t, err, ErrConfigInvalid)
	})

	t.Run("BadWorkers", func(t *testing.T) {
		_, err := Load(writeConfig(t, "workers: 0\n"))

		require.ErrorIs(t, err, ErrConfigInvalid)
	})
}
