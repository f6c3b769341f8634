package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nano-interactive/go-amqp-archive/connection"
	"github.com/nano-interactive/go-amqp-archive/serializer"
)

const (
	EnvPrefix  = "AMQP_ARCHIVE"
	FormatJSON = "json"
)

var ErrConfigInvalid = errors.New("invalid configuration")

type Config struct {
	Connection    connection.Config `mapstructure:"connection"`
	Exchange      string            `mapstructure:"exchange"`
	Queue         string            `mapstructure:"queue"`
	Format        string            `mapstructure:"format"`
	Workers       int               `mapstructure:"workers"`
	PrefetchCount int               `mapstructure:"prefetch_count"`
	Debug         bool              `mapstructure:"debug"`
}

// Defaults returns a config pointing at a local broker with JSON bodies.
func Defaults() *Config {
	return &Config{
		Connection:    connection.DefaultConfig,
		Exchange:      "archive",
		Queue:         "archive",
		Format:        FormatJSON,
		Workers:       1,
		PrefetchCount: 128,
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("connection.host", d.Connection.Host)
	v.SetDefault("connection.port", d.Connection.Port)
	v.SetDefault("connection.user", d.Connection.User)
	v.SetDefault("connection.password", d.Connection.Password)
	v.SetDefault("connection.vhost", d.Connection.Vhost)
	v.SetDefault("connection.connection_name", d.Connection.ConnectionName)
	v.SetDefault("connection.reconnect_retry", d.Connection.ReconnectRetry)
	v.SetDefault("connection.channels", d.Connection.Channels)
	v.SetDefault("connection.frame_size", d.Connection.FrameSize)
	v.SetDefault("connection.reconnect_interval", d.Connection.ReconnectInterval)
	v.SetDefault("exchange", d.Exchange)
	v.SetDefault("queue", d.Queue)
	v.SetDefault("format", d.Format)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("prefetch_count", d.PrefetchCount)
	v.SetDefault("debug", d.Debug)
}

// Load reads configuration from path (any format viper understands) with
// AMQP_ARCHIVE_* environment overrides, e.g. AMQP_ARCHIVE_CONNECTION_HOST.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Connection.Port < 1 || c.Connection.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrConfigInvalid, c.Connection.Port)
	}

	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrConfigInvalid, c.Workers)
	}

	if c.Format != FormatJSON {
		if _, err := serializer.ParseFormat[struct{}](c.Format); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
		}
	}

	return nil
}
