package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var DefaultConfig = Config{
	Host:              "127.0.0.1",
	User:              "guest",
	Password:          "guest",
	Vhost:             "/",
	Port:              5672,
	ConnectionName:    "go-amqp-archive",
	ReconnectRetry:    10,
	Channels:          100,
	ReconnectInterval: 1 * time.Second,
	FrameSize:         8192,
}

type State uint32

const (
	StateConnecting State = iota
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

type (
	Connection struct {
		cancel                  context.CancelFunc
		conn                    atomic.Pointer[amqp091.Connection]
		config                  *Config
		onBeforeConnectionReady OnReconnectingFunc
		onConnectionReady       OnConnectionReady
		onError                 OnErrorFunc
		once                    func()
		state                   atomic.Uint32
		// mu orders shutdown against storing and announcing a fresh
		// connection, so nothing becomes ready after Close.
		mu sync.Mutex
	}

	Config struct {
		Host              string        `json:"host,omitempty" mapstructure:"host" yaml:"host"`
		User              string        `json:"user,omitempty" mapstructure:"user" yaml:"user"`
		Password          string        `json:"password,omitempty" mapstructure:"password" yaml:"password"`
		Vhost             string        `json:"vhost,omitempty" mapstructure:"vhost" yaml:"vhost"`
		ConnectionName    string        `json:"connection_name,omitempty" mapstructure:"connection_name" yaml:"connection_name"`
		Port              int           `json:"port,omitempty" mapstructure:"port" yaml:"port"`
		ReconnectRetry    int           `json:"reconnect_retry,omitempty" mapstructure:"reconnect_retry" yaml:"reconnect_retry"`
		Channels          uint16        `json:"channels,omitempty" mapstructure:"channels" yaml:"channels"`
		FrameSize         int           `json:"frame_size,omitempty" mapstructure:"frame_size" yaml:"frame_size"`
		ReconnectInterval time.Duration `json:"reconnect_interval,omitempty" mapstructure:"reconnect_interval" yaml:"reconnect_interval"`
	}
)

// WithDefaults fills every unset connection parameter from DefaultConfig.
// Retry count, channel limit and frame size are left as given, zero is a
// meaningful value for them.
func (cfg Config) WithDefaults() Config {
	if cfg.Host == "" {
		cfg.Host = DefaultConfig.Host
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultConfig.Port
	}

	if cfg.User == "" {
		cfg.User = DefaultConfig.User
	}

	if cfg.Password == "" {
		cfg.Password = DefaultConfig.Password
	}

	if cfg.Vhost == "" {
		cfg.Vhost = DefaultConfig.Vhost
	}

	if cfg.ConnectionName == "" {
		cfg.ConnectionName = DefaultConfig.ConnectionName
	}

	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = DefaultConfig.ReconnectInterval
	}

	return cfg
}

// URI returns the amqp:// address of the broker, without the vhost.
func (cfg Config) URI() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.FormatInt(int64(cfg.Port), 10)),
	}

	return u.String()
}

func New(ctx context.Context, config Config, events Events) (*Connection, error) {
	if events.OnConnectionReady == nil {
		return nil, ErrOnConnectionReady
	}

	config = config.WithDefaults()
	ctx, cancel := context.WithCancel(ctx)

	c := &Connection{
		config:                  &config,
		cancel:                  cancel,
		onBeforeConnectionReady: events.OnBeforeConnectionReady,
		onConnectionReady:       events.OnConnectionReady,
		onError:                 events.OnError,
	}

	c.once = sync.OnceFunc(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.state.Store(uint32(StateClosing))
		c.cancel()
		c.connectionDispose()
	})

	if err := c.reconnect(ctx); err != nil {
		c.once()
		return nil, err
	}

	go func() {
		<-ctx.Done()
		c.once()
	}()

	return c, nil
}

func (c *Connection) reconnect(ctx context.Context) error {
	c.state.Store(uint32(StateConnecting))
	connect := c.connect()

	err := connect(ctx)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	timer := time.NewTimer(c.config.ReconnectInterval)
	defer timer.Stop()

	for i := 0; i < c.config.ReconnectRetry; i++ {
		select {
		case <-timer.C:
			if err = connect(ctx); err == nil {
				return nil
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			timer.Reset(c.config.ReconnectInterval)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
}

func (c *Connection) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Connection) hasChannelClosed(err error) bool {
	conn := c.conn.Load()
	return errors.Is(err, amqp091.ErrClosed) && conn != nil && !conn.IsClosed()
}

func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) IsClosed() bool {
	conn := c.conn.Load()
	return conn == nil || conn.IsClosed()
}

// RawConnection returns the current broker connection. It changes after
// every reconnect, callers should not hold on to it.
func (c *Connection) RawConnection() *amqp091.Connection {
	return c.conn.Load()
}

func (c *Connection) handleBlocked(ctx context.Context, connection *amqp091.Connection) {
	blocked := connection.NotifyBlocked(make(chan amqp091.Blocking, 1))

	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-blocked:
			if !ok {
				return
			}

			c.reportError(&BlockedError{Blocked: b})
		}
	}
}

func (c *Connection) handleReconnect(ctx context.Context, connection *amqp091.Connection) {
	notifyClose := connection.NotifyClose(make(chan *amqp091.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return
		case amqpErr, ok := <-notifyClose:
			if !ok {
				return
			}

			if c.hasChannelClosed(amqpErr) {
				continue
			}

			c.reportError(amqpErr)
			c.connectionDispose()

			if err := c.reconnect(ctx); err != nil {
				c.reportError(err)
			}

			return
		}
	}
}

func (c *Connection) connect() func(ctx context.Context) error {
	connectionURI := c.config.URI()

	properties := amqp091.NewConnectionProperties()
	properties.SetClientConnectionName(c.config.ConnectionName)

	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.connectionDispose()

		config := amqp091.Config{
			SASL:       nil,
			Vhost:      c.config.Vhost,
			ChannelMax: c.config.Channels,
			FrameSize:  c.config.FrameSize,
			Heartbeat:  3 * time.Second,
			Properties: properties,
			Dial:       amqp091.DefaultDial(c.config.ReconnectInterval),
		}

		if c.onBeforeConnectionReady != nil {
			if err := c.onBeforeConnectionReady(ctx); err != nil {
				err = &OnBeforeConnectError{Inner: err}
				c.reportError(err)
				return err
			}
		}

		conn, err := amqp091.DialConfig(connectionURI, config)
		if err != nil {
			err = &ConnectInitError{Inner: err}
			c.reportError(err)
			return err
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		// Closed while dialing.
		if err = ctx.Err(); err != nil {
			_ = conn.Close()
			return err
		}

		c.conn.Store(conn)

		if err = c.onConnectionReady(ctx, conn); err != nil {
			err = &ConnectInitError{Inner: err}
			c.reportError(err)
			return err
		}

		c.state.Store(uint32(StateConnected))

		go c.handleReconnect(ctx, conn)
		go c.handleBlocked(ctx, conn)

		return nil
	}
}

func (c *Connection) connectionDispose() {
	conn := c.conn.Load()

	if conn == nil || conn.IsClosed() {
		return
	}

	if err := conn.Close(); err != nil {
		c.reportError(&OnConnectionCloseError{Inner: err})
	}
}

func (c *Connection) Close() error {
	c.once()

	return nil
}
