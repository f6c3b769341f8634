package connection

import (
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

var (
	ErrOnConnectionReady = errors.New("onConnectionReady is required")
	ErrRetriesExhausted  = errors.New("number of retries to acquire connection exhausted")
)

type OnBeforeConnectError struct {
	Inner error
}

type ConnectInitError struct {
	Inner error
}

type OnConnectionCloseError struct {
	Inner error
}

type BlockedError struct {
	Blocked amqp091.Blocking
}

func (e *OnBeforeConnectError) Error() string {
	return fmt.Sprintf("non library error before reconnecting: %v", e.Inner)
}

func (e *OnBeforeConnectError) Unwrap() error {
	return e.Inner
}

func (e *ConnectInitError) Error() string {
	return fmt.Sprintf("non library error after reconnect: %v", e.Inner)
}

func (e *ConnectInitError) Unwrap() error {
	return e.Inner
}

func (e *OnConnectionCloseError) Error() string {
	return fmt.Sprintf("error on closing previous connection: %v", e.Inner)
}

func (e *OnConnectionCloseError) Unwrap() error {
	return e.Inner
}

func (e *BlockedError) Error() string {
	if e.Blocked.Active {
		return fmt.Sprintf("connection blocked by broker: %s", e.Blocked.Reason)
	}

	return "connection unblocked by broker"
}
