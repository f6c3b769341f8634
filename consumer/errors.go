package consumer

import (
	"errors"
	"fmt"
)

var (
	ErrQueueNameRequired       = errors.New("queue name is required")
	ErrBindingExchangeRequired = errors.New("queue binding needs an exchange name")
	ErrNoRetry                 = errors.New("no retry")
	ErrAlreadyStarted          = errors.New("consumer is already started")
	ErrClosed                  = errors.New("consumer is closed")
)

type (
	QueueDeclarationError struct{ Inner error }
	QueueBindingError     struct {
		Inner    error
		Exchange string
	}
	ListenerStartFailedError struct{ Inner error }
	MessageDecodeError       struct {
		Inner       error
		ContentType string
	}
)

func (e *QueueDeclarationError) Error() string {
	return fmt.Sprintf("queue declaration error: %v", e.Inner)
}

func (e *QueueDeclarationError) Unwrap() error {
	return e.Inner
}

func (e *ListenerStartFailedError) Error() string {
	return fmt.Sprintf("failed to start listener: %v", e.Inner)
}

func (e *ListenerStartFailedError) Unwrap() error {
	return e.Inner
}

func (e *MessageDecodeError) Error() string {
	return fmt.Sprintf("failed to decode message(%s): %v", e.ContentType, e.Inner)
}

func (e *MessageDecodeError) Unwrap() error {
	return e.Inner
}

func (e *QueueBindingError) Error() string {
	return fmt.Sprintf("queue binding to exchange %s failed: %v", e.Exchange, e.Inner)
}

func (e *QueueBindingError) Unwrap() error {
	return e.Inner
}
