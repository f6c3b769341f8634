package consumer

import (
	"context"
	"errors"

	"github.com/rabbitmq/amqp091-go"

	"github.com/nano-interactive/go-amqp-archive/serializer"
)

type (
	RawHandler interface {
		Handle(context.Context, *amqp091.Delivery) error
	}

	Handler[T any] interface {
		Handle(context.Context, T) error
	}

	HandlerFunc[T any] func(context.Context, T) error
	RawHandlerFunc     func(context.Context, *amqp091.Delivery) error

	handler[T any] struct {
		fallback serializer.Reader[T]
		handler  Handler[T]
	}
)

func (h HandlerFunc[T]) Handle(ctx context.Context, body T) error {
	return h(ctx, body)
}

func (h RawHandlerFunc) Handle(ctx context.Context, body *amqp091.Delivery) error {
	return h(ctx, body)
}

// Handle decodes the delivery with the reader matching its content type and
// settles it: acked on success, rejected when it cannot be decoded, when
// the handler returns ErrNoRetry or when it already failed once, requeued
// otherwise.
func (h handler[T]) Handle(ctx context.Context, delivery *amqp091.Delivery) error {
	reader := serializer.ReaderFor[T](delivery.ContentType, h.fallback)

	body, err := reader.Unmarshal(delivery.Body)
	if err != nil {
		_ = delivery.Reject(false)
		return &MessageDecodeError{Inner: err, ContentType: reader.GetContentType()}
	}

	if err = h.handler.Handle(ctx, body); err != nil {
		if errors.Is(err, ErrNoRetry) || delivery.Redelivered {
			_ = delivery.Reject(false)
			return err
		}

		_ = delivery.Nack(false, true)
		return err
	}

	return delivery.Ack(false)
}
