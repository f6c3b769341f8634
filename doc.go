// Package amqp is a typed RabbitMQ publisher and consumer whose message
// bodies can be written as JSON or as one of the archive formats in
// serializer.Formats.
//
// Publishing and consuming live in the publisher and consumer packages,
// connection handles dialing and reconnecting, and serializer holds the
// reader/writer pairs:
//
//	pub, err := publisher.New[Order](ctx, connection.DefaultConfig, "orders",
//		publisher.WithFormat[Order]("xml"),
//	)
//
//	c, err := consumer.NewFunc(handleOrder, connection.DefaultConfig,
//		consumer.QueueDeclare{QueueName: "orders"},
//	)
//
// A consumer decodes every delivery with the reader matching its content
// type, so publishers using different formats can share one queue.
package amqp
