package consumer

import "github.com/rabbitmq/amqp091-go"

type (
	QueueConfig struct {
		Workers       int
		PrefetchCount int
	}

	// QueueDeclare describes the queue a consumer reads from. The zero value
	// of every flag declares a durable queue, Passive only checks that the
	// queue exists.
	QueueDeclare struct {
		Args       amqp091.Table
		QueueName  string
		Bindings   []QueueBinding
		Transient  bool
		AutoDelete bool
		Exclusive  bool
		NoWait     bool
		Passive    bool
	}

	// QueueBinding binds the queue to Exchange once it is declared. With a
	// non-empty ExchangeKind the exchange is declared first as a durable
	// exchange of that kind, the way publishers declare theirs by default.
	QueueBinding struct {
		Args         amqp091.Table
		Exchange     string
		RoutingKey   string
		ExchangeKind string
	}
)

func (q QueueDeclare) validate() error {
	if q.QueueName == "" {
		return ErrQueueNameRequired
	}

	for _, b := range q.Bindings {
		if b.Exchange == "" {
			return ErrBindingExchangeRequired
		}
	}

	return nil
}

func (q QueueDeclare) declare(ch *amqp091.Channel) error {
	var err error

	if q.Passive {
		_, err = ch.QueueDeclarePassive(q.QueueName, !q.Transient, q.AutoDelete, q.Exclusive, q.NoWait, q.Args)
	} else {
		_, err = ch.QueueDeclare(q.QueueName, !q.Transient, q.AutoDelete, q.Exclusive, q.NoWait, q.Args)
	}

	if err != nil {
		return &QueueDeclarationError{Inner: err}
	}

	for _, b := range q.Bindings {
		if err = b.bind(ch, q.QueueName); err != nil {
			return err
		}
	}

	return nil
}

func (b QueueBinding) bind(ch *amqp091.Channel, queueName string) error {
	if b.ExchangeKind != "" {
		if err := ch.ExchangeDeclare(b.Exchange, b.ExchangeKind, true, false, false, false, nil); err != nil {
			return &QueueBindingError{Exchange: b.Exchange, Inner: err}
		}
	}

	if err := ch.QueueBind(queueName, b.RoutingKey, b.Exchange, false, b.Args); err != nil {
		return &QueueBindingError{Exchange: b.Exchange, Inner: err}
	}

	return nil
}
