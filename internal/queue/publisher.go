package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher delivers lifecycle events to the broker. Implementations
// must never panic; publishing failures are logged and returned so
// callers can choose to ignore them without interrupting the request
// flow.
type Publisher interface {
	Publish(ctx context.Context, queueName string, event any) error
}

// AMQPPublisher publishes persistent JSON messages to durable queues
// on the default exchange. It dials per publish, which keeps it free
// of connection-recovery state; event volume here is a handful per
// booking, not a firehose.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url: url,
		log: log.With(zap.String("component", "amqp_publisher")),
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("AMQP dial failed", zap.Error(err), zap.String("queue", queueName))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("AMQP channel open failed", zap.Error(err), zap.String("queue", queueName))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.log.Error("AMQP queue declare failed", zap.Error(err), zap.String("queue", queueName))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Event marshal failed", zap.Error(err), zap.String("queue", queueName))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.log.Error("AMQP publish failed", zap.Error(err), zap.String("queue", queueName))
		return err
	}

	return nil
}

// NopPublisher is used when no broker is configured. Events still show
// up in the logs through the callers.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, queueName string, event any) error {
	return nil
}
