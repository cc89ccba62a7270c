package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ReconciliationConsumer drains the payment.reconciliation queue and
// raises each event as an operator alert in the logs. It is the
// last-resort surface that makes sure a late payment success is never
// silently dropped.
type ReconciliationConsumer struct {
	url string
	log *zap.Logger
}

func NewReconciliationConsumer(url string, log *zap.Logger) *ReconciliationConsumer {
	return &ReconciliationConsumer{
		url: url,
		log: log.With(zap.String("component", "reconciliation_consumer")),
	}
}

// Start consumes until ctx is cancelled, re-dialing with backoff when
// the broker connection drops.
func (c *ReconciliationConsumer) Start(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			c.log.Warn("Consumer stopped, retrying", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			c.log.Info("Reconciliation consumer shut down")
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *ReconciliationConsumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(QueueReconciliation, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(QueueReconciliation, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}

			var event ReconciliationEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				c.log.Error("Malformed reconciliation event", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}

			c.log.Error("OPERATOR ACTION REQUIRED: payment succeeded after hold release",
				zap.String("intent_id", event.IntentID),
				zap.String("hold_id", event.HoldID),
				zap.String("showtime_id", event.ShowtimeID),
				zap.Float64("amount", event.Amount),
				zap.String("reason", event.Reason),
				zap.Time("occurred_at", event.OccurredAt),
			)
			_ = d.Ack(false)
		}
	}
}
