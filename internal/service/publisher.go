// Package service publishes seating events to RabbitMQ.  Publishing is best
// effort: errors are logged and returned so callers can ignore them without
// interrupting the request that caused the event.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/queue"
)

// Publisher sends SeatingEvents to the seating queue, dialing the broker
// for each event.
type Publisher struct {
	url string
	log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish declares the durable queue and publishes ev as a persistent
// message on the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev queue.SeatingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return errors.Wrap(err, "dial broker")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open channel")
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.SeatingQueueName, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare queue")
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.SeatingQueueName, false, false, pub); err != nil {
		return errors.Wrap(err, "publish")
	}
	p.log.Debug("seating event published", zap.String("id", ev.ID), zap.String("type", ev.Type))
	return nil
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.SeatingEvent) error { return nil }
