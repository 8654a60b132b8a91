// Package pushqueue hands native push jobs to a RabbitMQ exchange for the
// push worker to deliver.
package pushqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

const publishTimeout = 5 * time.Second

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch         Channel
	exchange   string
	routingKey string
}

func NewPublisher(ch Channel, exchange, routingKey string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

// Dial opens a connection and channel and declares the exchange.
func Dial(url, exchange, routingKey string) (*Publisher, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}
	return NewPublisher(ch, exchange, routingKey), conn, nil
}

// Dispatch implements domain.PushDispatcher.
func (p *Publisher) Dispatch(ctx context.Context, job domain.PushJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode push job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    job.NotificationID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish push job: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
