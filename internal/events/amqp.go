package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher publishes events to a durable topic exchange.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
	log        *zap.Logger
}

func NewAMQPPublisher(url, exchange, routingKey string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		log:        log,
	}, nil
}

// newPublishing wraps an event as a persistent JSON message.
func newPublishing(e SpinResolved) (amqp091.Publishing, error) {
	body, err := e.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Type:         "wheel.spin.resolved",
		Timestamp:    e.ResolvedAt,
		Body:         body,
	}, nil
}

func (p *AMQPPublisher) PublishSpinResolved(ctx context.Context, e SpinResolved) error {
	msg, err := newPublishing(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.log.Debug("published spin event",
		zap.String("id", e.ID),
		zap.String("wheel", e.Wheel),
		zap.String("exchange", p.exchange),
		zap.String("routing_key", p.routingKey))
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
