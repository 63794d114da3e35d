/*
Package events consumes order lifecycle events from the message bus and hands
them to the notification relay. When no AMQP URL is configured the consumer
degrades to a noop so the service runs without a broker.
*/
package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/notify"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

// Handler processes one decoded domain event. Satisfied by notify.Relay.
type Handler interface {
	Handle(ctx context.Context, ev notify.DomainEvent) error
}

// Consumer drains domain events from the bus.
type Consumer interface {
	// Run consumes until the context is cancelled or the channel closes.
	Run(ctx context.Context) error
	Close() error
}

// NewConsumer connects to the broker and binds a durable queue to the domain
// events exchange. An empty URL or a connection failure yields a noop
// consumer so notification pushes simply stop arriving from the bus.
func NewConsumer(amqpURL, exchange, queue string, handler Handler) Consumer {
	logger := logx.Logger().With().Str("component", "events").Logger()

	if amqpURL == "" {
		logger.Warn().Msg("AMQP disabled, domain events will not be consumed.")
		return noopConsumer{}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		logger.Error().Err(err).Msg("AMQP dial failed, falling back to noop consumer.")
		return noopConsumer{}
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("AMQP channel failed, falling back to noop consumer.")
		_ = conn.Close()
		return noopConsumer{}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		logger.Error().Err(err).Str("exchange", exchange).Msg("Exchange declare failed, falling back to noop consumer.")
		_ = ch.Close()
		_ = conn.Close()
		return noopConsumer{}
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		logger.Error().Err(err).Str("queue", queue).Msg("Queue declare failed, falling back to noop consumer.")
		_ = ch.Close()
		_ = conn.Close()
		return noopConsumer{}
	}

	if err := ch.QueueBind(q.Name, "order.#", exchange, false, nil); err != nil {
		logger.Error().Err(err).Str("queue", q.Name).Msg("Queue bind failed, falling back to noop consumer.")
		_ = ch.Close()
		_ = conn.Close()
		return noopConsumer{}
	}

	logger.Info().Str("exchange", exchange).Str("queue", q.Name).Msg("AMQP consumer connected.")

	return &amqpConsumer{
		conn:    conn,
		ch:      ch,
		queue:   q.Name,
		handler: handler,
		logger:  logger,
	}
}

type amqpConsumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	handler Handler
	logger  zerolog.Logger
}

func (c *amqpConsumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn().Msg("AMQP delivery channel closed.")
				return nil
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *amqpConsumer) dispatch(ctx context.Context, d amqp.Delivery) {
	var ev notify.DomainEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		c.logger.Error().Err(err).Str("routing_key", d.RoutingKey).Msg("Undecodable domain event discarded.")
		_ = d.Nack(false, false)
		return
	}

	if err := c.handler.Handle(ctx, ev); err != nil {
		c.logger.Error().Err(err).Str("event_type", ev.Type).Str("order_id", ev.OrderID).Msg("Domain event handling failed, requeueing.")
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

func (c *amqpConsumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type noopConsumer struct{}

func (noopConsumer) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (noopConsumer) Close() error { return nil }
