package notify

import (
	"context"
	"fmt"
	"time"

	"harambee/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Client publishes and consumes intents over a durable RabbitMQ queue bound
// to a direct exchange.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewClient dials url and declares the exchange, queue and binding.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// Routing key equals the queue name on a direct exchange.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	// One unacked delivery at a time keeps sends ordered per worker.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// Publish sends intent as a persistent JSON message.
func (c *Client) Publish(ctx context.Context, intent Intent) error {
	body, err := intent.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Type:         string(intent.Kind),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Get().Debugw("published notification intent",
		"kind", intent.Kind,
		"member_id", intent.MemberID,
		"exchange", c.exchangeName,
	)
	return nil
}

// Consume delivers intents to handler until ctx is cancelled. Malformed
// messages are dropped; handler errors requeue the message.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, Intent) error) error {
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger.Get().Infow("started consuming notification intents", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger.Get().Infow("stopping notification consumer", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

// acknowledger is the subset of amqp091.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, Intent) error) {
	settle(ctx, &delivery, delivery.Body, handler)
}

func settle(ctx context.Context, ack acknowledger, body []byte, handler func(context.Context, Intent) error) {
	intent, err := IntentFromJSON(body)
	if err != nil {
		logger.Get().Errorw("failed to decode notification intent", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, intent); err != nil {
		logger.Get().Errorw("failed to handle notification intent",
			"error", err,
			"kind", intent.Kind,
			"member_id", intent.MemberID,
		)
		_ = ack.Nack(false, true)
		return
	}

	_ = ack.Ack(false)
}

// Close releases the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
