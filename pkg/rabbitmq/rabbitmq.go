package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	amqp "github.com/streadway/amqp"
)

const (
	// ProductExchange is the topic exchange product events are published to.
	ProductExchange = "product_events"
	// LogQueue receives every product event for the in-process log consumer.
	LogQueue = "product_events_log"
)

// Client holds the RabbitMQ connection and the channel used for publishing.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     zerolog.Logger
	mu      sync.Mutex // amqp channels are not safe for concurrent publishes
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the product
// exchange.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ProductExchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s exchange: %w", ProductExchange, err)
	}

	log.Info().Str("exchange", ProductExchange).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		log:     log,
	}, nil
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish marshals payload to JSON and publishes it on the product exchange.
func (c *Client) Publish(routingKey string, payload interface{}) error {
	msg, err := NewPublishing(payload, time.Now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		ProductExchange, // exchange
		routingKey,      // routing key
		false,           // mandatory
		false,           // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.log.Debug().Str("routing_key", routingKey).Str("message_id", msg.MessageId).Msg("published product event")
	return nil
}

// NewPublishing builds a persistent JSON message with a fresh message id.
func NewPublishing(payload interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event to JSON: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}

// ConsumeProductEvents binds LogQueue to every product routing key and hands
// each delivery to messageHandler. Deliveries are acked on success and
// rejected without requeue on error so a poison message cannot loop.
func (c *Client) ConsumeProductEvents(messageHandler func(msg amqp.Delivery) error) error {
	// Consumption uses its own channel; the publish channel stays exclusive.
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}

	queue, err := ch.QueueDeclare(
		LogQueue, // name
		true,     // durable
		false,    // delete when unused
		false,    // exclusive
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	if err := ch.QueueBind(queue.Name, "product.#", ProductExchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("failed to bind %s: %w", queue.Name, err)
	}

	msgs, err := ch.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info().Str("queue", queue.Name).Msg("waiting for product events")

	go func() {
		defer ch.Close()
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				c.log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("error processing message")
				if nackErr := msg.Nack(false, false); nackErr != nil {
					c.log.Error().Err(nackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("error nacking message")
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.log.Error().Err(ackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("error acking message")
			}
		}
	}()

	return nil
}
