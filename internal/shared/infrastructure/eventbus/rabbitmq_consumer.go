package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueueName is the durable queue the worker consumes from.
const DefaultQueueName = "cadence.scheduler"

// RabbitMQConsumer feeds envelopes from a queue bound to ExchangeName
// into a ConsumerRegistry.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	closed  chan struct{}
}

// NewRabbitMQConsumer dials url and declares queue (DefaultQueueName when empty).
func NewRabbitMQConsumer(url, queue string, registry *ConsumerRegistry, logger *slog.Logger) (*RabbitMQConsumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == "" {
		queue = DefaultQueueName
	}

	conn, ch, err := dialExchange(url)
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	logger.Info("rabbitmq consumer connected", "queue", queue, "exchange", ExchangeName)
	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    queue,
		registry: registry,
		logger:   logger,
		closed:   make(chan struct{}),
	}, nil
}

// RegisterConsumer registers consumer and binds its routing keys to the queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, key, ExchangeName, false, nil); err != nil {
			c.logger.Error("bind queue", "routing_key", key, "error", err)
		}
	}
}

// Start consumes one message at a time until ctx is done or Close is called.
// Failed deliveries are requeued; undecodable ones are acked and dropped.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(d.Body, event); err != nil {
		c.logger.Error("dropping malformed envelope", "routing_key", d.RoutingKey, "error", err)
		_ = d.Ack(false)
		return
	}
	if event.RoutingKey == "" {
		event.RoutingKey = d.RoutingKey
	}

	if err := c.registry.Dispatch(ctx, event); err != nil {
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("nack", "error", nackErr)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.logger.Error("ack", "error", err)
	}
}

// Close stops Start and releases the connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	c.running = false
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
