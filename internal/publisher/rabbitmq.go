package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gaudesp/noxbot/internal/domain"
)

var errNacked = errors.New("publish not acknowledged by broker")

// RabbitMQ hands notifications to a broker queue for an out-of-process
// delivery worker. Publishes wait for a broker confirmation.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger

	mu sync.Mutex
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(op string, err error) (*RabbitMQ, error) {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}

	if err := ch.Confirm(false); err != nil {
		return fail("enable confirms", err)
	}

	logger = logger.With("dispatcher", "rabbitmq")
	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

type NotificationMessage struct {
	Notification domain.Notification `json:"notification"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Dispatch publishes n and blocks until the broker confirms it.
func (r *RabbitMQ) Dispatch(ctx context.Context, n *domain.Notification) error {
	msg := NotificationMessage{
		Notification: *n,
		Timestamp:    time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return &domain.DispatchError{ChannelID: n.ChannelID, Err: fmt.Errorf("marshal message: %w", err)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	confirm, err := r.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    fmt.Sprintf("%d:%s", n.SubscriptionID, n.ArticleID),
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return &domain.DispatchError{ChannelID: n.ChannelID, Err: fmt.Errorf("publish message: %w", err)}
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return &domain.DispatchError{ChannelID: n.ChannelID, Err: fmt.Errorf("wait for confirm: %w", err)}
	}
	if !acked {
		return &domain.DispatchError{ChannelID: n.ChannelID, Err: errNacked}
	}

	r.logger.Debug("published notification",
		"channel_id", n.ChannelID,
		"article_id", n.ArticleID,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
