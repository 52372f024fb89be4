package dashboard

import (
	"context"
	"fmt"
	kafkax "github.com/ariefcatur/bookstore-orders/internal/kafka"
	"github.com/ariefcatur/bookstore-orders/internal/notify"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"log/slog"
)

// HandleFunc consumes one raw envelope.
type HandleFunc func(ctx context.Context, raw []byte) error

// Source delivers notifications until ctx is done.
type Source interface {
	Run(ctx context.Context, h HandleFunc) error
}

type KafkaSource struct {
	Consumer *kafkax.Consumer
}

func (s *KafkaSource) Run(ctx context.Context, h HandleFunc) error {
	return s.Consumer.Start(ctx, func(ctx context.Context, m kafkago.Message) error {
		return h(ctx, m.Value)
	})
}

// RedisSource subscribes to a pub/sub channel. Pub/sub has no replay, so
// anything published while the dashboard is down is not seen.
type RedisSource struct {
	Redis   *redis.Client
	Channel string
	Log     *slog.Logger
}

func (s *RedisSource) Run(ctx context.Context, h HandleFunc) error {
	sub := s.Redis.Subscribe(ctx, s.Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.Channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := h(ctx, []byte(msg.Payload)); err != nil {
				logOr(s.Log).Warn("redis message dropped", "channel", s.Channel, "err", err)
			}
		}
	}
}

// AMQPSource binds an exclusive queue to the channel exchange.
type AMQPSource struct {
	URL        string
	Exchange   string
	RoutingKey string
	Log        *slog.Logger
}

func (s *AMQPSource) Run(ctx context.Context, h HandleFunc) error {
	conn, err := amqp.Dial(s.URL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if err := notify.DeclareExchange(ch, s.Exchange); err != nil {
		return err
	}
	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, s.RoutingKey, s.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	msgs, err := ch.Consume(
		q.Name,
		"bookstore-dashboard", // consumer tag
		false,                 // auto-ack
		true,                  // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	return consumeDeliveries(ctx, msgs, h, logOr(s.Log))
}

type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func consumeDeliveries(ctx context.Context, msgs <-chan amqp.Delivery, h HandleFunc, log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			settle(ctx, d, d.Body, h, log)
		}
	}
}

// settle acks handled messages and drops the rest; a message that failed
// once will fail again.
func settle(ctx context.Context, a acker, body []byte, h HandleFunc, log *slog.Logger) {
	if err := h(ctx, body); err != nil {
		log.Warn("amqp message dropped", "err", err)
		_ = a.Nack(false, false)
		return
	}
	_ = a.Ack(false)
}

func logOr(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
