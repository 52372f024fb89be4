package notify

import (
	"context"
	"encoding/json"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"log/slog"
	"strconv"
)

// Publisher delivers one envelope to its channel.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// queued is implemented by publishers that only hand the message to a
// background writer.
type queued interface {
	Queued() bool
}

// MessageProducer is the part of the kafka producer the publisher needs.
type MessageProducer interface {
	Publish(key, value []byte, headers ...kafkago.Header) error
}

// KafkaPublisher writes to the topic its producer was built for, which is
// named after the channel.
type KafkaPublisher struct {
	Producer MessageProducer
}

// Queued reports true: Publish returns once the producer has buffered the
// message, before the broker has it.
func (p *KafkaPublisher) Queued() bool { return true }

func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Producer.Publish(env.PartitionKey(), b,
		kafkago.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}

type RedisPublisher struct {
	Redis *redis.Client
}

func (p *RedisPublisher) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Redis.Publish(ctx, env.Channel, b).Err()
}

// LogPublisher only logs; it stands in when no broker is configured.
type LogPublisher struct {
	Log *slog.Logger
}

func (p *LogPublisher) Publish(ctx context.Context, env Envelope) error {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "notification",
		"channel", env.Channel,
		"event", env.EventType,
		"event_id", env.EventID,
		"order_id", env.CorrelationID,
	)
	return nil
}
