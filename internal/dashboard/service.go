package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ariefcatur/bookstore-orders/internal/metrics"
	"github.com/ariefcatur/bookstore-orders/internal/notify"
	"github.com/ariefcatur/bookstore-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"log/slog"
)

// Broadcaster is what the service pushes live updates into.
type Broadcaster interface {
	Broadcast(msg []byte) int
}

// Update is what dashboard clients receive.
type Update struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
}

// Service turns pending-order notifications into dashboard updates.
type Service struct {
	Hub         Broadcaster
	Redis       *redis.Client // optional, enables dedup by event id
	Event       string
	ServiceName string
	Log         *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// Handle processes one raw envelope. Undecodable messages are reported as
// errors and leave the event id unclaimed; everything else, duplicates
// included, is consumed.
func (s *Service) Handle(ctx context.Context, raw []byte) error {
	env, err := notify.Decode(raw)
	if err != nil {
		metrics.RecordDashboardEvent("error")
		return err
	}
	if env.EventType != s.Event {
		metrics.RecordDashboardEvent("ignored")
		return nil
	}

	p, err := notify.DecodePayload[notify.PendingOrderPayload](env.Payload)
	if err != nil {
		metrics.RecordDashboardEvent("error")
		return err
	}

	// a bad delivery must leave its event id free
	if s.Redis != nil && env.EventID != "" {
		key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
		won, err := redisx.ClaimOnce(ctx, s.Redis, key, redisx.TTLDedup)
		if err != nil {
			// without redis every event is shown; a rare duplicate is harmless
			s.logger().Warn("dedup unavailable", "event_id", env.EventID, "err", err)
		} else if !won {
			metrics.RecordDashboardEvent("duplicate")
			return nil
		}
	}

	b, err := json.Marshal(Update{Type: env.EventType, OrderID: p.OrderID})
	if err != nil {
		return err
	}
	n := s.Hub.Broadcast(b)
	metrics.RecordDashboardEvent("broadcast")
	s.logger().Info("pending order", "order_id", p.OrderID, "event_id", env.EventID, "clients", n)
	return nil
}

// HandleKafka adapts Handle to the kafka consumer.
func (s *Service) HandleKafka(ctx context.Context, m kafkago.Message) error {
	return s.Handle(ctx, m.Value)
}
