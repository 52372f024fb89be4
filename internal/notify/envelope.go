package notify

import (
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"strconv"
	"time"
)

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	Channel       string          `json:"channel"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type PendingOrderPayload struct {
	OrderID int64 `json:"order_id"`
}

func NewPendingOrder(event, channel, producer, traceID string, orderID int64) (Envelope, error) {
	payload, err := json.Marshal(PendingOrderPayload{OrderID: orderID})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     event,
		EventVersion:  EventVersion,
		Channel:       channel,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload:       payload,
	}, nil
}

// PartitionKey keeps every event of one order on the same partition.
func (e Envelope) PartitionKey() []byte { return []byte(e.CorrelationID) }

func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func DecodePayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
