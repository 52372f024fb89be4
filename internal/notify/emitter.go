package notify

import (
	"context"
	"github.com/ariefcatur/bookstore-orders/internal/metrics"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"log/slog"
	"sync"
	"time"
)

const defaultTimeout = 5 * time.Second

// Emitter announces pending orders. Each announcement is a single attempt
// made off the caller's goroutine; failures are logged and counted only.
type Emitter struct {
	Publisher Publisher
	Driver    string
	Event     string
	Channel   string
	Producer  string
	Timeout   time.Duration
	Log       *slog.Logger

	wg sync.WaitGroup
}

var _ orders.Notifier = (*Emitter)(nil)

func (e *Emitter) PublishPendingOrder(ctx context.Context, orderID int64) {
	log := e.Log
	if log == nil {
		log = slog.Default()
	}
	env, err := NewPendingOrder(e.Event, e.Channel, e.Producer, middleware.GetReqID(ctx), orderID)
	if err != nil {
		metrics.RecordNotification(e.Driver, metrics.NotificationFailed)
		log.Error("build notification", "order_id", orderID, "err", err)
		return
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	// the request context ends with the response; the publish must not
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		err := e.Publisher.Publish(ctx, env)
		metrics.RecordNotification(e.Driver, outcome(e.Publisher, err))
		if err != nil {
			log.Warn("notification failed", "order_id", orderID, "channel", e.Channel, "event_id", env.EventID, "err", err)
			return
		}
		log.Debug("notification sent", "order_id", orderID, "channel", e.Channel, "event_id", env.EventID)
	}()
}

func outcome(p Publisher, err error) string {
	if err != nil {
		return metrics.NotificationFailed
	}
	if q, ok := p.(queued); ok && q.Queued() {
		return metrics.NotificationEnqueued
	}
	return metrics.NotificationSent
}

// Wait blocks until every notification started so far has finished.
func (e *Emitter) Wait() { e.wg.Wait() }
