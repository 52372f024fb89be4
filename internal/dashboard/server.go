package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ariefcatur/bookstore-orders/internal/metrics"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// StatusSetter is implemented by Reviewer.
type StatusSetter interface {
	SetStatus(ctx context.Context, orderID int64, status orders.Status) (orders.Order, error)
}

func NewRouter(hub *Hub, reviewer StatusSetter, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, metrics.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", hub.ServeWS)
	r.Post("/orders/{id}/accept", review(reviewer, orders.StatusAccepted, logOr(log)))
	r.Post("/orders/{id}/reject", review(reviewer, orders.StatusRejected, logOr(log)))
	return r
}

func review(rv StatusSetter, status orders.Status, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		o, err := rv.SetStatus(ctx, id, status)
		if err != nil {
			code := http.StatusBadGateway
			var ue *UpstreamError
			if errors.As(err, &ue) && ue.Status < 500 {
				code = ue.Status
			}
			log.Warn("review failed", "order_id", id, "status", status, "err", err)
			writeJSON(w, code, map[string]string{"error": err.Error()})
			return
		}
		log.Info("order reviewed", "order_id", id, "status", o.Status)
		writeJSON(w, http.StatusOK, o)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
