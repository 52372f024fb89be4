package httpx

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/bookstore-orders/internal/metrics"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"github.com/ariefcatur/bookstore-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OrdersHandler serves the catalog, customers, orders and order items. Redis
// is optional: without it idempotency keys are ignored and statuses are
// always read from the store.
type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client
	Log     *slog.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Patch("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}", h.updateOrder)
		r.Patch("/{id}", h.updateOrder)
		r.Delete("/{id}", h.removeOrder)
		r.Get("/{id}/total", h.orderTotal)
		r.Get("/{id}/status", h.orderStatus)
	})
	r.Route("/orderItems", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItems)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
		r.Patch("/{id}", h.updateItem)
		r.Delete("/{id}", h.removeItem)
	})
}

func (h *OrdersHandler) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h *OrdersHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log(), err)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListOrders(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderInput
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// only the request that claims the key creates the order
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	claimed := false
	if idemKey != "" && h.Redis != nil {
		won, err := redisx.ClaimOrderKey(ctx, h.Redis, idemKey)
		switch {
		case err != nil:
			h.log().Warn("idempotency claim", "key", idemKey, "err", err)
		case !won:
			h.replayOrder(ctx, w, r, idemKey)
			return
		default:
			claimed = true
		}
	}

	o, err := h.Service.CreateOrder(ctx, req)
	metrics.RecordOrderOperation("create", err == nil)
	if err != nil {
		if claimed {
			if err := redisx.ReleaseOrderKey(ctx, h.Redis, idemKey); err != nil {
				h.log().Warn("idempotency release", "key", idemKey, "err", err)
			}
		}
		h.fail(w, r, err)
		return
	}

	if h.Redis != nil {
		if claimed {
			if err := redisx.RememberOrder(ctx, h.Redis, idemKey, o.ID); err != nil {
				h.log().Warn("idempotency store", "key", idemKey, "order_id", o.ID, "err", err)
			}
		}
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusCreated, o)
}

// replayOrder answers a request whose Idempotency-Key was claimed by an
// earlier one: with that order once it exists, with 409 until then.
func (h *OrdersHandler) replayOrder(ctx context.Context, w http.ResponseWriter, r *http.Request, idemKey string) {
	id, found, err := redisx.LookupOrder(ctx, h.Redis, idemKey)
	if errors.Is(err, redisx.ErrInFlight) || (err == nil && !found) {
		h.fail(w, r, &orders.RequestError{
			Status: http.StatusConflict,
			Err:    fmt.Errorf("a request with Idempotency-Key %q is still in progress", idemKey),
		})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Idempotent-Replay", "true")
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req orders.UpdateOrderInput
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.UpdateOrder(ctx, id, req)
	metrics.RecordOrderOperation("update", err == nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Redis != nil {
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) removeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = h.Service.RemoveOrder(ctx, id)
	metrics.RecordOrderOperation("remove", err == nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Redis != nil {
		if err := redisx.ForgetStatus(ctx, h.Redis, id); err != nil {
			h.log().Warn("status cache evict", "order_id", id, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type totalResp struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

func (h *OrdersHandler) orderTotal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	total, err := h.Service.CalculateOrderTotal(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalResp{OrderID: id, Total: total})
}

type statusResp struct {
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	Cached    bool      `json:"cached"`
}

func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) cache
	if h.Redis != nil {
		if e, hit, err := redisx.CachedStatus(ctx, h.Redis, id); err == nil && hit {
			writeJSON(w, http.StatusOK, statusResp{OrderID: id, Status: e.Status, UpdatedAt: e.UpdatedAt, Cached: true})
			return
		}
	}

	// 2) store
	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Redis != nil {
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusOK, statusResp{OrderID: id, Status: string(o.Status), UpdatedAt: o.UpdatedAt})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o orders.Order) {
	e := redisx.StatusEntry{Status: string(o.Status), UpdatedAt: o.UpdatedAt}
	if err := redisx.CacheStatus(ctx, h.Redis, o.ID, e); err != nil {
		h.log().Warn("status cache write", "order_id", o.ID, "err", err)
	}
}
