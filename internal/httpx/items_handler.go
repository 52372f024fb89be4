package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/ariefcatur/bookstore-orders/internal/metrics"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"io"
	"net/http"
	"time"
)

const maxBody = 1 << 20

func (h *OrdersHandler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListItems(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// createItems takes either one item object or an array of them.
func (h *OrdersHandler) createItems(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: unreadable body", orders.ErrInvalidInput))
		return
	}
	body = bytes.TrimSpace(body)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if len(body) > 0 && body[0] == '[' {
		var ins []orders.ItemInput
		if err := json.Unmarshal(body, &ins); err != nil {
			h.fail(w, r, fmt.Errorf("%w: invalid json", orders.ErrInvalidInput))
			return
		}
		items, err := h.Service.CreateItemsBatch(ctx, ins)
		metrics.RecordOrderOperation("create_items", err == nil)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, items)
		return
	}

	var in orders.ItemInput
	if err := json.Unmarshal(body, &in); err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid json", orders.ErrInvalidInput))
		return
	}
	it, err := h.Service.CreateItem(ctx, in)
	metrics.RecordOrderOperation("create_item", err == nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *OrdersHandler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Service.GetItem(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *OrdersHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req orders.UpdateItemInput
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Service.UpdateItem(ctx, id, req)
	metrics.RecordOrderOperation("update_item", err == nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *OrdersHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = h.Service.RemoveItem(ctx, id)
	metrics.RecordOrderOperation("remove_item", err == nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
