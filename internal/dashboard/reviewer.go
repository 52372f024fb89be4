package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"io"
	"net/http"
	"time"
)

// UpstreamError is a non-2xx answer from the API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("api answered %d: %s", e.Status, e.Message)
}

// Reviewer sets order statuses through the API's PATCH /orders/{id}.
type Reviewer struct {
	BaseURL string
	HTTP    *http.Client
}

func NewReviewer(baseURL string) *Reviewer {
	return &Reviewer{BaseURL: baseURL, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

func (r *Reviewer) SetStatus(ctx context.Context, orderID int64, status orders.Status) (orders.Order, error) {
	body, err := json.Marshal(orders.UpdateOrderInput{Status: &status})
	if err != nil {
		return orders.Order{}, err
	}
	url := fmt.Sprintf("%s/orders/%d", r.BaseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return orders.Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return orders.Order{}, fmt.Errorf("patch order %d: %w", orderID, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return orders.Order{}, err
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		msg := string(b)
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return orders.Order{}, &UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return orders.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}
