package orders

import (
	"context"
	"fmt"
	"github.com/shopspring/decimal"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Notifier announces orders that wait for review. Implementations must not
// block the caller and have no way to fail the order.
type Notifier interface {
	PublishPendingOrder(ctx context.Context, orderID int64)
}

type Service struct {
	Store    Store
	Notifier Notifier
	Log      *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// normalizeStatus trims st and checks it against the column limit, which
// counts characters, not bytes.
func normalizeStatus(st Status) (Status, error) {
	v := strings.TrimSpace(string(st))
	if v == "" {
		return "", fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(v) > maxStatusLen {
		return "", fmt.Errorf("%w: status must be at most %d characters", ErrInvalidInput, maxStatusLen)
	}
	return Status(v), nil
}

// CreateOrder places an order: every line is pre-checked against current
// stock, then the order, its items and its total are written in one
// transaction. Pending orders are announced after commit.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (Order, error) {
	if in.CustomerID <= 0 {
		return Order{}, badRequest(fmt.Errorf("%w: customer id is required", ErrInvalidInput))
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return Order{}, badRequest(err)
	}

	// fail fast before any row is written
	for _, it := range in.Items {
		if err := s.CheckStock(ctx, it); err != nil {
			return Order{}, badRequest(err)
		}
	}

	var created Order
	err = s.Store.InTx(ctx, func(q Queries) error {
		o := Order{CustomerID: in.CustomerID, Status: status, Total: decimal.Zero}
		if err := q.InsertOrder(ctx, &o); err != nil {
			return err
		}
		if len(in.Items) > 0 {
			lines := make([]ItemInput, len(in.Items))
			for i, it := range in.Items {
				it.OrderID = o.ID
				lines[i] = it
			}
			if _, err := createItemsBatch(ctx, q, lines); err != nil {
				return err
			}
		}
		if err := recomputeTotal(ctx, q, &o); err != nil {
			return err
		}
		var err error
		created, err = q.GetOrder(ctx, o.ID)
		return err
	})
	if err != nil {
		s.logger().Warn("create order failed", "customer_id", in.CustomerID, "items", len(in.Items), "err", err)
		return Order{}, badRequest(err)
	}

	s.logger().Info("order created", "order_id", created.ID, "status", created.Status, "total", created.Total.StringFixed(2))
	if created.Status.IsPending() && s.Notifier != nil {
		s.Notifier.PublishPendingOrder(ctx, created.ID)
	}
	return created, nil
}

// UpdateOrder applies the fields present in in and recomputes the total from
// the current line items.
func (s *Service) UpdateOrder(ctx context.Context, id int64, in UpdateOrderInput) (Order, error) {
	var status *Status
	if in.Status != nil {
		st, err := normalizeStatus(*in.Status)
		if err != nil {
			return Order{}, err
		}
		status = &st
	}
	var updated Order
	err := s.Store.InTx(ctx, func(q Queries) error {
		o, err := q.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if in.CustomerID != nil {
			o.CustomerID = *in.CustomerID
		}
		if status != nil {
			o.Status = *status
		}
		if err := recomputeTotal(ctx, q, &o); err != nil {
			return err
		}
		updated, err = q.GetOrder(ctx, id)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}

// CalculateOrderTotal sums the subtotals of the order's items. An unknown
// order id yields zero, not an error.
func (s *Service) CalculateOrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		total, err = calculateTotal(ctx, q, orderID)
		return err
	})
	return total, err
}

// RemoveOrder puts the stock of every line back and deletes the order along
// with its items.
func (s *Service) RemoveOrder(ctx context.Context, id int64) error {
	return s.Store.InTx(ctx, func(q Queries) error {
		o, err := q.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range o.Items {
			if err := restoreStock(ctx, q, it); err != nil {
				return err
			}
		}
		return q.DeleteOrder(ctx, id)
	})
}

func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		o, err = q.GetOrder(ctx, id)
		return err
	})
	return o, err
}

func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		out, err = q.ListOrders(ctx)
		return err
	})
	return out, err
}

func calculateTotal(ctx context.Context, q Queries, orderID int64) (decimal.Decimal, error) {
	items, err := q.ListItemsByOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total, nil
}

func recomputeTotal(ctx context.Context, q Queries, o *Order) error {
	total, err := calculateTotal(ctx, q, o.ID)
	if err != nil {
		return err
	}
	o.Total = total
	return q.UpdateOrder(ctx, o)
}

func recomputeTotalByID(ctx context.Context, q Queries, orderID int64) error {
	o, err := q.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return recomputeTotal(ctx, q, &o)
}
