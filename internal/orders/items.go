package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
)

func validateItem(in ItemInput) error {
	if in.ProductID <= 0 {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	return nil
}

// CheckStock is the read-only pre-check for one line.
func (s *Service) CheckStock(ctx context.Context, in ItemInput) error {
	if err := validateItem(in); err != nil {
		return err
	}
	return s.Store.Do(ctx, func(q Queries) error {
		p, err := q.GetProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p.Stock < in.Quantity {
			return &StockError{Product: p.Name}
		}
		return nil
	})
}

// CreateItem adds one line to an existing order and recomputes its total.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (OrderItem, error) {
	var it OrderItem
	err := s.Store.InTx(ctx, func(q Queries) error {
		var err error
		if it, err = createItem(ctx, q, in); err != nil {
			return err
		}
		return recomputeTotalByID(ctx, q, it.OrderID)
	})
	return it, err
}

// CreateItemsBatch applies CreateItem to every input in order. The batch is
// one transaction: a failing line discards the lines before it.
func (s *Service) CreateItemsBatch(ctx context.Context, ins []ItemInput) ([]OrderItem, error) {
	var out []OrderItem
	err := s.Store.InTx(ctx, func(q Queries) error {
		var err error
		if out, err = createItemsBatch(ctx, q, ins); err != nil {
			return err
		}
		seen := make(map[int64]bool)
		for _, it := range out {
			if seen[it.OrderID] {
				continue
			}
			seen[it.OrderID] = true
			if err := recomputeTotalByID(ctx, q, it.OrderID); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// UpdateItem changes a line's quantity. The difference is taken from or
// given back to the product's stock, the subtotal is recomputed at the price
// captured on creation, and so is the owning order's total.
func (s *Service) UpdateItem(ctx context.Context, itemID int64, in UpdateItemInput) (OrderItem, error) {
	if in.Quantity != nil && *in.Quantity <= 0 {
		return OrderItem{}, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	var it OrderItem
	err := s.Store.InTx(ctx, func(q Queries) error {
		var err error
		if it, err = q.GetItem(ctx, itemID); err != nil {
			return err
		}
		if in.Quantity != nil && *in.Quantity != it.Quantity {
			delta := *in.Quantity - it.Quantity
			if delta > 0 {
				if _, err := q.DecrementStock(ctx, it.ProductID, delta); err != nil {
					return err
				}
			} else {
				if err := restoreStock(ctx, q, OrderItem{ProductID: it.ProductID, Quantity: -delta}); err != nil {
					return err
				}
			}
			it.Quantity = *in.Quantity
			it.Subtotal = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			if err := q.UpdateItem(ctx, &it); err != nil {
				return err
			}
		}
		return recomputeTotalByID(ctx, q, it.OrderID)
	})
	if err != nil {
		return OrderItem{}, err
	}
	return it, nil
}

// RestoreStock adds the item's quantity back onto its product.
func (s *Service) RestoreStock(ctx context.Context, itemID int64) error {
	return s.Store.InTx(ctx, func(q Queries) error {
		it, err := q.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		return restoreStock(ctx, q, it)
	})
}

// RemoveItem restores the item's stock, deletes it and recomputes the
// owning order's total.
func (s *Service) RemoveItem(ctx context.Context, itemID int64) error {
	return s.Store.InTx(ctx, func(q Queries) error {
		it, err := q.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := restoreStock(ctx, q, it); err != nil {
			return err
		}
		if err := q.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return recomputeTotalByID(ctx, q, it.OrderID)
	})
}

func (s *Service) GetItem(ctx context.Context, id int64) (OrderItem, error) {
	var it OrderItem
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		it, err = q.GetItem(ctx, id)
		return err
	})
	return it, err
}

func (s *Service) ListItems(ctx context.Context) ([]OrderItem, error) {
	var out []OrderItem
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		out, err = q.ListItems(ctx)
		return err
	})
	return out, err
}

// createItem takes the stock, then stores the line with the product's
// current price captured.
func createItem(ctx context.Context, q Queries, in ItemInput) (OrderItem, error) {
	if err := validateItem(in); err != nil {
		return OrderItem{}, err
	}
	p, err := q.DecrementStock(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return OrderItem{}, err
	}
	it := OrderItem{
		OrderID:   in.OrderID,
		ProductID: p.ID,
		Quantity:  in.Quantity,
		Price:     p.Price,
		Subtotal:  p.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
	}
	if err := q.InsertItem(ctx, &it); err != nil {
		return OrderItem{}, err
	}
	return it, nil
}

func createItemsBatch(ctx context.Context, q Queries, ins []ItemInput) ([]OrderItem, error) {
	out := make([]OrderItem, 0, len(ins))
	for _, in := range ins {
		it, err := createItem(ctx, q, in)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// restoreStock is a no-op when the product has since been deleted.
func restoreStock(ctx context.Context, q Queries, it OrderItem) error {
	err := q.IncrementStock(ctx, it.ProductID, it.Quantity)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
