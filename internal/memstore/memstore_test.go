package memstore

import (
	"context"
	"errors"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func seedProduct(t *testing.T, s *Store, stock int) orders.Product {
	t.Helper()
	p := orders.Product{Name: "Dune", Price: decimal.RequireFromString("9.99"), Stock: stock}
	require.NoError(t, s.Do(context.Background(), func(q orders.Queries) error {
		return q.InsertProduct(context.Background(), &p)
	}))
	return p
}

func TestInTx_DiscardsWritesOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 3)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(q orders.Queries) error {
		if _, err := q.DecrementStock(ctx, p.ID, 2); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.Do(ctx, func(q orders.Queries) error {
		got, err := q.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)
		return nil
	}))
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 3)

	require.NoError(t, s.InTx(ctx, func(q orders.Queries) error {
		_, err := q.DecrementStock(ctx, p.ID, 3)
		return err
	}))

	require.NoError(t, s.Do(ctx, func(q orders.Queries) error {
		got, err := q.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stock)
		return nil
	}))
}

func TestDecrementStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 2)

	_ = s.Do(ctx, func(q orders.Queries) error {
		_, err := q.DecrementStock(ctx, p.ID, 3)
		assert.ErrorIs(t, err, orders.ErrInsufficientStock)
		assert.Contains(t, err.Error(), "Dune")

		_, err = q.DecrementStock(ctx, 404, 1)
		assert.ErrorIs(t, err, orders.ErrNotFound)

		got, err := q.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stock)

		assert.ErrorIs(t, q.IncrementStock(ctx, 404, 1), orders.ErrNotFound)
		return nil
	})
}

func TestForeignKeys(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 2)

	_ = s.Do(ctx, func(q orders.Queries) error {
		o := orders.Order{CustomerID: 7, Status: orders.StatusPending}
		assert.ErrorIs(t, q.InsertOrder(ctx, &o), orders.ErrNotFound)

		it := orders.OrderItem{OrderID: 7, ProductID: p.ID, Quantity: 1}
		assert.ErrorIs(t, q.InsertItem(ctx, &it), orders.ErrNotFound)
		return nil
	})
}

func TestDeleteOrder_CascadesItems(t *testing.T) {
	s := New()
	s.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()
	p := seedProduct(t, s, 2)

	var orderID int64
	require.NoError(t, s.Do(ctx, func(q orders.Queries) error {
		c := orders.Customer{FullName: "Paul", Email: "paul@arrakis.test"}
		require.NoError(t, q.InsertCustomer(ctx, &c))
		o := orders.Order{CustomerID: c.ID, Status: orders.StatusPending}
		require.NoError(t, q.InsertOrder(ctx, &o))
		orderID = o.ID
		it := orders.OrderItem{OrderID: o.ID, ProductID: p.ID, Quantity: 1, Price: p.Price, Subtotal: p.Price}
		require.NoError(t, q.InsertItem(ctx, &it))
		assert.Equal(t, s.Now(), it.CreatedAt)

		got, err := q.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
		require.NotNil(t, got.Customer)
		assert.Equal(t, "Paul", got.Customer.FullName)
		return nil
	}))

	require.NoError(t, s.Do(ctx, func(q orders.Queries) error {
		require.NoError(t, q.DeleteOrder(ctx, orderID))
		items, err := q.ListItems(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
		return nil
	}))
}
