package orders_test

import (
	"context"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"github.com/ariefcatur/bookstore-orders/internal/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"
)

func setupRepo(t *testing.T) *orders.Repo {
	t.Helper()
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run against a postgres container")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bookstore"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.Connect(ctx, dsn, 16)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(pool))
	// a second run finds nothing to do
	require.NoError(t, postgres.Migrate(pool))

	return &orders.Repo{DB: pool}
}

func TestRepo_OrderFlow(t *testing.T) {
	repo := setupRepo(t)
	n := &recordingNotifier{}
	svc := &orders.Service{Store: repo, Notifier: n}
	ctx := context.Background()

	book, err := svc.CreateProduct(ctx, orders.Product{
		Name: "Refactoring", Price: decimal.RequireFromString("10.00"), Stock: 5, IsActive: true,
	})
	require.NoError(t, err)
	cust, err := svc.CreateCustomer(ctx, orders.Customer{FullName: "Martin", Email: "martin@example.com"})
	require.NoError(t, err)

	o, err := svc.CreateOrder(ctx, orders.CreateOrderInput{
		CustomerID: cust.ID,
		Status:     orders.StatusPending,
		Items:      []orders.ItemInput{{ProductID: book.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "30.00", o.Total.StringFixed(2))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "30.00", o.Items[0].Subtotal.StringFixed(2))
	require.NotNil(t, o.Customer)
	assert.Equal(t, cust.Email, o.Customer.Email)
	assert.Equal(t, []int64{o.ID}, n.calls())

	p, err := svc.GetProduct(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	// two lines that only fail together roll back as one
	_, err = svc.CreateOrder(ctx, orders.CreateOrderInput{
		CustomerID: cust.ID,
		Status:     orders.StatusPending,
		Items: []orders.ItemInput{
			{ProductID: book.ID, Quantity: 2},
			{ProductID: book.ID, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, orders.ErrInsufficientStock)
	assert.Equal(t, http.StatusConflict, orders.StatusOf(err))
	p, err = svc.GetProduct(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)
	all, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	four := 4
	it, err := svc.UpdateItem(ctx, o.Items[0].ID, orders.UpdateItemInput{Quantity: &four})
	require.NoError(t, err)
	assert.Equal(t, "40.00", it.Subtotal.StringFixed(2))
	p, err = svc.GetProduct(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)

	// referenced products cannot go away
	assert.ErrorIs(t, svc.DeleteProduct(ctx, book.ID), orders.ErrInvalidInput)

	require.NoError(t, svc.RemoveItem(ctx, o.Items[0].ID))
	p, err = svc.GetProduct(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	total, err := svc.CalculateOrderTotal(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	require.NoError(t, svc.RemoveOrder(ctx, o.ID))
	_, err = svc.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, orders.ErrNotFound)

	_, err = svc.CreateOrder(ctx, orders.CreateOrderInput{CustomerID: 9999, Status: orders.StatusPending})
	assert.Equal(t, http.StatusNotFound, orders.StatusOf(err))
}

func TestRepo_ConcurrentDecrementsNeverOversell(t *testing.T) {
	repo := setupRepo(t)
	svc := &orders.Service{Store: repo}
	ctx := context.Background()

	book, err := svc.CreateProduct(ctx, orders.Product{Name: "SICP", Price: decimal.NewFromInt(40), Stock: 3})
	require.NoError(t, err)
	cust, err := svc.CreateCustomer(ctx, orders.Customer{FullName: "Gerald", Email: "gjs@example.com"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, orders.CreateOrderInput{
				CustomerID: cust.ID,
				Status:     orders.StatusAccepted,
				Items:      []orders.ItemInput{{ProductID: book.ID, Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p, err := svc.GetProduct(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, placed)
	assert.Equal(t, 0, p.Stock)
}
