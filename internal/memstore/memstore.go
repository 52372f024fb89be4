// Package memstore keeps the order book in process memory. It backs
// STORE_DRIVER=memory and the unit tests.
package memstore

import (
	"context"
	"fmt"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"sort"
	"sync"
	"time"
)

type state struct {
	products  map[int64]orders.Product
	customers map[int64]orders.Customer
	orders    map[int64]orders.Order
	items     map[int64]orders.OrderItem
	seq       int64
}

func newState() *state {
	return &state{
		products:  make(map[int64]orders.Product),
		customers: make(map[int64]orders.Customer),
		orders:    make(map[int64]orders.Order),
		items:     make(map[int64]orders.OrderItem),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	c.seq = s.seq
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store implements orders.Store. Callbacks run under one lock, so fn must
// not call back into the Store.
type Store struct {
	mu  sync.Mutex
	st  *state
	Now func() time.Time
}

var _ orders.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), Now: time.Now}
}

func (s *Store) Do(ctx context.Context, fn func(q orders.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&queries{st: s.st, now: s.now})
}

// InTx runs fn against a copy of the data and keeps the copy only if fn
// succeeds.
func (s *Store) InTx(ctx context.Context, fn func(q orders.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&queries{st: work, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type queries struct {
	st  *state
	now func() time.Time
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d %w", what, id, orders.ErrNotFound)
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
