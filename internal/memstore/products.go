package memstore

import (
	"context"
	"fmt"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
)

func (q *queries) InsertProduct(ctx context.Context, p *orders.Product) error {
	p.ID = q.st.nextID()
	p.CreatedAt = q.now()
	p.UpdatedAt = p.CreatedAt
	q.st.products[p.ID] = *p
	return nil
}

func (q *queries) GetProduct(ctx context.Context, id int64) (orders.Product, error) {
	p, ok := q.st.products[id]
	if !ok {
		return orders.Product{}, notFound("product", id)
	}
	return p, nil
}

func (q *queries) ListProducts(ctx context.Context) ([]orders.Product, error) {
	out := make([]orders.Product, 0, len(q.st.products))
	for _, id := range sortedKeys(q.st.products) {
		out = append(out, q.st.products[id])
	}
	return out, nil
}

func (q *queries) UpdateProduct(ctx context.Context, p *orders.Product) error {
	cur, ok := q.st.products[p.ID]
	if !ok {
		return notFound("product", p.ID)
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = q.now()
	q.st.products[p.ID] = *p
	return nil
}

func (q *queries) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := q.st.products[id]; !ok {
		return notFound("product", id)
	}
	for _, it := range q.st.items {
		if it.ProductID == id {
			return fmt.Errorf("%w: product %d is referenced by order items", orders.ErrInvalidInput, id)
		}
	}
	delete(q.st.products, id)
	return nil
}

func (q *queries) DecrementStock(ctx context.Context, productID int64, qty int) (orders.Product, error) {
	p, ok := q.st.products[productID]
	if !ok {
		return orders.Product{}, notFound("product", productID)
	}
	if p.Stock < qty {
		return orders.Product{}, &orders.StockError{Product: p.Name}
	}
	p.Stock -= qty
	p.UpdatedAt = q.now()
	q.st.products[productID] = p
	return p, nil
}

func (q *queries) IncrementStock(ctx context.Context, productID int64, qty int) error {
	p, ok := q.st.products[productID]
	if !ok {
		return notFound("product", productID)
	}
	p.Stock += qty
	p.UpdatedAt = q.now()
	q.st.products[productID] = p
	return nil
}

func (q *queries) InsertCustomer(ctx context.Context, c *orders.Customer) error {
	for _, other := range q.st.customers {
		if other.Email == c.Email {
			return fmt.Errorf("%w: email %s already registered", orders.ErrInvalidInput, c.Email)
		}
	}
	c.ID = q.st.nextID()
	c.CreatedAt = q.now()
	q.st.customers[c.ID] = *c
	return nil
}

func (q *queries) GetCustomer(ctx context.Context, id int64) (orders.Customer, error) {
	c, ok := q.st.customers[id]
	if !ok {
		return orders.Customer{}, notFound("customer", id)
	}
	return c, nil
}
