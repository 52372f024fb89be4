package memstore

import (
	"context"
	"fmt"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
)

func (q *queries) InsertOrder(ctx context.Context, o *orders.Order) error {
	if _, ok := q.st.customers[o.CustomerID]; !ok {
		return notFound("customer", o.CustomerID)
	}
	o.ID = q.st.nextID()
	o.CreatedAt = q.now()
	o.UpdatedAt = o.CreatedAt
	o.Items = nil
	o.Customer = nil
	q.st.orders[o.ID] = *o
	return nil
}

// withRelations attaches the customer and items the way the SQL join does.
func (q *queries) withRelations(o orders.Order) orders.Order {
	if c, ok := q.st.customers[o.CustomerID]; ok {
		o.Customer = &c
	}
	o.Items = q.itemsOf(o.ID)
	return o
}

func (q *queries) GetOrder(ctx context.Context, id int64) (orders.Order, error) {
	o, ok := q.st.orders[id]
	if !ok {
		return orders.Order{}, notFound("order", id)
	}
	return q.withRelations(o), nil
}

func (q *queries) ListOrders(ctx context.Context) ([]orders.Order, error) {
	out := make([]orders.Order, 0, len(q.st.orders))
	for _, id := range sortedKeys(q.st.orders) {
		out = append(out, q.withRelations(q.st.orders[id]))
	}
	return out, nil
}

func (q *queries) UpdateOrder(ctx context.Context, o *orders.Order) error {
	cur, ok := q.st.orders[o.ID]
	if !ok {
		return notFound("order", o.ID)
	}
	if _, ok := q.st.customers[o.CustomerID]; !ok {
		return notFound("customer", o.CustomerID)
	}
	cur.CustomerID = o.CustomerID
	cur.Status = o.Status
	cur.Total = o.Total
	cur.UpdatedAt = q.now()
	q.st.orders[o.ID] = cur
	o.UpdatedAt = cur.UpdatedAt
	return nil
}

func (q *queries) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := q.st.orders[id]; !ok {
		return notFound("order", id)
	}
	for itemID, it := range q.st.items {
		if it.OrderID == id {
			delete(q.st.items, itemID)
		}
	}
	delete(q.st.orders, id)
	return nil
}

func (q *queries) InsertItem(ctx context.Context, it *orders.OrderItem) error {
	if _, ok := q.st.orders[it.OrderID]; !ok {
		return notFound("order", it.OrderID)
	}
	if _, ok := q.st.products[it.ProductID]; !ok {
		return notFound("product", it.ProductID)
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", orders.ErrInvalidInput)
	}
	it.ID = q.st.nextID()
	it.CreatedAt = q.now()
	it.UpdatedAt = it.CreatedAt
	q.st.items[it.ID] = *it
	return nil
}

func (q *queries) GetItem(ctx context.Context, id int64) (orders.OrderItem, error) {
	it, ok := q.st.items[id]
	if !ok {
		return orders.OrderItem{}, notFound("order item", id)
	}
	return it, nil
}

func (q *queries) ListItems(ctx context.Context) ([]orders.OrderItem, error) {
	out := make([]orders.OrderItem, 0, len(q.st.items))
	for _, id := range sortedKeys(q.st.items) {
		out = append(out, q.st.items[id])
	}
	return out, nil
}

func (q *queries) ListItemsByOrder(ctx context.Context, orderID int64) ([]orders.OrderItem, error) {
	return q.itemsOf(orderID), nil
}

func (q *queries) itemsOf(orderID int64) []orders.OrderItem {
	out := []orders.OrderItem{}
	for _, id := range sortedKeys(q.st.items) {
		if it := q.st.items[id]; it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

func (q *queries) UpdateItem(ctx context.Context, it *orders.OrderItem) error {
	cur, ok := q.st.items[it.ID]
	if !ok {
		return notFound("order item", it.ID)
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", orders.ErrInvalidInput)
	}
	cur.Quantity = it.Quantity
	cur.Subtotal = it.Subtotal
	cur.UpdatedAt = q.now()
	q.st.items[it.ID] = cur
	*it = cur
	return nil
}

func (q *queries) DeleteItem(ctx context.Context, id int64) error {
	if _, ok := q.st.items[id]; !ok {
		return notFound("order item", id)
	}
	delete(q.st.items, id)
	return nil
}
