package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
)

func (q *pgQueries) InsertOrder(ctx context.Context, o *Order) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO orders(customer_id, status, total) VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at`,
		o.CustomerID, string(o.Status), o.Total).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if pgCode(err) == pgForeignKeyViolation {
		return notFound("customer", o.CustomerID)
	}
	return err
}

const orderSelect = `
	SELECT o.id, o.customer_id, o.status, o.total, o.created_at, o.updated_at,
	       c.id, c.full_name, c.email, c.created_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id`

func scanOrder(row pgx.Row, o *Order) error {
	var c Customer
	var status string
	if err := row.Scan(&o.ID, &o.CustomerID, &status, &o.Total, &o.CreatedAt, &o.UpdatedAt,
		&c.ID, &c.FullName, &c.Email, &c.CreatedAt); err != nil {
		return err
	}
	o.Status = Status(status)
	o.Customer = &c
	return nil
}

func (q *pgQueries) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := scanOrder(q.db.QueryRow(ctx, orderSelect+` WHERE o.id=$1`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, notFound("order", id)
	}
	if err != nil {
		return Order{}, err
	}
	if o.Items, err = q.ListItemsByOrder(ctx, id); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (q *pgQueries) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, orderSelect+` ORDER BY o.id`)
	if err != nil {
		return nil, err
	}
	out := []Order{}
	byID := map[int64]int{}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, err
		}
		o.Items = []OrderItem{}
		byID[o.ID] = len(out)
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := q.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if i, ok := byID[it.OrderID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, nil
}

func (q *pgQueries) UpdateOrder(ctx context.Context, o *Order) error {
	err := q.db.QueryRow(ctx, `
		UPDATE orders SET customer_id=$2, status=$3, total=$4, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		o.ID, o.CustomerID, string(o.Status), o.Total).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("order", o.ID)
	}
	if pgCode(err) == pgForeignKeyViolation {
		return notFound("customer", o.CustomerID)
	}
	return err
}

func (q *pgQueries) DeleteOrder(ctx context.Context, id int64) error {
	ct, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return notFound("order", id)
	}
	return nil
}

const itemCols = `id, order_id, product_id, quantity, price, subtotal, created_at, updated_at`

func scanItem(row pgx.Row, it *OrderItem) error {
	return row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Subtotal,
		&it.CreatedAt, &it.UpdatedAt)
}

func (q *pgQueries) InsertItem(ctx context.Context, it *OrderItem) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items(order_id, product_id, quantity, price, subtotal)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		it.OrderID, it.ProductID, it.Quantity, it.Price, it.Subtotal).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if pgCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("order %d or product %d %w", it.OrderID, it.ProductID, ErrNotFound)
	}
	return err
}

func (q *pgQueries) GetItem(ctx context.Context, id int64) (OrderItem, error) {
	var it OrderItem
	err := scanItem(q.db.QueryRow(ctx, `SELECT `+itemCols+` FROM order_items WHERE id=$1`, id), &it)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderItem{}, notFound("order item", id)
	}
	return it, err
}

func (q *pgQueries) listItems(ctx context.Context, where string, args ...any) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `SELECT `+itemCols+` FROM order_items `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (q *pgQueries) ListItems(ctx context.Context) ([]OrderItem, error) {
	return q.listItems(ctx, "")
}

func (q *pgQueries) ListItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error) {
	return q.listItems(ctx, "WHERE order_id=$1", orderID)
}

func (q *pgQueries) UpdateItem(ctx context.Context, it *OrderItem) error {
	err := q.db.QueryRow(ctx, `
		UPDATE order_items SET quantity=$2, subtotal=$3, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		it.ID, it.Quantity, it.Subtotal).Scan(&it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("order item", it.ID)
	}
	return err
}

func (q *pgQueries) DeleteItem(ctx context.Context, id int64) error {
	ct, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return notFound("order item", id)
	}
	return nil
}
