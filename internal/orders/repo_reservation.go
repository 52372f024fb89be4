package orders

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
)

// DecrementStock is a single conditional UPDATE, so two concurrent orders
// can never both take the last units.
func (q *pgQueries) DecrementStock(ctx context.Context, productID int64, qty int) (Product, error) {
	var p Product
	err := scanProduct(q.db.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING `+productCols, productID, qty), &p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Product{}, err
	}

	// zero rows: either the product is gone or there is not enough of it
	var name string
	err = q.db.QueryRow(ctx, `SELECT name FROM products WHERE id=$1`, productID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, notFound("product", productID)
	}
	if err != nil {
		return Product{}, err
	}
	return Product{}, &StockError{Product: name}
}

func (q *pgQueries) IncrementStock(ctx context.Context, productID int64, qty int) error {
	ct, err := q.db.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return notFound("product", productID)
	}
	return nil
}
