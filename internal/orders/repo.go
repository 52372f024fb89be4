package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo is the Postgres Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) Do(ctx context.Context, fn func(q Queries) error) error {
	return fn(&pgQueries{db: r.DB})
}

func (r *Repo) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgQueries{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgQueries struct{ db dbtx }

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d %w", what, id, ErrNotFound)
}

const productCols = `id, name, description, price, stock, category, image_url, is_active,
	author, publisher, isbn, weight, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.ImageURL,
		&p.IsActive, &p.Author, &p.Publisher, &p.ISBN, &p.Weight, &p.CreatedAt, &p.UpdatedAt)
}

func (q *pgQueries) InsertProduct(ctx context.Context, p *Product) error {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products(name, description, price, stock, category, image_url, is_active,
		                     author, publisher, isbn, weight)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.IsActive,
		p.Author, p.Publisher, p.ISBN, p.Weight)
	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (q *pgQueries) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := scanProduct(q.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, notFound("product", id)
	}
	return p, err
}

func (q *pgQueries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *pgQueries) UpdateProduct(ctx context.Context, p *Product) error {
	err := q.db.QueryRow(ctx, `
		UPDATE products SET name=$2, description=$3, price=$4, stock=$5, category=$6, image_url=$7,
		       is_active=$8, author=$9, publisher=$10, isbn=$11, weight=$12, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL,
		p.IsActive, p.Author, p.Publisher, p.ISBN, p.Weight).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("product", p.ID)
	}
	return err
}

func (q *pgQueries) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := q.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if pgCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("%w: product %d is referenced by order items", ErrInvalidInput, id)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return notFound("product", id)
	}
	return nil
}

func (q *pgQueries) InsertCustomer(ctx context.Context, c *Customer) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO customers(full_name, email) VALUES ($1,$2)
		RETURNING id, created_at`, c.FullName, c.Email).Scan(&c.ID, &c.CreatedAt)
	if pgCode(err) == pgUniqueViolation {
		return fmt.Errorf("%w: email %s already registered", ErrInvalidInput, c.Email)
	}
	return err
}

func (q *pgQueries) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, `SELECT id, full_name, email, created_at FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.FullName, &c.Email, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, notFound("customer", id)
	}
	return c, err
}
