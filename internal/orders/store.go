package orders

import "context"

// Queries is the storage surface used by the order flow. Implementations
// return errors wrapping ErrNotFound for missing rows.
type Queries interface {
	InsertProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// DecrementStock takes qty units off the product in one conditional
	// step and returns the product as it is afterwards. It fails with
	// ErrInsufficientStock, leaving stock untouched, when stock < qty.
	DecrementStock(ctx context.Context, productID int64, qty int) (Product, error)
	IncrementStock(ctx context.Context, productID int64, qty int) error

	InsertCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id int64) (Customer, error)

	InsertOrder(ctx context.Context, o *Order) error
	// GetOrder loads the order with its items and customer.
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrder(ctx context.Context, o *Order) error
	// DeleteOrder removes the order; its items go with it.
	DeleteOrder(ctx context.Context, id int64) error

	InsertItem(ctx context.Context, it *OrderItem) error
	GetItem(ctx context.Context, id int64) (OrderItem, error)
	ListItems(ctx context.Context) ([]OrderItem, error)
	ListItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error)
	// UpdateItem stores the item's quantity and subtotal.
	UpdateItem(ctx context.Context, it *OrderItem) error
	DeleteItem(ctx context.Context, id int64) error
}

// Store hands out Queries either directly or bound to a transaction.
type Store interface {
	Do(ctx context.Context, fn func(q Queries) error) error
	// InTx runs fn in a single transaction: if fn fails, none of its
	// writes are kept.
	InTx(ctx context.Context, fn func(q Queries) error) error
}
