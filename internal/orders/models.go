package orders

import (
	"github.com/shopspring/decimal"
	"time"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsActive    bool            `json:"is_active"`
	Author      string          `json:"author,omitempty"`
	Publisher   string          `json:"publisher,omitempty"`
	ISBN        string          `json:"isbn,omitempty"`
	Weight      decimal.Decimal `json:"weight"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Customer struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Customer   *Customer       `json:"customer,omitempty"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Items      []OrderItem     `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderItem keeps the unit price captured when the line was created; later
// price changes on the product do not touch Price or Subtotal.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ItemInput is one requested line. OrderID is ignored by CreateOrder, which
// attaches the id of the order it just created.
type ItemInput struct {
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerID int64       `json:"customer_id"`
	Status     Status      `json:"status"`
	Items      []ItemInput `json:"items"`
}

// UpdateItemInput changes the quantity of a line; nil leaves it as it is.
type UpdateItemInput struct {
	Quantity *int `json:"quantity,omitempty"`
}

// UpdateOrderInput is a partial update: nil fields are left as they are.
type UpdateOrderInput struct {
	CustomerID *int64  `json:"customer_id,omitempty"`
	Status     *Status `json:"status,omitempty"`
}

// ProductPatch is a partial catalog update.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Category    *string          `json:"category,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Author      *string          `json:"author,omitempty"`
	Publisher   *string          `json:"publisher,omitempty"`
	ISBN        *string          `json:"isbn,omitempty"`
	Weight      *decimal.Decimal `json:"weight,omitempty"`
}

// Apply copies the fields present in p onto dst.
func (p ProductPatch) Apply(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.ImageURL != nil {
		dst.ImageURL = *p.ImageURL
	}
	if p.IsActive != nil {
		dst.IsActive = *p.IsActive
	}
	if p.Author != nil {
		dst.Author = *p.Author
	}
	if p.Publisher != nil {
		dst.Publisher = *p.Publisher
	}
	if p.ISBN != nil {
		dst.ISBN = *p.ISBN
	}
	if p.Weight != nil {
		dst.Weight = *p.Weight
	}
}
