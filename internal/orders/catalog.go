package orders

import (
	"context"
	"fmt"
	"strings"
)

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	err := s.Store.Do(ctx, func(q Queries) error {
		return q.InsertProduct(ctx, &p)
	})
	return p, err
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		p, err = q.GetProduct(ctx, id)
		return err
	})
	return p, err
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		out, err = q.ListProducts(ctx)
		return err
	})
	return out, err
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	var p Product
	err := s.Store.InTx(ctx, func(q Queries) error {
		var err error
		if p, err = q.GetProduct(ctx, id); err != nil {
			return err
		}
		patch.Apply(&p)
		if err := validateProduct(p); err != nil {
			return err
		}
		return q.UpdateProduct(ctx, &p)
	})
	return p, err
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.Store.Do(ctx, func(q Queries) error {
		return q.DeleteProduct(ctx, id)
	})
}

func (s *Service) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	if strings.TrimSpace(c.FullName) == "" {
		return Customer{}, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if !strings.Contains(c.Email, "@") {
		return Customer{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	err := s.Store.Do(ctx, func(q Queries) error {
		return q.InsertCustomer(ctx, &c)
	})
	return c, err
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := s.Store.Do(ctx, func(q Queries) error {
		var err error
		c, err = q.GetCustomer(ctx, id)
		return err
	})
	return c, err
}
