package core

import (
	"context"

	"opscore/pkg/domain"
)

// CreateProduct persists a new catalog entry.
func (s *Service) CreateProduct(ctx context.Context, product Product) (Product, Result, error) {
	var created Product
	res, err := s.run(ctx, "create_product", EntityProduct, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateProduct(product)
		return created.ID, err
	})
	return created, res, err
}

// UpdateProduct mutates a catalog entry.
func (s *Service) UpdateProduct(ctx context.Context, id string, mutator func(*Product) error) (Product, Result, error) {
	var updated Product
	res, err := s.run(ctx, "update_product", EntityProduct, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateProduct(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteProduct removes a catalog entry.
func (s *Service) DeleteProduct(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_product", EntityProduct, func(tx Tx) (string, error) {
		return id, tx.DeleteProduct(id)
	})
}

// AdjustStock changes a product's stock level by delta. The non-negative rule
// blocks the commit if the result would go below zero.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (Product, Result, error) {
	return s.UpdateProduct(ctx, id, func(p *Product) error {
		p.Stock += delta
		return nil
	})
}

// GetProduct fetches a catalog entry from committed state.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	product, ok := s.store.GetProduct(id)
	if !ok {
		return Product{}, domain.NotFoundError{Entity: EntityProduct, ID: id}
	}
	return product, nil
}

// ListProducts returns all committed catalog entries.
func (s *Service) ListProducts(ctx context.Context) []Product {
	return s.store.ListProducts()
}
