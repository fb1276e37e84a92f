package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Observer receives the outcome of every store call.
type Observer interface {
	ObserveStoreOp(op string, elapsed time.Duration, err error)
}

type observedStore struct {
	next     CatalogStore
	observer Observer
}

// WithObserver wraps next so that each call is reported to observer.
// A nil observer returns next unchanged.
func WithObserver(next CatalogStore, observer Observer) CatalogStore {
	if observer == nil {
		return next
	}
	return &observedStore{next: next, observer: observer}
}

func (s *observedStore) observe(op string, start time.Time, err error) {
	s.observer.ObserveStoreOp(op, time.Since(start), err)
}

func (s *observedStore) GetAllProducts(ctx context.Context) (*Products, error) {
	start := time.Now()
	products, err := s.next.GetAllProducts(ctx)
	s.observe("get_all_products", start, err)
	return products, err
}

func (s *observedStore) GetProductsByName(ctx context.Context, name string) (*Products, error) {
	start := time.Now()
	products, err := s.next.GetProductsByName(ctx, name)
	s.observe("get_products_by_name", start, err)
	return products, err
}

func (s *observedStore) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	start := time.Now()
	product, err := s.next.GetProduct(ctx, id)
	s.observe("get_product", start, err)
	return product, err
}

func (s *observedStore) CreateProduct(ctx context.Context, product Product) (uuid.UUID, error) {
	start := time.Now()
	id, err := s.next.CreateProduct(ctx, product)
	s.observe("create_product", start, err)
	return id, err
}

func (s *observedStore) UpdateProduct(ctx context.Context, product Product, id uuid.UUID) error {
	start := time.Now()
	err := s.next.UpdateProduct(ctx, product, id)
	s.observe("update_product", start, err)
	return err
}

func (s *observedStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteProduct(ctx, id)
	s.observe("delete_product", start, err)
	return err
}

func (s *observedStore) GetProductOptions(ctx context.Context, productID uuid.UUID) (*ProductOptions, error) {
	start := time.Now()
	options, err := s.next.GetProductOptions(ctx, productID)
	s.observe("get_product_options", start, err)
	return options, err
}

func (s *observedStore) GetProductOption(ctx context.Context, productID, optionID uuid.UUID) (*ProductOption, error) {
	start := time.Now()
	option, err := s.next.GetProductOption(ctx, productID, optionID)
	s.observe("get_product_option", start, err)
	return option, err
}

func (s *observedStore) AddProductOption(ctx context.Context, productID uuid.UUID, option ProductOption) (uuid.UUID, error) {
	start := time.Now()
	id, err := s.next.AddProductOption(ctx, productID, option)
	s.observe("add_product_option", start, err)
	return id, err
}

func (s *observedStore) UpdateProductOption(ctx context.Context, productID, optionID uuid.UUID, option ProductOption) error {
	start := time.Now()
	err := s.next.UpdateProductOption(ctx, productID, optionID, option)
	s.observe("update_product_option", start, err)
	return err
}

func (s *observedStore) DeleteProductOption(ctx context.Context, productID, optionID uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteProductOption(ctx, productID, optionID)
	s.observe("delete_product_option", start, err)
	return err
}
