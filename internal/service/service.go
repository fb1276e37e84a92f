// Package service maps catalog store entities to the wire representation used by the REST API.
package service

import (
	"context"
	"fmt"

	"github.com/abgdnv/catalog/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService defines the operations exposed over HTTP.
// Not-found results surface as ErrProductNotFound / ErrProductOptionNotFound.
type CatalogService interface {
	// FindAllProducts returns every product. The list is empty, never nil, when there are none.
	FindAllProducts(ctx context.Context) (*ProductList, error)

	// FindProductsByName returns the products whose name is exactly name.
	FindProductsByName(ctx context.Context, name string) (*ProductList, error)

	// FindProduct retrieves a single product.
	FindProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// CreateProduct stores a new product and returns its generated ID.
	CreateProduct(ctx context.Context, product ProductDto) (uuid.UUID, error)

	// UpdateProduct replaces the product with the given ID. Unknown IDs are not an error.
	UpdateProduct(ctx context.Context, id uuid.UUID, product ProductDto) error

	// DeleteProduct removes a product and its options. Unknown IDs are not an error.
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// FindOptions returns the options of a product.
	FindOptions(ctx context.Context, productID uuid.UUID) (*OptionList, error)

	// FindOption retrieves a single option of a product.
	FindOption(ctx context.Context, productID, id uuid.UUID) (*OptionDto, error)

	// AddOption stores a new option under productID and returns its generated ID.
	AddOption(ctx context.Context, productID uuid.UUID, option OptionDto) (uuid.UUID, error)

	// UpdateOption replaces an option. Unknown options are not an error.
	UpdateOption(ctx context.Context, productID, id uuid.UUID, option OptionDto) error

	// DeleteOption removes an option. Unknown options are not an error.
	DeleteOption(ctx context.Context, productID, id uuid.UUID) error
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name" validate:"required,max=100"`
	Description   *string         `json:"description" validate:"omitempty,max=500"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	DeliveryPrice decimal.Decimal `json:"deliveryPrice" validate:"gte=0"`
}

// ProductList is the collection shape returned by the product listing endpoints.
type ProductList struct {
	Items []ProductDto `json:"items"`
}

// OptionDto represents the data transfer object for a product option.
type OptionDto struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"productId"`
	Name        string    `json:"name" validate:"required,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
}

// OptionList is the collection shape returned by the option listing endpoint.
type OptionList struct {
	Items []OptionDto `json:"items"`
}

type service struct {
	store store.CatalogStore
}

// NewService creates a new instance of CatalogService over the given store.
func NewService(s store.CatalogStore) CatalogService {
	return &service{store: s}
}

func (s *service) FindAllProducts(ctx context.Context) (*ProductList, error) {
	products, err := s.store.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toProductList(products), nil
}

func (s *service) FindProductsByName(ctx context.Context, name string) (*ProductList, error) {
	products, err := s.store.GetProductsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by name: %w", err)
	}
	return toProductList(products), nil
}

func (s *service) FindProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	dto := toProductDto(*product)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, product ProductDto) (uuid.UUID, error) {
	id, err := s.store.CreateProduct(ctx, fromProductDto(product))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create product: %w", err)
	}
	return id, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, product ProductDto) error {
	if err := s.store.UpdateProduct(ctx, fromProductDto(product), id); err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

func (s *service) FindOptions(ctx context.Context, productID uuid.UUID) (*OptionList, error) {
	options, err := s.store.GetProductOptions(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch options of product %s: %w", productID, err)
	}
	list := &OptionList{Items: make([]OptionDto, len(options.Items))}
	for i, o := range options.Items {
		list.Items[i] = toOptionDto(o)
	}
	return list, nil
}

func (s *service) FindOption(ctx context.Context, productID, id uuid.UUID) (*OptionDto, error) {
	option, err := s.store.GetProductOption(ctx, productID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option %s of product %s: %w", id, productID, err)
	}
	dto := toOptionDto(*option)
	return &dto, nil
}

func (s *service) AddOption(ctx context.Context, productID uuid.UUID, option OptionDto) (uuid.UUID, error) {
	id, err := s.store.AddProductOption(ctx, productID, fromOptionDto(option))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to add option to product %s: %w", productID, err)
	}
	return id, nil
}

func (s *service) UpdateOption(ctx context.Context, productID, id uuid.UUID, option OptionDto) error {
	if err := s.store.UpdateProductOption(ctx, productID, id, fromOptionDto(option)); err != nil {
		return fmt.Errorf("failed to update option %s of product %s: %w", id, productID, err)
	}
	return nil
}

func (s *service) DeleteOption(ctx context.Context, productID, id uuid.UUID) error {
	if err := s.store.DeleteProductOption(ctx, productID, id); err != nil {
		return fmt.Errorf("failed to delete option %s of product %s: %w", id, productID, err)
	}
	return nil
}

func toProductList(products *store.Products) *ProductList {
	list := &ProductList{Items: make([]ProductDto, len(products.Items))}
	for i, p := range products.Items {
		list.Items[i] = toProductDto(p)
	}
	return list
}

func toProductDto(p store.Product) ProductDto {
	return ProductDto{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		DeliveryPrice: p.DeliveryPrice,
	}
}

func fromProductDto(dto ProductDto) store.Product {
	return store.Product{
		Name:          dto.Name,
		Description:   dto.Description,
		Price:         dto.Price,
		DeliveryPrice: dto.DeliveryPrice,
	}
}

func toOptionDto(o store.ProductOption) OptionDto {
	return OptionDto{
		ID:          o.ID,
		ProductID:   o.ProductID,
		Name:        o.Name,
		Description: o.Description,
	}
}

func fromOptionDto(dto OptionDto) store.ProductOption {
	return store.ProductOption{
		Name:        dto.Name,
		Description: dto.Description,
	}
}
