// Package store provides the catalog storage contract and its relational implementations.
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Description is nil when the stored value is NULL.
type Product struct {
	ID            uuid.UUID
	Name          string
	Description   *string
	Price         decimal.Decimal
	DeliveryPrice decimal.Decimal
}

// Products wraps zero or more products. Items is never nil.
type Products struct {
	Items []Product
}

// ProductOption is a variant of a product, e.g. a colour.
type ProductOption struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	Name        string
	Description *string
}

// ProductOptions wraps zero or more options. Items is never nil.
type ProductOptions struct {
	Items []ProductOption
}

// CatalogStore is an interface for catalog storage operations.
// Every method acquires its own connection, performs exactly one parameterized statement
// and releases the connection before returning.
type CatalogStore interface {
	// GetAllProducts returns every product.
	// Returns an empty collection if no products exist.
	GetAllProducts(ctx context.Context) (*Products, error)

	// GetProductsByName returns the products whose name equals name exactly.
	// Returns an empty collection if none match.
	GetProductsByName(ctx context.Context, name string) (*Products, error)

	// GetProduct retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// CreateProduct stores a new product under a freshly generated identifier and returns it.
	// The ID field of product is ignored.
	CreateProduct(ctx context.Context, product Product) (uuid.UUID, error)

	// UpdateProduct replaces every field but the ID of the product with the given ID.
	// Updating an unknown ID succeeds without effect.
	UpdateProduct(ctx context.Context, product Product, id uuid.UUID) error

	// DeleteProduct removes a product and, through the schema, its options.
	// Deleting an unknown ID succeeds without effect.
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// GetProductOptions returns the options of a product.
	// Returns an empty collection if the product has no options or does not exist.
	GetProductOptions(ctx context.Context, productID uuid.UUID) (*ProductOptions, error)

	// GetProductOption retrieves one option of a product.
	// Returns ErrProductOptionNotFound if there is no such option under productID.
	GetProductOption(ctx context.Context, productID, optionID uuid.UUID) (*ProductOption, error)

	// AddProductOption stores a new option under productID and returns its identifier.
	// Fails if the product does not exist.
	AddProductOption(ctx context.Context, productID uuid.UUID, option ProductOption) (uuid.UUID, error)

	// UpdateProductOption replaces the name and description of an option.
	// Updating an unknown option succeeds without effect.
	UpdateProductOption(ctx context.Context, productID, optionID uuid.UUID, option ProductOption) error

	// DeleteProductOption removes an option.
	// Deleting an unknown option succeeds without effect.
	DeleteProductOption(ctx context.Context, productID, optionID uuid.UUID) error
}
