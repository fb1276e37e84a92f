package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Statements calling the stored functions installed by migrations/postgres.
const (
	pgProductGetAll    = `SELECT id, name, description, price, delivery_price FROM product_get_by_name(NULL)`
	pgProductGetByName = `SELECT id, name, description, price, delivery_price FROM product_get_by_name($1)`
	pgProductGetByID   = `SELECT name, description, price, delivery_price FROM product_get_by_id($1)`
	pgProductPut       = `SELECT product_put($1, $2, $3, $4, $5)`
	pgProductDelete    = `SELECT product_delete($1)`
	pgOptionGetAll     = `SELECT id, name, description FROM product_option_get($1, NULL)`
	pgOptionGet        = `SELECT id, name, description FROM product_option_get($1, $2)`
	pgOptionPut        = `SELECT product_option_put($1, $2, $3, $4)`
	pgOptionDelete     = `SELECT product_option_delete($1, $2)`
)

// pgNilID is bound as NULL so that the put functions insert instead of update.
var pgNilID *uuid.UUID

// PgStore implements CatalogStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of CatalogStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// withConn acquires a pooled connection for the exclusive use of fn and releases it on every path.
func (p *PgStore) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := p.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

func (p *PgStore) queryProducts(ctx context.Context, sql string, args ...any) (*Products, error) {
	var products *Products
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		products, err = collectProducts(rows)
		return err
	})
	return products, err
}

// GetAllProducts retrieves every product.
func (p *PgStore) GetAllProducts(ctx context.Context) (*Products, error) {
	products, err := p.queryProducts(ctx, pgProductGetAll)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// GetProductsByName retrieves products with exactly the given name.
func (p *PgStore) GetProductsByName(ctx context.Context, name string) (*Products, error) {
	products, err := p.queryProducts(ctx, pgProductGetByName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var product Product
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		product, err = scanProductByID(conn.QueryRow(ctx, pgProductGetByID, id), id)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// CreateProduct inserts a new product; the database generates its identifier.
func (p *PgStore) CreateProduct(ctx context.Context, product Product) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, pgProductPut,
			pgNilID, product.Name, product.Description, product.Price, product.DeliveryPrice,
		).Scan(&id)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create product: %w", err)
	}
	return id, nil
}

// UpdateProduct replaces the product with the given ID. Unknown IDs are a no-op.
func (p *PgStore) UpdateProduct(ctx context.Context, product Product, id uuid.UUID) error {
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, pgProductPut,
			id, product.Name, product.Description, product.Price, product.DeliveryPrice)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteProduct removes the product with the given ID. Unknown IDs are a no-op.
func (p *PgStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, pgProductDelete, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// GetProductOptions retrieves all options of a product.
func (p *PgStore) GetProductOptions(ctx context.Context, productID uuid.UUID) (*ProductOptions, error) {
	var options *ProductOptions
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, pgOptionGetAll, productID)
		if err != nil {
			return err
		}
		defer rows.Close()
		options, err = collectOptions(rows, productID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find product options: %w", err)
	}
	return options, nil
}

// GetProductOption retrieves a single option of a product.
// Returns ErrProductOptionNotFound if there is no such option.
func (p *PgStore) GetProductOption(ctx context.Context, productID, optionID uuid.UUID) (*ProductOption, error) {
	var option ProductOption
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		option, err = scanOption(conn.QueryRow(ctx, pgOptionGet, productID, optionID), productID)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductOptionNotFound
		}
		return nil, fmt.Errorf("failed to find product option: %w", err)
	}
	return &option, nil
}

// AddProductOption inserts a new option under productID.
func (p *PgStore) AddProductOption(ctx context.Context, productID uuid.UUID, option ProductOption) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, pgOptionPut, pgNilID, productID, option.Name, option.Description).Scan(&id)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to add product option: %w", err)
	}
	return id, nil
}

// UpdateProductOption replaces an option's fields. Unknown options are a no-op.
func (p *PgStore) UpdateProductOption(ctx context.Context, productID, optionID uuid.UUID, option ProductOption) error {
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, pgOptionPut, optionID, productID, option.Name, option.Description)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update product option: %w", err)
	}
	return nil
}

// DeleteProductOption removes an option. Unknown options are a no-op.
func (p *PgStore) DeleteProductOption(ctx context.Context, productID, optionID uuid.UUID) error {
	err := p.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, pgOptionDelete, optionID, productID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete product option: %w", err)
	}
	return nil
}
