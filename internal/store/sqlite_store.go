package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/google/uuid"
)

const (
	sqliteProductGetAll    = `SELECT id, name, description, price, delivery_price FROM product ORDER BY name, id`
	sqliteProductGetByName = `SELECT id, name, description, price, delivery_price FROM product WHERE name = ? ORDER BY name, id`
	sqliteProductGetByID   = `SELECT name, description, price, delivery_price FROM product WHERE id = ?`
	sqliteProductInsert    = `INSERT INTO product (id, name, description, price, delivery_price) VALUES (?, ?, ?, ?, ?)`
	sqliteProductUpdate    = `UPDATE product SET name = ?, description = ?, price = ?, delivery_price = ? WHERE id = ?`
	sqliteProductDelete    = `DELETE FROM product WHERE id = ?`
	sqliteOptionGetAll     = `SELECT id, name, description FROM product_option WHERE product_id = ? ORDER BY name, id`
	sqliteOptionGet        = `SELECT id, name, description FROM product_option WHERE product_id = ? AND id = ?`
	sqliteOptionInsert     = `INSERT INTO product_option (id, product_id, name, description) VALUES (?, ?, ?, ?)`
	sqliteOptionUpdate     = `UPDATE product_option SET name = ?, description = ? WHERE id = ? AND product_id = ?`
	sqliteOptionDelete     = `DELETE FROM product_option WHERE id = ? AND product_id = ?`
)

// SQLiteStore implements CatalogStore on an embedded SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a CatalogStore backed by db. The database must enforce foreign keys.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()
	return fn(conn)
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) (*Products, error) {
	var products *Products
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		products, err = collectProducts(rows)
		return err
	})
	return products, err
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, query, args...)
		return err
	})
}

// GetAllProducts retrieves every product.
func (s *SQLiteStore) GetAllProducts(ctx context.Context) (*Products, error) {
	products, err := s.queryProducts(ctx, sqliteProductGetAll)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// GetProductsByName retrieves products with exactly the given name.
func (s *SQLiteStore) GetProductsByName(ctx context.Context, name string) (*Products, error) {
	products, err := s.queryProducts(ctx, sqliteProductGetByName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a product by its unique identifier.
func (s *SQLiteStore) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var product Product
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		product, err = scanProductByID(conn.QueryRowContext(ctx, sqliteProductGetByID, id), id)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// CreateProduct inserts a new product under a random identifier.
func (s *SQLiteStore) CreateProduct(ctx context.Context, product Product) (uuid.UUID, error) {
	id := uuid.New()
	err := s.exec(ctx, sqliteProductInsert, id, product.Name, product.Description, product.Price, product.DeliveryPrice)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create product: %w", err)
	}
	return id, nil
}

// UpdateProduct replaces the product with the given ID. Unknown IDs are a no-op.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, product Product, id uuid.UUID) error {
	err := s.exec(ctx, sqliteProductUpdate, product.Name, product.Description, product.Price, product.DeliveryPrice, id)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteProduct removes the product with the given ID. Options go with it via ON DELETE CASCADE.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.exec(ctx, sqliteProductDelete, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// GetProductOptions retrieves all options of a product.
func (s *SQLiteStore) GetProductOptions(ctx context.Context, productID uuid.UUID) (*ProductOptions, error) {
	var options *ProductOptions
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, sqliteOptionGetAll, productID)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		options, err = collectOptions(rows, productID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find product options: %w", err)
	}
	return options, nil
}

// GetProductOption retrieves a single option of a product.
func (s *SQLiteStore) GetProductOption(ctx context.Context, productID, optionID uuid.UUID) (*ProductOption, error) {
	var option ProductOption
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		option, err = scanOption(conn.QueryRowContext(ctx, sqliteOptionGet, productID, optionID), productID)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, perrors.ErrProductOptionNotFound
		}
		return nil, fmt.Errorf("failed to find product option: %w", err)
	}
	return &option, nil
}

// AddProductOption inserts a new option under productID.
func (s *SQLiteStore) AddProductOption(ctx context.Context, productID uuid.UUID, option ProductOption) (uuid.UUID, error) {
	id := uuid.New()
	if err := s.exec(ctx, sqliteOptionInsert, id, productID, option.Name, option.Description); err != nil {
		return uuid.Nil, fmt.Errorf("failed to add product option: %w", err)
	}
	return id, nil
}

// UpdateProductOption replaces an option's fields. Unknown options are a no-op.
func (s *SQLiteStore) UpdateProductOption(ctx context.Context, productID, optionID uuid.UUID, option ProductOption) error {
	if err := s.exec(ctx, sqliteOptionUpdate, option.Name, option.Description, optionID, productID); err != nil {
		return fmt.Errorf("failed to update product option: %w", err)
	}
	return nil
}

// DeleteProductOption removes an option. Unknown options are a no-op.
func (s *SQLiteStore) DeleteProductOption(ctx context.Context, productID, optionID uuid.UUID) error {
	if err := s.exec(ctx, sqliteOptionDelete, optionID, productID); err != nil {
		return fmt.Errorf("failed to delete product option: %w", err)
	}
	return nil
}
