package store

import (
	"fmt"

	"github.com/google/uuid"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// rowIterator is the iteration subset shared by pgx.Rows and *sql.Rows.
type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
}

// scanProduct reads columns in the order: id, name, description, price, delivery_price.
func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DeliveryPrice)
	return p, err
}

// scanProductByID reads columns in the order: name, description, price, delivery_price.
func scanProductByID(row rowScanner, id uuid.UUID) (Product, error) {
	p := Product{ID: id}
	err := row.Scan(&p.Name, &p.Description, &p.Price, &p.DeliveryPrice)
	return p, err
}

// scanOption reads columns in the order: id, name, description.
func scanOption(row rowScanner, productID uuid.UUID) (ProductOption, error) {
	o := ProductOption{ProductID: productID}
	err := row.Scan(&o.ID, &o.Name, &o.Description)
	return o, err
}

func collectProducts(rows rowIterator) (*Products, error) {
	products := &Products{Items: []Product{}}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products.Items = append(products.Items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}
	return products, nil
}

func collectOptions(rows rowIterator, productID uuid.UUID) (*ProductOptions, error) {
	options := &ProductOptions{Items: []ProductOption{}}
	for rows.Next() {
		o, err := scanOption(rows, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product option row: %w", err)
		}
		options.Items = append(options.Items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product option rows: %w", err)
	}
	return options, nil
}
