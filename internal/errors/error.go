// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrProductOptionNotFound = errors.New("product option not found")
)
