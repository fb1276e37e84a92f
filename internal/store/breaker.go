package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker/v2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type breakerStore struct {
	next CatalogStore
	cb   *gobreaker.CircuitBreaker[any]
}

// WithCircuitBreaker wraps next in a circuit breaker that fails fast with gobreaker.ErrOpenState
// once the database keeps failing. Errors the request itself caused, such as not-found results
// or constraint violations, do not count as failures.
// A disabled configuration returns next unchanged.
func WithCircuitBreaker(next CatalogStore, cfg config.CircuitBreakerConfig, logger *slog.Logger) CatalogStore {
	if !cfg.Enabled() {
		return next
	}
	return &breakerStore{next: next, cb: newBreaker(cfg, logger)}
}

func newBreaker(cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	st := gobreaker.Settings{
		Name:        "catalog-store",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: readyToTrip(cfg),
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isHealthy,
	}
	return gobreaker.NewCircuitBreaker[any](st)
}

// readyToTrip opens on a run of ConsecutiveFailures, or once at least that many requests
// were seen and the failure share exceeds ErrorRatePercent.
func readyToTrip(cfg config.CircuitBreakerConfig) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
			(counts.Requests >= cfg.ConsecutiveFailures &&
				float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
	}
}

// isHealthy reports whether err says nothing about database health.
func isHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, perrors.ErrProductNotFound) ||
		errors.Is(err, perrors.ErrProductOptionNotFound) ||
		errors.Is(err, context.Canceled) ||
		isConstraintViolation(err)
}

// isConstraintViolation matches integrity errors from either backend:
// SQLSTATE class 23 on PostgreSQL and SQLITE_CONSTRAINT and its extended codes on SQLite.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// guard runs fn through cb, keeping fn's typed result.
func guard[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var out T
	_, err := cb.Execute(func() (any, error) {
		v, err := fn()
		out = v
		return nil, err
	})
	return out, err
}

func (s *breakerStore) exec(fn func() error) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

func (s *breakerStore) GetAllProducts(ctx context.Context) (*Products, error) {
	return guard(s.cb, func() (*Products, error) { return s.next.GetAllProducts(ctx) })
}

func (s *breakerStore) GetProductsByName(ctx context.Context, name string) (*Products, error) {
	return guard(s.cb, func() (*Products, error) { return s.next.GetProductsByName(ctx, name) })
}

func (s *breakerStore) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return guard(s.cb, func() (*Product, error) { return s.next.GetProduct(ctx, id) })
}

func (s *breakerStore) CreateProduct(ctx context.Context, product Product) (uuid.UUID, error) {
	return guard(s.cb, func() (uuid.UUID, error) { return s.next.CreateProduct(ctx, product) })
}

func (s *breakerStore) UpdateProduct(ctx context.Context, product Product, id uuid.UUID) error {
	return s.exec(func() error { return s.next.UpdateProduct(ctx, product, id) })
}

func (s *breakerStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.exec(func() error { return s.next.DeleteProduct(ctx, id) })
}

func (s *breakerStore) GetProductOptions(ctx context.Context, productID uuid.UUID) (*ProductOptions, error) {
	return guard(s.cb, func() (*ProductOptions, error) { return s.next.GetProductOptions(ctx, productID) })
}

func (s *breakerStore) GetProductOption(ctx context.Context, productID, id uuid.UUID) (*ProductOption, error) {
	return guard(s.cb, func() (*ProductOption, error) { return s.next.GetProductOption(ctx, productID, id) })
}

func (s *breakerStore) AddProductOption(ctx context.Context, productID uuid.UUID, option ProductOption) (uuid.UUID, error) {
	return guard(s.cb, func() (uuid.UUID, error) { return s.next.AddProductOption(ctx, productID, option) })
}

func (s *breakerStore) UpdateProductOption(ctx context.Context, productID, id uuid.UUID, option ProductOption) error {
	return s.exec(func() error { return s.next.UpdateProductOption(ctx, productID, id, option) })
}

func (s *breakerStore) DeleteProductOption(ctx context.Context, productID, id uuid.UUID) error {
	return s.exec(func() error { return s.next.DeleteProductOption(ctx, productID, id) })
}
