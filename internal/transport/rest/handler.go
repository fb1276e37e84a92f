// Package rest exposes the catalog over HTTP. Every catalog route passes the authorization gate first.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/abgdnv/catalog/internal/auth"
	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resource classes checked by the authorization gate. The action is the HTTP method.
const (
	ClassProduct       = "Product"
	ClassProductOption = "ProductOption"
)

const (
	paramID       = "id"
	paramOptionID = "optionId"
)

// API holds the HTTP handlers for the catalog endpoints.
type API struct {
	service    service.CatalogService
	authorizer auth.Authorizer
	validate   *validator.Validate
	logger     *slog.Logger
	challenge  string
}

// NewAPI creates the catalog API. scheme and realm form the WWW-Authenticate challenge sent on denial.
func NewAPI(svc service.CatalogService, authorizer auth.Authorizer, logger *slog.Logger, scheme, realm string) *API {
	return &API{
		service:    svc,
		authorizer: authorizer,
		validate:   newValidator(),
		logger:     logger.With("component", "api"),
		challenge:  fmt.Sprintf("%s realm=%q", scheme, realm),
	}
}

// newValidator returns a validator that compares decimal.Decimal fields numerically, so tags like gte=0 apply.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Routes registers the catalog endpoints on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/healthz", a.HealthCheck)

	r.Route("/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(a.Authorize(ClassProduct))
			r.Get("/", a.FindProducts)
			r.Post("/", a.CreateProduct)
			r.Get("/{id}", a.FindProduct)
			r.Put("/{id}", a.UpdateProduct)
			r.Delete("/{id}", a.DeleteProduct)
		})

		r.Route("/{id}/options", func(r chi.Router) {
			r.Use(a.Authorize(ClassProductOption))
			r.Get("/", a.FindOptions)
			r.Post("/", a.AddOption)
			r.Get("/{optionId}", a.FindOption)
			r.Put("/{optionId}", a.UpdateOption)
			r.Delete("/{optionId}", a.DeleteOption)
		})
	})
}

// Authorize returns middleware that admits a request only when the gate grants
// the request method on resourceClass to the caller's Authorization header.
func (a *API) Authorize(resourceClass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := a.authorizer.Authorize(r.Context(), r.Header.Get("Authorization"), resourceClass, r.Method)
			if err != nil {
				a.logger.ErrorContext(r.Context(), "Authorization check failed", "class", resourceClass, "error", err)
				web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to check authorization")
				return
			}
			if !allowed {
				a.logger.WarnContext(r.Context(), "Request denied", "class", resourceClass, "method", r.Method)
				w.Header().Set("WWW-Authenticate", a.challenge)
				web.RespondError(w, a.logger, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FindProducts lists every product, or only those named exactly ?name= when the parameter is present.
func (a *API) FindProducts(w http.ResponseWriter, r *http.Request) {
	var (
		list *service.ProductList
		err  error
	)
	query := r.URL.Query()
	if query.Has("name") {
		name := query.Get("name")
		a.logger.DebugContext(r.Context(), "Received request to find products by name", "name", name)
		list, err = a.service.FindProductsByName(r.Context(), name)
	} else {
		a.logger.DebugContext(r.Context(), "Received request to find all products")
		list, err = a.service.FindAllProducts(r.Context())
	}
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if len(list.Items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list.Items))
	web.RespondJSON(w, a.logger, http.StatusOK, list)
}

// FindProduct retrieves a product by its ID.
func (a *API) FindProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, a.logger, paramID)
	if !ok {
		return
	}
	found, err := a.service.FindProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			a.logger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, a.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		a.logger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, found)
}

// CreateProduct handles the creation of a new product.
func (a *API) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductDto
	if !a.decodeAndValidate(w, r, &dto) {
		return
	}
	id, err := a.service.CreateProduct(r.Context(), dto)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	a.logger.InfoContext(r.Context(), "Product created successfully", "ID", id, "Name", dto.Name)
	respondCreated(w, a.logger, fmt.Sprintf("/products/%s", id), id)
}

// UpdateProduct replaces a product. Unknown IDs succeed without effect.
func (a *API) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, a.logger, paramID)
	if !ok {
		return
	}
	var dto service.ProductDto
	if !a.decodeAndValidate(w, r, &dto) {
		return
	}
	if err := a.service.UpdateProduct(r.Context(), id, dto); err != nil {
		a.logger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %s", id))
		return
	}
	a.logger.InfoContext(r.Context(), "Product updated", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProduct deletes a product and its options.
func (a *API) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, a.logger, paramID)
	if !ok {
		return
	}
	if err := a.service.DeleteProduct(r.Context(), id); err != nil {
		a.logger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %s", id))
		return
	}
	a.logger.InfoContext(r.Context(), "Product deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// FindOptions lists the options of a product.
func (a *API) FindOptions(w http.ResponseWriter, r *http.Request) {
	productID, ok := web.ParseID(w, r, a.logger, paramID)
	if !ok {
		return
	}
	list, err := a.service.FindOptions(r.Context(), productID)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error retrieving options", "ProductID", productID, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to fetch product options")
		return
	}
	if len(list.Items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, list)
}

// FindOption retrieves one option of a product.
func (a *API) FindOption(w http.ResponseWriter, r *http.Request) {
	productID, optionID, ok := a.parseOptionPath(w, r)
	if !ok {
		return
	}
	found, err := a.service.FindOption(r.Context(), productID, optionID)
	if err != nil {
		if errors.Is(err, perrors.ErrProductOptionNotFound) {
			a.logger.WarnContext(r.Context(), "Product option not found", "ProductID", productID, "ID", optionID)
			web.RespondError(w, a.logger, http.StatusNotFound, fmt.Sprintf("Option with ID %s not found", optionID))
			return
		}
		a.logger.ErrorContext(r.Context(), "Error retrieving option", "ProductID", productID, "ID", optionID, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve option with ID %s", optionID))
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, found)
}

// AddOption creates an option under an existing product.
func (a *API) AddOption(w http.ResponseWriter, r *http.Request) {
	productID, ok := web.ParseID(w, r, a.logger, paramID)
	if !ok {
		return
	}
	var dto service.OptionDto
	if !a.decodeAndValidate(w, r, &dto) {
		return
	}
	id, err := a.service.AddOption(r.Context(), productID, dto)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error adding option", "ProductID", productID, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to add product option")
		return
	}
	a.logger.InfoContext(r.Context(), "Product option created", "ProductID", productID, "ID", id)
	respondCreated(w, a.logger, fmt.Sprintf("/products/%s/options/%s", productID, id), id)
}

// UpdateOption replaces an option. Unknown options succeed without effect.
func (a *API) UpdateOption(w http.ResponseWriter, r *http.Request) {
	productID, optionID, ok := a.parseOptionPath(w, r)
	if !ok {
		return
	}
	var dto service.OptionDto
	if !a.decodeAndValidate(w, r, &dto) {
		return
	}
	if err := a.service.UpdateOption(r.Context(), productID, optionID, dto); err != nil {
		a.logger.ErrorContext(r.Context(), "Error updating option", "ProductID", productID, "ID", optionID, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to update option with ID %s", optionID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteOption deletes an option.
func (a *API) DeleteOption(w http.ResponseWriter, r *http.Request) {
	productID, optionID, ok := a.parseOptionPath(w, r)
	if !ok {
		return
	}
	if err := a.service.DeleteOption(r.Context(), productID, optionID); err != nil {
		a.logger.ErrorContext(r.Context(), "Error deleting option", "ProductID", productID, "ID", optionID, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete option with ID %s", optionID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (a *API) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (a *API) parseOptionPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	productID, ok := web.ParseID(w, r, a.logger, paramID)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	optionID, ok := web.ParseID(w, r, a.logger, paramOptionID)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return productID, optionID, true
}

// decodeAndValidate reads the JSON body into dst and runs struct validation.
// On failure it writes a 400 response and returns false.
func (a *API) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			a.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, a.logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		a.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func respondCreated(w http.ResponseWriter, logger *slog.Logger, location string, id uuid.UUID) {
	w.Header().Set("Location", location)
	web.RespondJSON(w, logger, http.StatusCreated, map[string]uuid.UUID{"id": id})
}
