package service

import (
	"context"
	"errors"
	"testing"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCatalogStore is a mock implementation of the CatalogStore interface
type mockCatalogStore struct {
	products *store.Products
	product  *store.Product
	options  *store.ProductOptions
	option   *store.ProductOption
	newID    uuid.UUID
	error    error

	// captured arguments
	gotName    string
	gotProduct store.Product
	gotOption  store.ProductOption
	gotIDs     []uuid.UUID
}

func (m *mockCatalogStore) GetAllProducts(_ context.Context) (*store.Products, error) {
	return m.products, m.error
}

func (m *mockCatalogStore) GetProductsByName(_ context.Context, name string) (*store.Products, error) {
	m.gotName = name
	return m.products, m.error
}

func (m *mockCatalogStore) GetProduct(_ context.Context, id uuid.UUID) (*store.Product, error) {
	m.gotIDs = []uuid.UUID{id}
	return m.product, m.error
}

func (m *mockCatalogStore) CreateProduct(_ context.Context, product store.Product) (uuid.UUID, error) {
	m.gotProduct = product
	return m.newID, m.error
}

func (m *mockCatalogStore) UpdateProduct(_ context.Context, product store.Product, id uuid.UUID) error {
	m.gotProduct = product
	m.gotIDs = []uuid.UUID{id}
	return m.error
}

func (m *mockCatalogStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	m.gotIDs = []uuid.UUID{id}
	return m.error
}

func (m *mockCatalogStore) GetProductOptions(_ context.Context, productID uuid.UUID) (*store.ProductOptions, error) {
	m.gotIDs = []uuid.UUID{productID}
	return m.options, m.error
}

func (m *mockCatalogStore) GetProductOption(_ context.Context, productID, optionID uuid.UUID) (*store.ProductOption, error) {
	m.gotIDs = []uuid.UUID{productID, optionID}
	return m.option, m.error
}

func (m *mockCatalogStore) AddProductOption(_ context.Context, productID uuid.UUID, option store.ProductOption) (uuid.UUID, error) {
	m.gotIDs = []uuid.UUID{productID}
	m.gotOption = option
	return m.newID, m.error
}

func (m *mockCatalogStore) UpdateProductOption(_ context.Context, productID, optionID uuid.UUID, option store.ProductOption) error {
	m.gotIDs = []uuid.UUID{productID, optionID}
	m.gotOption = option
	return m.error
}

func (m *mockCatalogStore) DeleteProductOption(_ context.Context, productID, optionID uuid.UUID) error {
	m.gotIDs = []uuid.UUID{productID, optionID}
	return m.error
}

func strPtr(v string) *string { return &v }

var (
	widgetID = uuid.MustParse("3fa85f64-5717-4562-b3fc-2c963f66afa6")
	redID    = uuid.MustParse("9b2f1b8e-2c3d-4e5f-8a9b-0c1d2e3f4a5b")
	widget   = store.Product{
		ID:            widgetID,
		Name:          "Widget",
		Description:   strPtr("A widget"),
		Price:         decimal.RequireFromString("12.50"),
		DeliveryPrice: decimal.RequireFromString("3.00"),
	}
)

func Test_CatalogService_FindAllProducts(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockCatalogStore
		expected    *ProductList
		expectError bool
	}{
		{
			name:      "Success - products found",
			mockStore: &mockCatalogStore{products: &store.Products{Items: []store.Product{widget}}},
			expected: &ProductList{Items: []ProductDto{{
				ID:            widgetID,
				Name:          "Widget",
				Description:   strPtr("A widget"),
				Price:         widget.Price,
				DeliveryPrice: widget.DeliveryPrice,
			}}},
		},
		{
			name:      "Success - empty store gives empty, non-nil list",
			mockStore: &mockCatalogStore{products: &store.Products{Items: []store.Product{}}},
			expected:  &ProductList{Items: []ProductDto{}},
		},
		{
			name:        "Error - store fault",
			mockStore:   &mockCatalogStore{error: errors.New("db down")},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			found, err := service.FindAllProducts(context.Background())
			// then
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, found.Items)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_CatalogService_FindProductsByName(t *testing.T) {
	// given
	mockStore := &mockCatalogStore{products: &store.Products{Items: []store.Product{widget}}}
	service := NewService(mockStore)
	// when
	found, err := service.FindProductsByName(context.Background(), "Widget")
	// then
	require.NoError(t, err)
	assert.Equal(t, "Widget", mockStore.gotName)
	require.Len(t, found.Items, 1)
	assert.Equal(t, widgetID, found.Items[0].ID)
}

func Test_CatalogService_FindProduct(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockCatalogStore
		expectError error
	}{
		{
			name:      "Success - product found",
			mockStore: &mockCatalogStore{product: &widget},
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockCatalogStore{error: perrors.ErrProductNotFound},
			expectError: perrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			found, err := service.FindProduct(context.Background(), widgetID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, widgetID, found.ID)
			assert.Equal(t, "Widget", found.Name)
			assert.True(t, found.Price.Equal(decimal.RequireFromString("12.5")))
		})
	}
}

func Test_CatalogService_CreateProduct(t *testing.T) {
	// given
	newID := uuid.New()
	mockStore := &mockCatalogStore{newID: newID}
	service := NewService(mockStore)
	dto := ProductDto{
		ID:            uuid.New(),
		Name:          "Widget",
		Price:         decimal.RequireFromString("1.99"),
		DeliveryPrice: decimal.Zero,
	}
	// when
	id, err := service.CreateProduct(context.Background(), dto)
	// then
	require.NoError(t, err)
	assert.Equal(t, newID, id)
	assert.Equal(t, uuid.Nil, mockStore.gotProduct.ID, "client supplied ids are not passed on")
	assert.Equal(t, "Widget", mockStore.gotProduct.Name)
	assert.Nil(t, mockStore.gotProduct.Description)
}

func Test_CatalogService_CreateProduct_Error(t *testing.T) {
	service := NewService(&mockCatalogStore{error: errors.New("constraint violation")})
	id, err := service.CreateProduct(context.Background(), ProductDto{Name: "Widget"})
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, id)
}

func Test_CatalogService_UpdateAndDeleteProduct(t *testing.T) {
	// given
	mockStore := &mockCatalogStore{}
	service := NewService(mockStore)
	// when
	err := service.UpdateProduct(context.Background(), widgetID, ProductDto{Name: "Widget v2"})
	// then
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{widgetID}, mockStore.gotIDs)
	assert.Equal(t, "Widget v2", mockStore.gotProduct.Name)

	// when
	err = service.DeleteProduct(context.Background(), widgetID)
	// then
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{widgetID}, mockStore.gotIDs)

	// store faults are wrapped, not swallowed
	fault := errors.New("db down")
	mockStore.error = fault
	assert.ErrorIs(t, service.UpdateProduct(context.Background(), widgetID, ProductDto{}), fault)
	assert.ErrorIs(t, service.DeleteProduct(context.Background(), widgetID), fault)
}

func Test_CatalogService_Options(t *testing.T) {
	red := store.ProductOption{ID: redID, ProductID: widgetID, Name: "Red"}

	t.Run("FindOptions", func(t *testing.T) {
		mockStore := &mockCatalogStore{options: &store.ProductOptions{Items: []store.ProductOption{red}}}
		list, err := NewService(mockStore).FindOptions(context.Background(), widgetID)
		require.NoError(t, err)
		assert.Equal(t, &OptionList{Items: []OptionDto{{ID: redID, ProductID: widgetID, Name: "Red"}}}, list)
	})

	t.Run("FindOptions empty", func(t *testing.T) {
		mockStore := &mockCatalogStore{options: &store.ProductOptions{Items: []store.ProductOption{}}}
		list, err := NewService(mockStore).FindOptions(context.Background(), widgetID)
		require.NoError(t, err)
		assert.NotNil(t, list.Items)
		assert.Empty(t, list.Items)
	})

	t.Run("FindOption", func(t *testing.T) {
		mockStore := &mockCatalogStore{option: &red}
		found, err := NewService(mockStore).FindOption(context.Background(), widgetID, redID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{widgetID, redID}, mockStore.gotIDs)
		assert.Equal(t, "Red", found.Name)
	})

	t.Run("FindOption not found", func(t *testing.T) {
		mockStore := &mockCatalogStore{error: perrors.ErrProductOptionNotFound}
		found, err := NewService(mockStore).FindOption(context.Background(), widgetID, redID)
		assert.ErrorIs(t, err, perrors.ErrProductOptionNotFound)
		assert.Nil(t, found)
	})

	t.Run("AddOption", func(t *testing.T) {
		mockStore := &mockCatalogStore{newID: redID}
		id, err := NewService(mockStore).AddOption(context.Background(), widgetID,
			OptionDto{ID: uuid.New(), ProductID: uuid.New(), Name: "Red", Description: strPtr("Bright")})
		require.NoError(t, err)
		assert.Equal(t, redID, id)
		assert.Equal(t, []uuid.UUID{widgetID}, mockStore.gotIDs)
		assert.Equal(t, store.ProductOption{Name: "Red", Description: strPtr("Bright")}, mockStore.gotOption)
	})

	t.Run("UpdateOption and DeleteOption", func(t *testing.T) {
		mockStore := &mockCatalogStore{}
		svc := NewService(mockStore)
		require.NoError(t, svc.UpdateOption(context.Background(), widgetID, redID, OptionDto{Name: "Blue"}))
		assert.Equal(t, "Blue", mockStore.gotOption.Name)
		assert.Equal(t, []uuid.UUID{widgetID, redID}, mockStore.gotIDs)
		require.NoError(t, svc.DeleteOption(context.Background(), widgetID, redID))
		assert.Equal(t, []uuid.UUID{widgetID, redID}, mockStore.gotIDs)
	})
}
