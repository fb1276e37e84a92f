package store

import (
	"context"
	"time"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/suite"
)

// catalogStoreSuite holds the behaviour every CatalogStore implementation must share.
// Backend suites embed it, set store and reset in their setup and get every test below.
type catalogStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store CatalogStore
	reset func()
}

func (s *catalogStoreSuite) SetupTest() {
	s.reset()
}

func strPtr(v string) *string { return &v }

func widget() Product {
	return Product{
		Name:          "Widget",
		Description:   strPtr("A widget"),
		Price:         decimal.RequireFromString("12.50"),
		DeliveryPrice: decimal.RequireFromString("3.00"),
	}
}

func (s *catalogStoreSuite) assertProduct(expected Product, actual *Product) {
	s.Require().NotNil(actual)
	s.Equal(expected.Name, actual.Name)
	s.Equal(expected.Description, actual.Description)
	s.True(expected.Price.Equal(actual.Price), "price: want %s, got %s", expected.Price, actual.Price)
	s.True(expected.DeliveryPrice.Equal(actual.DeliveryPrice),
		"delivery price: want %s, got %s", expected.DeliveryPrice, actual.DeliveryPrice)
}

func (s *catalogStoreSuite) TestCreateProduct_RoundTrip() {
	// given
	p := widget()
	p.ID = uuid.New() // ignored by the store

	// when
	id, err := s.store.CreateProduct(s.ctx, p)

	// then
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, id)
	s.NotEqual(p.ID, id)
	got, err := s.store.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.assertProduct(widget(), got)
}

func (s *catalogStoreSuite) TestCreateProduct_KeepsExactDecimals() {
	testCases := []struct {
		name          string
		price         string
		deliveryPrice string
	}{
		{name: "three decimal places", price: "9.999", deliveryPrice: "0.125"},
		{name: "beyond eighteen digits", price: "12345678901234567890.5", deliveryPrice: "10000000000000000"},
		{name: "zero", price: "0", deliveryPrice: "0.00"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// given
			p := widget()
			p.Price = decimal.RequireFromString(tc.price)
			p.DeliveryPrice = decimal.RequireFromString(tc.deliveryPrice)

			// when
			id, err := s.store.CreateProduct(s.ctx, p)

			// then
			s.Require().NoError(err)
			got, err := s.store.GetProduct(s.ctx, id)
			s.Require().NoError(err)
			s.assertProduct(p, got)
		})
	}
}

func (s *catalogStoreSuite) TestCreateProduct_NilDescription() {
	// given
	p := widget()
	p.Description = nil

	// when
	id, err := s.store.CreateProduct(s.ctx, p)

	// then
	s.Require().NoError(err)
	got, err := s.store.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	s.Nil(got.Description)
}

func (s *catalogStoreSuite) TestCreateProduct_IdsAreNeverReused() {
	first, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	second, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	s.NotEqual(first, second)
}

func (s *catalogStoreSuite) TestGetAllProducts() {
	// given
	empty, err := s.store.GetAllProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(empty.Items)
	s.Empty(empty.Items)

	gadget := widget()
	gadget.Name = "Gadget"
	_, err = s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	_, err = s.store.CreateProduct(s.ctx, gadget)
	s.Require().NoError(err)

	// when
	all, err := s.store.GetAllProducts(s.ctx)

	// then
	s.Require().NoError(err)
	s.Require().Len(all.Items, 2)
	s.Equal("Gadget", all.Items[0].Name)
	s.Equal("Widget", all.Items[1].Name)
}

func (s *catalogStoreSuite) TestGetProductsByName_ExactMatch() {
	// given
	for _, name := range []string{"Widget", "widget", "Widget Pro"} {
		p := widget()
		p.Name = name
		_, err := s.store.CreateProduct(s.ctx, p)
		s.Require().NoError(err)
	}

	// when
	found, err := s.store.GetProductsByName(s.ctx, "Widget")

	// then
	s.Require().NoError(err)
	s.Require().Len(found.Items, 1)
	s.Equal("Widget", found.Items[0].Name)

	none, err := s.store.GetProductsByName(s.ctx, "Sprocket")
	s.Require().NoError(err)
	s.NotNil(none.Items)
	s.Empty(none.Items)
}

func (s *catalogStoreSuite) TestGetProduct_NotFound() {
	got, err := s.store.GetProduct(s.ctx, uuid.New())
	s.Nil(got)
	s.ErrorIs(err, perrors.ErrProductNotFound)
}

func (s *catalogStoreSuite) TestUpdateProduct() {
	// given
	id, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	updated := Product{
		Name:          "Widget v2",
		Description:   nil,
		Price:         decimal.RequireFromString("15"),
		DeliveryPrice: decimal.Zero,
	}

	// when
	err = s.store.UpdateProduct(s.ctx, updated, id)

	// then
	s.Require().NoError(err)
	got, err := s.store.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.assertProduct(updated, got)
}

func (s *catalogStoreSuite) TestUpdateProduct_UnknownIdIsNoOp() {
	// when
	err := s.store.UpdateProduct(s.ctx, widget(), uuid.New())

	// then
	s.Require().NoError(err)
	all, err := s.store.GetAllProducts(s.ctx)
	s.Require().NoError(err)
	s.Empty(all.Items)
}

func (s *catalogStoreSuite) TestDeleteProduct_CascadesToOptions() {
	// given
	productID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	optionID, err := s.store.AddProductOption(s.ctx, productID, ProductOption{Name: "Red"})
	s.Require().NoError(err)

	// when
	err = s.store.DeleteProduct(s.ctx, productID)

	// then
	s.Require().NoError(err)
	_, err = s.store.GetProduct(s.ctx, productID)
	s.ErrorIs(err, perrors.ErrProductNotFound)
	_, err = s.store.GetProductOption(s.ctx, productID, optionID)
	s.ErrorIs(err, perrors.ErrProductOptionNotFound)
}

func (s *catalogStoreSuite) TestDeleteProduct_UnknownIdIsNoOp() {
	s.NoError(s.store.DeleteProduct(s.ctx, uuid.New()))
}

func (s *catalogStoreSuite) TestProductOptions_WidgetRed() {
	// given
	productID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)

	// when
	optionID, err := s.store.AddProductOption(s.ctx, productID,
		ProductOption{ID: uuid.New(), Name: "Red", Description: strPtr("Bright red")})

	// then
	s.Require().NoError(err)
	options, err := s.store.GetProductOptions(s.ctx, productID)
	s.Require().NoError(err)
	s.Require().Len(options.Items, 1)
	s.Equal(optionID, options.Items[0].ID)
	s.Equal(productID, options.Items[0].ProductID)
	s.Equal("Red", options.Items[0].Name)
	s.Equal(strPtr("Bright red"), options.Items[0].Description)

	option, err := s.store.GetProductOption(s.ctx, productID, optionID)
	s.Require().NoError(err)
	s.Equal(options.Items[0], *option)
}

func (s *catalogStoreSuite) TestGetProductOptions_Empty() {
	// given
	productID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)

	for name, id := range map[string]uuid.UUID{"no options": productID, "unknown product": uuid.New()} {
		// when
		options, err := s.store.GetProductOptions(s.ctx, id)

		// then
		s.Require().NoError(err, name)
		s.NotNil(options.Items, name)
		s.Empty(options.Items, name)
	}
}

func (s *catalogStoreSuite) TestGetProductOption_ScopedToProduct() {
	// given
	productID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	otherID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	optionID, err := s.store.AddProductOption(s.ctx, productID, ProductOption{Name: "Red"})
	s.Require().NoError(err)

	// when
	got, err := s.store.GetProductOption(s.ctx, otherID, optionID)

	// then
	s.Nil(got)
	s.ErrorIs(err, perrors.ErrProductOptionNotFound)
}

func (s *catalogStoreSuite) TestAddProductOption_UnknownProductFails() {
	id, err := s.store.AddProductOption(s.ctx, uuid.New(), ProductOption{Name: "Red"})
	s.Error(err)
	s.NotErrorIs(err, perrors.ErrProductNotFound)
	s.Equal(uuid.Nil, id)
}

func (s *catalogStoreSuite) TestAddProductOption_UnknownProductIsConstraintViolation() {
	_, err := s.store.AddProductOption(s.ctx, uuid.New(), ProductOption{Name: "Red"})
	s.Require().Error(err)
	s.True(isConstraintViolation(err), "unexpected error kind: %v", err)
	s.True(isHealthy(err))
}

func (s *catalogStoreSuite) TestCircuitBreaker_StaysClosedOnRejectedOptions() {
	// given
	guarded := WithCircuitBreaker(s.store, config.CircuitBreakerConfig{
		ConsecutiveFailures: 5,
		ErrorRatePercent:    60,
		OpenTimeout:         5 * time.Second,
		HalfOpenRequests:    3,
	}, discard)
	_, err := guarded.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)

	// when
	for range 8 {
		_, err := guarded.AddProductOption(s.ctx, uuid.New(), ProductOption{Name: "Red"})
		s.Require().Error(err)
		s.Require().NotErrorIs(err, gobreaker.ErrOpenState)
	}

	// then
	products, err := guarded.GetAllProducts(s.ctx)
	s.Require().NoError(err)
	s.Len(products.Items, 1)
}

func (s *catalogStoreSuite) TestUpdateProductOption() {
	// given
	productID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	optionID, err := s.store.AddProductOption(s.ctx, productID, ProductOption{Name: "Red"})
	s.Require().NoError(err)

	// when
	err = s.store.UpdateProductOption(s.ctx, productID, optionID, ProductOption{Name: "Blue", Description: strPtr("Deep blue")})

	// then
	s.Require().NoError(err)
	got, err := s.store.GetProductOption(s.ctx, productID, optionID)
	s.Require().NoError(err)
	s.Equal("Blue", got.Name)
	s.Equal(strPtr("Deep blue"), got.Description)
}

func (s *catalogStoreSuite) TestUpdateProductOption_UnknownIsNoOp() {
	// given
	productID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)

	// when
	err = s.store.UpdateProductOption(s.ctx, productID, uuid.New(), ProductOption{Name: "Blue"})

	// then
	s.Require().NoError(err)
	options, err := s.store.GetProductOptions(s.ctx, productID)
	s.Require().NoError(err)
	s.Empty(options.Items)
}

func (s *catalogStoreSuite) TestDeleteProductOption() {
	// given
	productID, err := s.store.CreateProduct(s.ctx, widget())
	s.Require().NoError(err)
	optionID, err := s.store.AddProductOption(s.ctx, productID, ProductOption{Name: "Red"})
	s.Require().NoError(err)

	// when
	err = s.store.DeleteProductOption(s.ctx, productID, optionID)

	// then
	s.Require().NoError(err)
	_, err = s.store.GetProductOption(s.ctx, productID, optionID)
	s.ErrorIs(err, perrors.ErrProductOptionNotFound)
	// deleting again is a no-op
	s.NoError(s.store.DeleteProductOption(s.ctx, productID, optionID))
}
