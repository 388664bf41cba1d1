package store

import (
	"context"

	"github.com/shopspring/decimal"

	"orderbot/internal/model"
)

// Mock implements Store for testing.
// Each method can be configured via function fields; unconfigured lookups
// return no rows and unconfigured writes fail.
type Mock struct {
	ProductsByNameFunc     func(ctx context.Context, name string) ([]model.Product, error)
	ProductByIDFunc        func(ctx context.Context, id int64) (*model.Product, error)
	ProductsByBrandFunc    func(ctx context.Context, brand string) ([]model.Product, error)
	ProductsByPriceFunc    func(ctx context.Context, brand string, minPrice, maxPrice decimal.Decimal) ([]model.Product, error)
	CheapestProductFunc    func(ctx context.Context) (*model.Product, error)
	SearchProductsFunc     func(ctx context.Context, filter model.ProductFilter) ([]model.ProductSummary, error)
	ActivePromotionsFunc   func(ctx context.Context, subtotal decimal.Decimal) ([]model.Promotion, error)
	PromotionByCodeFunc    func(ctx context.Context, code string) (*model.Promotion, error)
	CustomerByContactFunc  func(ctx context.Context, email, phone string) (*model.Customer, error)
	CustomerByIDFunc       func(ctx context.Context, id int64) (*model.Customer, error)
	DefaultAddressFunc     func(ctx context.Context, customerID int64) (*model.Address, error)
	SaveAddressFunc        func(ctx context.Context, customerID int64, addr model.Address) (int64, error)
	ShippingMethodsFunc    func(ctx context.Context) ([]model.ShippingMethod, error)
	PaymentMethodsFunc     func(ctx context.Context) ([]model.PaymentMethod, error)
	PlaceOrderFunc         func(ctx context.Context, order model.NewOrder) (int64, error)
	CustomerOrdersFunc     func(ctx context.Context, q model.OrderQuery) ([]model.OrderSummary, error)
	CancelOrderFunc        func(ctx context.Context, orderID, customerID int64) (bool, error)
	UpdateOrderAddressFunc func(ctx context.Context, orderID, customerID int64, addr model.Address) (bool, error)
	UnreviewedProductsFunc func(ctx context.Context, customerID int64) ([]model.UnreviewedProduct, error)
	InsertReviewFunc       func(ctx context.Context, review model.NewReview) (int64, error)
	DeleteReviewFunc       func(ctx context.Context, reviewID int64) error
	PingFunc               func(ctx context.Context) error
}

func (m *Mock) ProductsByName(ctx context.Context, name string) ([]model.Product, error) {
	if m.ProductsByNameFunc != nil {
		return m.ProductsByNameFunc(ctx, name)
	}
	return nil, nil
}

func (m *Mock) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	if m.ProductByIDFunc != nil {
		return m.ProductByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *Mock) ProductsByBrand(ctx context.Context, brand string) ([]model.Product, error) {
	if m.ProductsByBrandFunc != nil {
		return m.ProductsByBrandFunc(ctx, brand)
	}
	return nil, nil
}

func (m *Mock) ProductsByPrice(ctx context.Context, brand string, minPrice, maxPrice decimal.Decimal) ([]model.Product, error) {
	if m.ProductsByPriceFunc != nil {
		return m.ProductsByPriceFunc(ctx, brand, minPrice, maxPrice)
	}
	return nil, nil
}

func (m *Mock) CheapestProduct(ctx context.Context) (*model.Product, error) {
	if m.CheapestProductFunc != nil {
		return m.CheapestProductFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) SearchProducts(ctx context.Context, filter model.ProductFilter) ([]model.ProductSummary, error) {
	if m.SearchProductsFunc != nil {
		return m.SearchProductsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *Mock) ActivePromotions(ctx context.Context, subtotal decimal.Decimal) ([]model.Promotion, error) {
	if m.ActivePromotionsFunc != nil {
		return m.ActivePromotionsFunc(ctx, subtotal)
	}
	return nil, nil
}

func (m *Mock) PromotionByCode(ctx context.Context, code string) (*model.Promotion, error) {
	if m.PromotionByCodeFunc != nil {
		return m.PromotionByCodeFunc(ctx, code)
	}
	return nil, nil
}

func (m *Mock) CustomerByContact(ctx context.Context, email, phone string) (*model.Customer, error) {
	if m.CustomerByContactFunc != nil {
		return m.CustomerByContactFunc(ctx, email, phone)
	}
	return nil, nil
}

func (m *Mock) CustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	if m.CustomerByIDFunc != nil {
		return m.CustomerByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *Mock) DefaultAddress(ctx context.Context, customerID int64) (*model.Address, error) {
	if m.DefaultAddressFunc != nil {
		return m.DefaultAddressFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *Mock) SaveAddress(ctx context.Context, customerID int64, addr model.Address) (int64, error) {
	if m.SaveAddressFunc != nil {
		return m.SaveAddressFunc(ctx, customerID, addr)
	}
	return 0, model.NewInternalError(nil)
}

func (m *Mock) ShippingMethods(ctx context.Context) ([]model.ShippingMethod, error) {
	if m.ShippingMethodsFunc != nil {
		return m.ShippingMethodsFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) PaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	if m.PaymentMethodsFunc != nil {
		return m.PaymentMethodsFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) PlaceOrder(ctx context.Context, order model.NewOrder) (int64, error) {
	if m.PlaceOrderFunc != nil {
		return m.PlaceOrderFunc(ctx, order)
	}
	return 0, model.NewInternalError(nil)
}

func (m *Mock) CustomerOrders(ctx context.Context, q model.OrderQuery) ([]model.OrderSummary, error) {
	if m.CustomerOrdersFunc != nil {
		return m.CustomerOrdersFunc(ctx, q)
	}
	return nil, nil
}

func (m *Mock) CancelOrder(ctx context.Context, orderID, customerID int64) (bool, error) {
	if m.CancelOrderFunc != nil {
		return m.CancelOrderFunc(ctx, orderID, customerID)
	}
	return false, nil
}

func (m *Mock) UpdateOrderAddress(ctx context.Context, orderID, customerID int64, addr model.Address) (bool, error) {
	if m.UpdateOrderAddressFunc != nil {
		return m.UpdateOrderAddressFunc(ctx, orderID, customerID, addr)
	}
	return false, nil
}

func (m *Mock) UnreviewedProducts(ctx context.Context, customerID int64) ([]model.UnreviewedProduct, error) {
	if m.UnreviewedProductsFunc != nil {
		return m.UnreviewedProductsFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *Mock) InsertReview(ctx context.Context, review model.NewReview) (int64, error) {
	if m.InsertReviewFunc != nil {
		return m.InsertReviewFunc(ctx, review)
	}
	return 0, model.NewInternalError(nil)
}

func (m *Mock) DeleteReview(ctx context.Context, reviewID int64) error {
	if m.DeleteReviewFunc != nil {
		return m.DeleteReviewFunc(ctx, reviewID)
	}
	return nil
}

func (m *Mock) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

var _ Store = (*Mock)(nil)
