// Package store defines catalog and order data access for the conversation
// handlers and the read API.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"orderbot/internal/model"
)

// Store abstracts the relational catalog/orders schema.
//
// Single-row lookups return (nil, nil) when nothing matches. Every method
// runs under a bounded deadline: an exceeded deadline is reported as a
// STORE_TIMEOUT *model.APIError and any other failure as PERSISTENCE_ERROR.
type Store interface {
	// ProductsByName returns products whose name matches case-insensitively.
	ProductsByName(ctx context.Context, name string) ([]model.Product, error)
	ProductByID(ctx context.Context, id int64) (*model.Product, error)
	ProductsByBrand(ctx context.Context, brand string) ([]model.Product, error)
	// ProductsByPrice returns products priced within [min, max], optionally
	// restricted to one brand when brand is non-empty.
	ProductsByPrice(ctx context.Context, brand string, minPrice, maxPrice decimal.Decimal) ([]model.Product, error)
	CheapestProduct(ctx context.Context) (*model.Product, error)
	// SearchProducts backs the read API product listing.
	SearchProducts(ctx context.Context, filter model.ProductFilter) ([]model.ProductSummary, error)

	// ActivePromotions returns active, unexpired promotions whose minimum
	// order does not exceed subtotal.
	ActivePromotions(ctx context.Context, subtotal decimal.Decimal) ([]model.Promotion, error)
	PromotionByCode(ctx context.Context, code string) (*model.Promotion, error)

	// CustomerByContact finds a customer by email OR phone.
	CustomerByContact(ctx context.Context, email, phone string) (*model.Customer, error)
	CustomerByID(ctx context.Context, id int64) (*model.Customer, error)

	DefaultAddress(ctx context.Context, customerID int64) (*model.Address, error)
	// SaveAddress inserts a shipping address and returns its id.
	SaveAddress(ctx context.Context, customerID int64, addr model.Address) (int64, error)

	ShippingMethods(ctx context.Context) ([]model.ShippingMethod, error)
	PaymentMethods(ctx context.Context) ([]model.PaymentMethod, error)

	// PlaceOrder persists the order header, stock decrements and line items
	// in one transaction and returns the new order id. On any failure nothing
	// is persisted.
	PlaceOrder(ctx context.Context, order model.NewOrder) (int64, error)
	CustomerOrders(ctx context.Context, q model.OrderQuery) ([]model.OrderSummary, error)
	// CancelOrder deletes a processing order owned by customerID. It reports
	// false when no such order exists.
	CancelOrder(ctx context.Context, orderID, customerID int64) (bool, error)
	// UpdateOrderAddress saves addr and points a processing order owned by
	// customerID at it. It reports false when no such order exists.
	UpdateOrderAddress(ctx context.Context, orderID, customerID int64, addr model.Address) (bool, error)

	// UnreviewedProducts lists delivered purchases the customer has not reviewed.
	UnreviewedProducts(ctx context.Context, customerID int64) ([]model.UnreviewedProduct, error)
	InsertReview(ctx context.Context, review model.NewReview) (int64, error)
	DeleteReview(ctx context.Context, reviewID int64) error

	Ping(ctx context.Context) error
}
