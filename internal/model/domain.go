// Package model defines the catalog, customer and order types shared by the
// conversation handlers, the data access layer and the HTTP transports.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// === Catalog ===

// Product is a catalog entry joined with its brand and category.
type Product struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Specifications   string          `json:"specifications,omitempty"`
	Brand            string          `json:"brand,omitempty"`
	BrandDescription string          `json:"brand_description,omitempty"`
	OriginCountry    string          `json:"origin_country,omitempty"`
	Category         string          `json:"category,omitempty"`
	Stock            int             `json:"stock"`
}

// ProductSummary is one row of the read API product listing.
type ProductSummary struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
	Rating      *float64        `json:"rating"` // Average review rating, nil when unreviewed
}

// ProductFilter narrows SearchProducts. Zero values mean "no constraint".
type ProductFilter struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Promotion is a coupon with a percentage discount and a minimum order threshold.
type Promotion struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value"` // Percent of subtotal
	MinimumOrder  decimal.Decimal `json:"minimum_order"`
	Status        string          `json:"status"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
}

// PromotionActive is the status value of a usable promotion.
const PromotionActive = "active"

// === Customers ===

type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Address is a shipping address row.
type Address struct {
	ID            int64  `json:"id,omitempty"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
	Country       string `json:"country"`
	City          string `json:"city"`
	ProvinceState string `json:"province_state"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

// Complete reports whether every receiver and location field is non-empty.
func (a Address) Complete() bool {
	return len(a.MissingFields()) == 0
}

// MissingFields names the required address fields that are blank.
func (a Address) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"receiver name", a.ReceiverName},
		{"receiver phone", a.ReceiverPhone},
		{"country", a.Country},
		{"city", a.City},
		{"province/state", a.ProvinceState},
		{"postal code", a.PostalCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// === Checkout methods ===

type ShippingMethod struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	CostPerProduct       decimal.Decimal `json:"cost_per_product"`
	AvgDeliveryTimePerKm decimal.Decimal `json:"average_delivery_time_per_km"` // Hours
}

type PaymentMethod struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// === Orders ===

// Order statuses used by the chatbot.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	PaymentStatusPending  = "pending"
)

// OrderLine is one product and quantity in a new order.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// NewOrder carries everything PlaceOrder persists in one transaction.
type NewOrder struct {
	SessionID         string
	CustomerID        int64
	PaymentMethodID   int64
	ShippingMethodID  int64
	ShippingAddressID int64
	PromotionID       *int64
	TotalAmount       decimal.Decimal
	ShippingFee       decimal.Decimal
	Discount          decimal.Decimal
	EstimatedDelivery time.Time
	Lines             []OrderLine
}

// OrderSummary is one order with its product names aggregated.
type OrderSummary struct {
	ID            int64           `json:"id"`
	ProductNames  string          `json:"product_names"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	OrderDate     time.Time       `json:"order_date"`
}

// OrderQuery selects orders by customer id, or by a name substring when the id is zero.
type OrderQuery struct {
	CustomerID   int64
	CustomerName string
}

// === Reviews ===

// UnreviewedProduct is a delivered purchase the customer has not reviewed yet.
type UnreviewedProduct struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Brand     string          `json:"brand"`
	Category  string          `json:"category"`
}

type NewReview struct {
	CustomerID int64
	ProductID  int64
	Rating     int
	Comment    string
}
