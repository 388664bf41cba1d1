package session

import (
	"time"

	"github.com/shopspring/decimal"

	"orderbot/internal/cart"
	"orderbot/internal/model"
)

// Record is the in-progress checkout for one conversation.
type Record struct {
	Lines         []cart.Line    `json:"order_list"`
	Customer      *CustomerInfo  `json:"customer_info,omitempty"`
	Address       *model.Address `json:"shipping_address,omitempty"`
	Shipping      *ShippingInfo  `json:"shipping_info,omitempty"`
	PaymentMethod string         `json:"payment_method,omitempty"`
	Discount      *Discount      `json:"discount,omitempty"`
	PlacedOrderID int64          `json:"placed_order_id,omitempty"`
}

// CustomerInfo holds the contact details of the identified customer, copied
// from the stored customer row.
type CustomerInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ShippingInfo is the chosen shipping method. Fee is CostPerProduct times
// the cart's total quantity.
type ShippingInfo struct {
	MethodName        string          `json:"method_name"`
	CostPerProduct    decimal.Decimal `json:"cost_per_product"`
	Fee               decimal.Decimal `json:"shipping_fee"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
}

// Reprice sets Fee for a cart of qty items.
func (s *ShippingInfo) Reprice(qty int) {
	s.Fee = s.CostPerProduct.Mul(decimal.NewFromInt(int64(qty)))
}

// Discount is a flat amount computed when the coupon was applied.
type Discount struct {
	PromoCode string          `json:"promo_code"`
	Amount    decimal.Decimal `json:"discount_amount"`
}

// Stage is the checkout progress derived from which fields are set.
type Stage string

const (
	StageEmpty       Stage = "empty"
	StageCartOnly    Stage = "cart_only"
	StageIdentified  Stage = "identified"
	StageAddressSet  Stage = "address_set"
	StageShippingSet Stage = "shipping_set"
	StagePaymentSet  Stage = "payment_set"
	StagePlaced      Stage = "placed"
)

// Stage returns the furthest checkout stage the record has reached.
// Handlers check the specific fields they need; Stage is for logging and
// introspection.
func (r *Record) Stage() Stage {
	switch {
	case r == nil:
		return StageEmpty
	case r.PlacedOrderID != 0:
		return StagePlaced
	case r.PaymentMethod != "":
		return StagePaymentSet
	case r.Shipping != nil:
		return StageShippingSet
	case r.Address != nil:
		return StageAddressSet
	case r.Customer != nil:
		return StageIdentified
	case len(r.Lines) > 0:
		return StageCartOnly
	default:
		return StageEmpty
	}
}

// HasCart reports whether the record holds at least one cart line.
func (r *Record) HasCart() bool {
	return r != nil && len(r.Lines) > 0
}

// MissingForPlacement lists the prerequisites for placing an order that are
// not set yet. An empty result means the order can be placed.
func (r *Record) MissingForPlacement() []string {
	var missing []string
	if !r.HasCart() {
		missing = append(missing, "order list")
	}
	if r == nil || r.Customer == nil {
		missing = append(missing, "customer info")
	}
	if r == nil || r.Address == nil {
		missing = append(missing, "shipping address")
	}
	if r == nil || r.Shipping == nil {
		missing = append(missing, "shipping method")
	}
	if r == nil || r.PaymentMethod == "" {
		missing = append(missing, "payment method")
	}
	return missing
}

// SetLines stores a new cart. A changed cart drops the discount and
// reprices shipping for the new total quantity.
func (r *Record) SetLines(lines []cart.Line) {
	if !cart.Compare(r.Lines, lines).IsEmpty() {
		r.Discount = nil
	}
	r.Lines = lines
	if r.Shipping != nil {
		r.Shipping.Reprice(cart.TotalQuantity(lines))
	}
}
