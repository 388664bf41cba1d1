package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderbot/internal/cart"
	"orderbot/internal/model"
	"orderbot/internal/session"
)

// estimateDelivery returns now plus hoursPerKm over the assumed distance.
func estimateDelivery(now time.Time, hoursPerKm decimal.Decimal) time.Time {
	seconds := hoursPerKm.Mul(decimal.NewFromInt(AssumedShippingDistanceKm * 3600)).Round(0).IntPart()
	return now.Add(time.Duration(seconds) * time.Second)
}

// ConfirmShippingMethod prices shipping for the cart and estimates delivery.
func (s *Service) ConfirmShippingMethod(ctx context.Context, sessionID, methodName string) model.Reply {
	methodName = strings.TrimSpace(methodName)
	if methodName == "" {
		return model.Fail(model.CodeValidation, "Please tell me which shipping method you'd like.")
	}

	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if !rec.HasCart() {
		return noSession()
	}
	if rec.Address == nil {
		return model.Fail(model.CodePrecondition, "Please confirm a shipping address before choosing a shipping method.")
	}

	methods, err := s.catalog.ShippingMethods(ctx)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load shipping methods right now. Please try again.")
	}
	var method *model.ShippingMethod
	for i := range methods {
		if strings.EqualFold(methods[i].Name, methodName) {
			method = &methods[i]
			break
		}
	}
	if method == nil {
		return model.Fail(model.CodeNotFound, fmt.Sprintf(
			"Sorry, '%s' is not an available shipping method. Please choose from: %s.", methodName, shippingNames(methods)))
	}

	info := &session.ShippingInfo{
		MethodName:        method.Name,
		CostPerProduct:    method.CostPerProduct,
		EstimatedDelivery: estimateDelivery(s.now(), method.AvgDeliveryTimePerKm),
	}
	info.Reprice(cart.TotalQuantity(rec.Lines))
	if err := s.save(ctx, sessionID, func(r *session.Record) { r.Shipping = info }); err != nil {
		return s.sessionError(err)
	}

	payments, err := s.catalog.PaymentMethods(ctx)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load payment methods right now. Please try again.")
	}
	return model.Say(fmt.Sprintf("Shipping method: %s\nShipping fee: %s\nEstimated delivery: %s\nPlease choose a payment method: %s.",
		info.MethodName, model.FormatMoney(info.Fee), formatDate(info.EstimatedDelivery), paymentNames(payments)))
}

// SelectPaymentMethod validates the method name case-insensitively, stores
// its canonical name and shows the order summary.
func (s *Service) SelectPaymentMethod(ctx context.Context, sessionID, methodName string) model.Reply {
	methodName = strings.TrimSpace(methodName)
	if methodName == "" {
		return model.Fail(model.CodeValidation, "Please tell me how you'd like to pay.")
	}

	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if rec == nil {
		return noSession()
	}

	methods, err := s.catalog.PaymentMethods(ctx)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load payment methods right now. Please try again.")
	}
	var method *model.PaymentMethod
	for i := range methods {
		if strings.EqualFold(methods[i].Name, methodName) {
			method = &methods[i]
			break
		}
	}
	if method == nil {
		return model.Fail(model.CodeNotFound, fmt.Sprintf(
			"Sorry, we don't accept '%s'. Please choose from: %s.", methodName, paymentNames(methods)))
	}

	if err := s.save(ctx, sessionID, func(r *session.Record) { r.PaymentMethod = method.Name }); err != nil {
		return s.sessionError(err)
	}
	rec.PaymentMethod = method.Name

	summary, _, err := s.summary(ctx, rec)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load your order summary right now. Please try again.")
	}
	return model.Say(summary + "\nShall I place your order?")
}

// summary renders items and totals. Total = subtotal - discount + shipping.
func (s *Service) summary(ctx context.Context, rec *session.Record) (string, decimal.Decimal, error) {
	priced, subtotal, err := s.priceCart(ctx, rec.Lines)
	if err != nil {
		return "", decimal.Zero, err
	}

	discount, fee := decimal.Zero, decimal.Zero
	if rec.Discount != nil {
		discount = rec.Discount.Amount
	}
	if rec.Shipping != nil {
		fee = rec.Shipping.Fee
	}
	total := subtotal.Sub(discount).Add(fee)

	var b strings.Builder
	fmt.Fprintf(&b, "Order summary:\n%s", renderCart(priced))
	fmt.Fprintf(&b, "Subtotal: %s\n", model.FormatMoney(subtotal))
	if rec.Discount != nil {
		fmt.Fprintf(&b, "Discount (%s): -%s\n", rec.Discount.PromoCode, model.FormatMoney(discount))
	}
	if rec.Shipping != nil {
		fmt.Fprintf(&b, "Shipping (%s): %s\n", rec.Shipping.MethodName, model.FormatMoney(fee))
	}
	if rec.PaymentMethod != "" {
		fmt.Fprintf(&b, "Payment method: %s\n", rec.PaymentMethod)
	}
	fmt.Fprintf(&b, "Total: %s", model.FormatMoney(total))
	return b.String(), total, nil
}

// ConfirmOrderPlacement persists the order once every prerequisite is set.
// It never writes anything for an incomplete session and never places a
// second order for the same session.
func (s *Service) ConfirmOrderPlacement(ctx context.Context, sessionID string) model.Reply {
	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if rec != nil && rec.PlacedOrderID != 0 {
		return model.Fail(model.CodePrecondition,
			fmt.Sprintf("Your order #%d has already been placed.", rec.PlacedOrderID))
	}
	if missing := rec.MissingForPlacement(); len(missing) > 0 {
		return model.Fail(model.CodePrecondition,
			fmt.Sprintf("Your order is incomplete. Still missing: %s.", strings.Join(missing, ", ")))
	}

	order, fail := s.resolveOrder(ctx, sessionID, rec)
	if fail != nil {
		return *fail
	}

	id, err := s.catalog.PlaceOrder(ctx, order)
	if err != nil {
		if errors.Is(err, model.ErrPrecondition) {
			return model.Fail(model.CodePrecondition,
				"Sorry, some items in your cart no longer have enough stock. Please update your order and try again.")
		}
		return model.FromError(err, "Sorry, we couldn't place your order. Nothing was charged; please try again.")
	}

	s.logger.Info("order placed", "session_id", sessionID, "order_id", id, "total", order.TotalAmount.StringFixed(2))
	if err := s.save(ctx, sessionID, func(r *session.Record) { r.PlacedOrderID = id }); err != nil {
		s.logger.Error("recording placed order failed", "session_id", sessionID, "order_id", id, "error", err)
	}

	return model.Say(fmt.Sprintf("Your order has been placed! Order ID: %d\nTotal: %s\nEstimated delivery: %s\n"+
		"Say 'done' to finish, or let me know if you need anything else.",
		id, model.FormatMoney(order.TotalAmount), formatDate(order.EstimatedDelivery)))
}

// resolveOrder maps the session's names and codes back to primary keys.
func (s *Service) resolveOrder(ctx context.Context, sessionID string, rec *session.Record) (model.NewOrder, *model.Reply) {
	fail := func(err error) (model.NewOrder, *model.Reply) {
		r := model.FromError(err, "Sorry, we couldn't place your order. Please try again.")
		return model.NewOrder{}, &r
	}
	notFound := func(what string) (model.NewOrder, *model.Reply) {
		r := model.Fail(model.CodeNotFound, fmt.Sprintf("Sorry, your %s is no longer available. Please choose it again.", what))
		return model.NewOrder{}, &r
	}

	c, reply := s.customer(ctx, rec)
	if reply != nil {
		return model.NewOrder{}, reply
	}

	payments, err := s.catalog.PaymentMethods(ctx)
	if err != nil {
		return fail(err)
	}
	var paymentID int64
	for _, m := range payments {
		if strings.EqualFold(m.Name, rec.PaymentMethod) {
			paymentID = m.ID
		}
	}
	if paymentID == 0 {
		return notFound("payment method")
	}

	shipping, err := s.catalog.ShippingMethods(ctx)
	if err != nil {
		return fail(err)
	}
	var method *model.ShippingMethod
	for i := range shipping {
		if strings.EqualFold(shipping[i].Name, rec.Shipping.MethodName) {
			method = &shipping[i]
		}
	}
	if method == nil {
		return notFound("shipping method")
	}
	// The fee always follows the current cart and catalog price.
	ship := *rec.Shipping
	ship.CostPerProduct = method.CostPerProduct
	ship.Reprice(cart.TotalQuantity(rec.Lines))
	rec.Shipping = &ship

	order := model.NewOrder{
		SessionID:         sessionID,
		CustomerID:        c.ID,
		PaymentMethodID:   paymentID,
		ShippingMethodID:  method.ID,
		ShippingAddressID: rec.Address.ID,
		ShippingFee:       rec.Shipping.Fee,
		Discount:          decimal.Zero,
		EstimatedDelivery: rec.Shipping.EstimatedDelivery,
	}

	if rec.Discount != nil {
		promo, err := s.catalog.PromotionByCode(ctx, rec.Discount.PromoCode)
		if err != nil {
			return fail(err)
		}
		if promo == nil {
			return notFound("coupon")
		}
		order.PromotionID = &promo.ID
		order.Discount = rec.Discount.Amount
	}

	_, total, err := s.summary(ctx, rec)
	if err != nil {
		return fail(err)
	}
	order.TotalAmount = total

	for _, l := range rec.Lines {
		order.Lines = append(order.Lines, model.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return order, nil
}

func (s *Service) isCashOnDelivery(method string) bool {
	for _, m := range s.cfg.CashOnDeliveryMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// EndConversation closes the checkout with payment instructions and deletes
// the session.
func (s *Service) EndConversation(ctx context.Context, sessionID string) model.Reply {
	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if rec == nil || rec.PaymentMethod == "" {
		return model.Fail(model.CodePrecondition, "Please choose a payment method before we finish.")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return s.sessionError(err)
	}

	if s.isCashOnDelivery(rec.PaymentMethod) {
		return model.Say("Thank you for shopping with us! Please have cash ready to pay when your order is delivered.")
	}
	return model.Say(fmt.Sprintf("Thank you for shopping with us! You'll now be redirected to our secure payment page to pay with %s.",
		rec.PaymentMethod))
}

// CancelOrder discards the session, if any.
func (s *Service) CancelOrder(ctx context.Context, sessionID string) model.Reply {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return s.sessionError(err)
	}
	return model.Say("Your order has been canceled. Let me know if there's anything else I can help with.")
}
