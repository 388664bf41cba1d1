package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderbot/internal/cart"
	"orderbot/internal/model"
	"orderbot/internal/session"
)

// CartRequest pairs product references with quantities by position.
// Products are names, or numeric ids when editing the cart.
type CartRequest struct {
	Products   []string
	Quantities []string
}

// parseQuantity accepts whole positive numbers, including "2.0".
func parseQuantity(s string) (int, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsInteger() || !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(1_000_000)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

// lineOutcome collects per-line results of a cart change.
type lineOutcome struct {
	confirmed    []string
	notFound     []string
	insufficient []string
	invalid      []string
}

func (o *lineOutcome) reply(header string) model.Reply {
	var b strings.Builder
	if len(o.confirmed) > 0 {
		b.WriteString(header + "\n")
		b.WriteString(strings.Join(o.confirmed, "\n"))
	}
	if len(o.notFound) > 0 {
		fmt.Fprintf(&b, "\nThe following products were not found: %s.", strings.Join(o.notFound, ", "))
	}
	if len(o.insufficient) > 0 {
		fmt.Fprintf(&b, "\nNot enough stock for: %s.", strings.Join(o.insufficient, ", "))
	}
	if len(o.invalid) > 0 {
		fmt.Fprintf(&b, "\nInvalid quantity for: %s. Quantities must be whole numbers greater than zero.", strings.Join(o.invalid, ", "))
	}
	if len(o.confirmed) > 0 {
		b.WriteString("\nWould you like to add anything else or proceed to checkout?")
	}

	text := strings.TrimSpace(b.String())
	switch {
	case len(o.confirmed) > 0:
		return model.Say(text)
	case len(o.notFound) > 0 && len(o.insufficient) == 0 && len(o.invalid) == 0:
		return model.Fail(model.CodeNotFound, text)
	default:
		return model.Fail(model.CodeValidation, text)
	}
}

func confirmedLine(p model.Product, qty int) string {
	return fmt.Sprintf("ID: %d Name: %s Quantity: %d Price: %s", p.ID, p.Name, qty, model.FormatMoney(p.Price))
}

func validateCartRequest(req CartRequest) (model.Reply, bool) {
	if len(req.Products) == 0 {
		return model.Fail(model.CodeValidation, "Please tell me which products you'd like to order."), false
	}
	if len(req.Products) != len(req.Quantities) {
		return model.Fail(model.CodeValidation,
			"Please give a quantity for each product, for example '2 iPhone 15 and 1 AirPods Pro'."), false
	}
	return model.Reply{}, true
}

// lookupProduct resolves a name, or a numeric id when allowIDs is set.
func (s *Service) lookupProduct(ctx context.Context, ref string, allowIDs bool) (*model.Product, error) {
	ref = strings.TrimSpace(ref)
	if allowIDs {
		if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
			return s.catalog.ProductByID(ctx, id)
		}
	}
	products, err := s.catalog.ProductsByName(ctx, ref)
	if err != nil || len(products) == 0 {
		return nil, err
	}
	return &products[0], nil
}

// AddToCart adds products to the session cart, summing quantities for
// products already there. Lines that fail lookup, stock or quantity checks
// are reported without blocking the others. The session is created on the
// first confirmed line.
func (s *Service) AddToCart(ctx context.Context, sessionID string, req CartRequest) model.Reply {
	if r, ok := validateCartRequest(req); !ok {
		return r
	}

	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	var lines []cart.Line
	if rec != nil {
		lines = rec.Lines
	}

	var out lineOutcome
	for i, ref := range req.Products {
		qty, ok := parseQuantity(req.Quantities[i])
		if !ok {
			out.invalid = append(out.invalid, fmt.Sprintf("%s (%s)", ref, req.Quantities[i]))
			continue
		}

		p, err := s.lookupProduct(ctx, ref, false)
		if err != nil {
			return model.FromError(err, "Sorry, I couldn't check our catalog right now. Please try again.")
		}
		if p == nil {
			out.notFound = append(out.notFound, ref)
			continue
		}

		merged := cart.Quantity(lines, p.ID) + qty
		if p.Stock < merged {
			out.insufficient = append(out.insufficient,
				fmt.Sprintf("%s (requested %d, available %d)", p.Name, merged, p.Stock))
			continue
		}

		lines = cart.Add(lines, p.ID, qty)
		out.confirmed = append(out.confirmed, confirmedLine(*p, qty))
	}

	if len(out.confirmed) > 0 {
		if err := s.save(ctx, sessionID, func(r *session.Record) { r.SetLines(lines) }); err != nil {
			return s.sessionError(err)
		}
	}
	return out.reply("I've added the following to your order:")
}

// SetLineQuantities replaces the quantity of products already in the cart
// and appends products that are not.
func (s *Service) SetLineQuantities(ctx context.Context, sessionID string, req CartRequest) model.Reply {
	if r, ok := validateCartRequest(req); !ok {
		return r
	}

	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if !rec.HasCart() {
		return noSession()
	}

	lines := rec.Lines
	var out lineOutcome
	for i, ref := range req.Products {
		qty, ok := parseQuantity(req.Quantities[i])
		if !ok {
			out.invalid = append(out.invalid, fmt.Sprintf("%s (%s)", ref, req.Quantities[i]))
			continue
		}

		p, err := s.lookupProduct(ctx, ref, true)
		if err != nil {
			return model.FromError(err, "Sorry, I couldn't check our catalog right now. Please try again.")
		}
		if p == nil {
			out.notFound = append(out.notFound, ref)
			continue
		}
		if p.Stock < qty {
			out.insufficient = append(out.insufficient,
				fmt.Sprintf("%s (requested %d, available %d)", p.Name, qty, p.Stock))
			continue
		}

		lines = cart.Set(lines, p.ID, qty)
		out.confirmed = append(out.confirmed, confirmedLine(*p, qty))
	}

	if len(out.confirmed) == 0 {
		return out.reply("")
	}

	diff := cart.Compare(rec.Lines, lines)
	hadDiscount := rec.Discount != nil
	if err := s.save(ctx, sessionID, func(r *session.Record) { r.SetLines(lines) }); err != nil {
		return s.sessionError(err)
	}

	reply := out.reply("I've updated your order:")
	if hadDiscount && !diff.IsEmpty() {
		reply.Text += "\nYour coupon was removed because your cart changed. You can apply it again at checkout."
	}
	return reply
}

// RemoveItems drops products from the cart. An emptied cart cancels the
// whole session; otherwise any discount is dropped and promotions are
// listed again for the new subtotal.
func (s *Service) RemoveItems(ctx context.Context, sessionID string, refs []string) model.Reply {
	if len(refs) == 0 {
		return model.Fail(model.CodeValidation, "Please tell me which items you'd like to remove.")
	}

	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if !rec.HasCart() {
		return noSession()
	}

	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		p, err := s.lookupProduct(ctx, ref, true)
		if err != nil {
			return model.FromError(err, "Sorry, I couldn't check our catalog right now. Please try again.")
		}
		if p != nil {
			ids = append(ids, p.ID)
		}
	}

	lines, removed := cart.Remove(rec.Lines, ids...)
	if removed == 0 {
		return model.Fail(model.CodeNotFound, "None of those items are in your cart.")
	}

	if len(lines) == 0 {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return s.sessionError(err)
		}
		return model.Say("Your cart is now empty, so your order has been canceled. Let me know if you'd like to start a new order.")
	}

	if err := s.save(ctx, sessionID, func(r *session.Record) { r.SetLines(lines) }); err != nil {
		return s.sessionError(err)
	}

	priced, subtotal, err := s.priceCart(ctx, lines)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load your cart right now. Please try again.")
	}
	promos, err := s.catalog.ActivePromotions(ctx, subtotal)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load promotions right now. Please try again.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I've removed %d item(s). Your order now contains:\n%s", removed, renderCart(priced))
	fmt.Fprintf(&b, "Subtotal: %s\n", model.FormatMoney(subtotal))
	if rec.Discount != nil {
		b.WriteString("Your coupon was removed because your cart changed.\n")
	}
	b.WriteString(renderPromotions(promos))
	return model.Say(b.String())
}

// ProceedToCheckout shows the cart at current prices and the promotions the
// subtotal qualifies for.
func (s *Service) ProceedToCheckout(ctx context.Context, sessionID string) model.Reply {
	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if !rec.HasCart() {
		return noSession()
	}

	priced, subtotal, err := s.priceCart(ctx, rec.Lines)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load your cart right now. Please try again.")
	}
	promos, err := s.catalog.ActivePromotions(ctx, subtotal)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load promotions right now. Please try again.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is your order:\n%s", renderCart(priced))
	fmt.Fprintf(&b, "Subtotal: %s\n", model.FormatMoney(subtotal))
	if rec.Discount != nil {
		fmt.Fprintf(&b, "Coupon %s: -%s\n", rec.Discount.PromoCode, model.FormatMoney(rec.Discount.Amount))
	}
	b.WriteString(renderPromotions(promos))
	b.WriteString("\nYou can apply a coupon code, or give me your email or phone number to continue.")
	return model.Say(b.String())
}

// ApplyCoupon computes the discount for code against the current subtotal
// and stores it as a flat amount.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) model.Reply {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.Fail(model.CodeValidation, "Please tell me the coupon code you'd like to use.")
	}

	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if !rec.HasCart() {
		return noSession()
	}

	_, subtotal, err := s.priceCart(ctx, rec.Lines)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load your cart right now. Please try again.")
	}

	promo, err := s.catalog.PromotionByCode(ctx, code)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't check that coupon right now. Please try again.")
	}
	if promo == nil {
		return model.Fail(model.CodeNotFound, fmt.Sprintf("Sorry, the coupon code '%s' is not valid.", code))
	}
	if !strings.EqualFold(promo.Status, model.PromotionActive) || (promo.EndDate != nil && promo.EndDate.Before(s.now())) {
		return model.Fail(model.CodePrecondition, fmt.Sprintf("Sorry, the coupon code '%s' is no longer active.", promo.Code))
	}
	if promo.MinimumOrder.GreaterThan(subtotal) {
		return model.Fail(model.CodePrecondition, fmt.Sprintf(
			"The coupon code '%s' requires a minimum order of %s. Your current subtotal is %s.",
			promo.Code, model.FormatMoney(promo.MinimumOrder), model.FormatMoney(subtotal)))
	}

	discount := model.PercentOf(subtotal, promo.DiscountValue)
	if err := s.save(ctx, sessionID, func(r *session.Record) {
		r.Discount = &session.Discount{PromoCode: promo.Code, Amount: discount}
	}); err != nil {
		return s.sessionError(err)
	}

	return model.Say(fmt.Sprintf(
		"Coupon %s applied! You saved %s.\nSubtotal: %s\nTotal after discount: %s\nPlease give me your email or phone number to continue.",
		promo.Code, model.FormatMoney(discount), model.FormatMoney(subtotal), model.FormatMoney(subtotal.Sub(discount))))
}
