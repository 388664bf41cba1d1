// Package checkout implements the conversational checkout steps: building
// and editing the cart, identifying the customer, resolving the shipping
// address, choosing shipping and payment, and placing the order.
//
// Steps may be invoked in any order. Each one checks the session fields it
// needs and replies with what is missing instead of enforcing a transition
// table; the dialog platform decides the order of turns.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderbot/internal/cart"
	"orderbot/internal/model"
	"orderbot/internal/session"
	"orderbot/internal/store"
)

// AssumedShippingDistanceKm stands in for a real geocoded distance when
// estimating delivery time.
const AssumedShippingDistanceKm = 100

// DefaultCashOnDeliveryMethods are payment methods settled at delivery.
var DefaultCashOnDeliveryMethods = []string{"COD", "Cash on Delivery"}

// Config tunes checkout behavior.
type Config struct {
	CashOnDeliveryMethods []string
}

// Service runs checkout steps against a catalog and a session store.
type Service struct {
	catalog  store.Store
	sessions session.Store[session.Record]
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

// New creates a checkout service.
func New(catalog store.Store, sessions session.Store[session.Record], logger *slog.Logger, cfg Config) *Service {
	if len(cfg.CashOnDeliveryMethods) == 0 {
		cfg.CashOnDeliveryMethods = DefaultCashOnDeliveryMethods
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:  catalog,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Session returns the record for sessionID, or nil when none exists.
func (s *Service) Session(ctx context.Context, sessionID string) (*session.Record, error) {
	rec, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// save applies mutate to the session record, creating the record when absent.
func (s *Service) save(ctx context.Context, sessionID string, mutate func(*session.Record)) error {
	return s.sessions.Upsert(ctx, sessionID, func(r *session.Record) error {
		mutate(r)
		return nil
	})
}

func (s *Service) sessionError(err error) model.Reply {
	s.logger.Error("session store failed", "error", err)
	return model.Fail(model.CodePersistence, "Sorry, I couldn't access your order right now. Please try again.")
}

func noSession() model.Reply {
	return model.Fail(model.CodePrecondition,
		"I couldn't find an order in progress. Please tell me which products you'd like to order first.")
}

// pricedLine is a cart line joined with the product's current price.
type pricedLine struct {
	product  model.Product
	quantity int
	total    decimal.Decimal
}

// priceCart re-reads current prices for every line. Lines whose product has
// disappeared from the catalog are skipped.
func (s *Service) priceCart(ctx context.Context, lines []cart.Line) ([]pricedLine, decimal.Decimal, error) {
	priced := make([]pricedLine, 0, len(lines))
	subtotal := decimal.Zero
	for _, l := range lines {
		p, err := s.catalog.ProductByID(ctx, l.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if p == nil {
			s.logger.Warn("cart product missing from catalog", "product_id", l.ProductID)
			continue
		}
		total := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		priced = append(priced, pricedLine{product: *p, quantity: l.Quantity, total: total})
		subtotal = subtotal.Add(total)
	}
	return priced, subtotal, nil
}

func renderCart(priced []pricedLine) string {
	var b strings.Builder
	for _, l := range priced {
		fmt.Fprintf(&b, "- %s x %d: %s\n", l.product.Name, l.quantity, model.FormatMoney(l.total))
	}
	return b.String()
}

func renderPromotions(promos []model.Promotion) string {
	if len(promos) == 0 {
		return "There are no promotions available for this order."
	}
	var b strings.Builder
	b.WriteString("Available promotions:")
	for _, p := range promos {
		fmt.Fprintf(&b, "\n- %s: %s (minimum order %s)", p.Code, p.Description, model.FormatMoney(p.MinimumOrder))
	}
	return b.String()
}

func renderAddress(a model.Address) string {
	return fmt.Sprintf("%s, %s\n%s, %s, %s %s",
		a.ReceiverName, a.ReceiverPhone, a.City, a.ProvinceState, a.Country, a.PostalCode)
}

func renderShippingMethods(methods []model.ShippingMethod) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = fmt.Sprintf("%s (%s per item)", m.Name, model.FormatMoney(m.CostPerProduct))
	}
	return strings.Join(names, ", ")
}

func paymentNames(methods []model.PaymentMethod) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}

func shippingNames(methods []model.ShippingMethod) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}

func formatDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006")
}
