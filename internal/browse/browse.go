// Package browse answers catalog questions: products by brand or price, the
// details of one product and the cheapest product.
package browse

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderbot/internal/model"
	"orderbot/internal/store"
)

// Price range qualifiers understood by ByPrice.
const (
	RangeUnder   = "under"
	RangeOver    = "over"
	RangeBetween = "between"
)

// noUpperBound caps "over" searches.
var noUpperBound = decimal.New(1, 12)

type Service struct {
	catalog store.Store
	logger  *slog.Logger
}

func New(catalog store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, logger: logger}
}

func (s *Service) failure(err error) model.Reply {
	return model.FromError(err, "Sorry, I couldn't look that up right now. Please try again.")
}

func line(p model.Product) string {
	text := fmt.Sprintf("- %s: %s", p.Name, model.FormatMoney(p.Price))
	if p.Stock <= 0 {
		text += " (out of stock)"
	}
	return text
}

func list(products []model.Product) string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = line(p)
	}
	return strings.Join(out, "\n")
}

// ByBrand lists the products of one brand.
func (s *Service) ByBrand(ctx context.Context, brand string) model.Reply {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return model.Fail(model.CodeValidation, "Which brand are you interested in?")
	}

	products, err := s.catalog.ProductsByBrand(ctx, brand)
	if err != nil {
		return s.failure(err)
	}
	if len(products) == 0 {
		return model.Fail(model.CodeNotFound, fmt.Sprintf("Sorry, we don't carry any %s products at the moment.", brand))
	}
	return model.Say(fmt.Sprintf("Here are our %s products:\n%s", brand, list(products)))
}

// priceBounds turns a range qualifier and its amounts into [min, max].
func priceBounds(rangeKind string, prices []string) (decimal.Decimal, decimal.Decimal, bool) {
	amounts := make([]decimal.Decimal, 0, len(prices))
	for _, p := range prices {
		d := model.ParseAmount(p)
		if d.IsPositive() {
			amounts = append(amounts, d)
		}
	}

	switch strings.ToLower(strings.TrimSpace(rangeKind)) {
	case RangeBetween:
		if len(amounts) < 2 {
			return decimal.Zero, decimal.Zero, false
		}
		lo, hi := amounts[0], amounts[1]
		if lo.GreaterThan(hi) {
			lo, hi = hi, lo
		}
		return lo, hi, true
	case RangeOver, "above":
		if len(amounts) == 0 {
			return decimal.Zero, decimal.Zero, false
		}
		return amounts[0], noUpperBound, true
	case RangeUnder, "below", "":
		if len(amounts) == 0 {
			return decimal.Zero, decimal.Zero, false
		}
		return decimal.Zero, amounts[0], true
	}
	return decimal.Zero, decimal.Zero, false
}

// ByPrice lists products in a price range, optionally for one brand.
func (s *Service) ByPrice(ctx context.Context, brand, rangeKind string, prices []string) model.Reply {
	lo, hi, ok := priceBounds(rangeKind, prices)
	if !ok {
		return model.Fail(model.CodeValidation,
			"Please tell me a price range, for example 'under $500' or 'between $200 and $800'.")
	}

	products, err := s.catalog.ProductsByPrice(ctx, strings.TrimSpace(brand), lo, hi)
	if err != nil {
		return s.failure(err)
	}

	var desc string
	switch {
	case hi.Equal(noUpperBound):
		desc = "over " + model.FormatMoney(lo)
	case lo.IsZero():
		desc = "under " + model.FormatMoney(hi)
	default:
		desc = fmt.Sprintf("between %s and %s", model.FormatMoney(lo), model.FormatMoney(hi))
	}
	if brand != "" {
		desc = brand + " products " + desc
	} else {
		desc = "products " + desc
	}

	if len(products) == 0 {
		return model.Fail(model.CodeNotFound, fmt.Sprintf("Sorry, I couldn't find any %s.", desc))
	}
	return model.Say(fmt.Sprintf("Here are the %s:\n%s", desc, list(products)))
}

// Details describes one product, looked up by id or by name.
func (s *Service) Details(ctx context.Context, productID, name string) model.Reply {
	var (
		p   *model.Product
		err error
	)
	switch {
	case strings.TrimSpace(productID) != "":
		id, convErr := strconv.ParseInt(strings.TrimSpace(productID), 10, 64)
		if convErr != nil {
			return model.Fail(model.CodeValidation, fmt.Sprintf("'%s' is not a valid product id.", productID))
		}
		p, err = s.catalog.ProductByID(ctx, id)
	case strings.TrimSpace(name) != "":
		var matches []model.Product
		matches, err = s.catalog.ProductsByName(ctx, strings.TrimSpace(name))
		if len(matches) > 0 {
			p = &matches[0]
		}
	default:
		return model.Fail(model.CodeValidation, "Which product would you like to know more about?")
	}
	if err != nil {
		return s.failure(err)
	}
	if p == nil {
		return model.Fail(model.CodeNotFound, "Sorry, I couldn't find that product.")
	}
	return model.Say(describe(*p))
}

func describe(p model.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", p.Name, model.FormatMoney(p.Price))
	if p.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s", p.Brand)
		if p.OriginCountry != "" {
			fmt.Fprintf(&b, " (%s)", p.OriginCountry)
		}
		b.WriteString("\n")
	}
	if p.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", p.Category)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if p.Specifications != "" {
		fmt.Fprintf(&b, "Specifications: %s\n", p.Specifications)
	}
	if p.Stock > 0 {
		fmt.Fprintf(&b, "In stock: %d", p.Stock)
	} else {
		b.WriteString("Currently out of stock")
	}
	return b.String()
}

// Cheapest names the lowest-priced product.
func (s *Service) Cheapest(ctx context.Context) model.Reply {
	p, err := s.catalog.CheapestProduct(ctx)
	if err != nil {
		return s.failure(err)
	}
	if p == nil {
		return model.Fail(model.CodeNotFound, "Our catalog is empty at the moment.")
	}
	return model.Say(fmt.Sprintf("Our most affordable product is %s at %s.", p.Name, model.FormatMoney(p.Price)))
}
