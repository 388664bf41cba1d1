package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderbot/internal/model"
)

type orderResponse struct {
	OrderID       int64           `json:"order_id"`
	ProductNames  string          `json:"product_names"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	OrderStatus   string          `json:"order_status"`
	OrderDate     time.Time       `json:"order_date"`
}

type customerResponse struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

func newCustomerResponse(c *model.Customer) customerResponse {
	return customerResponse{CustomerID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// handleOrders lists orders by customer id or name.
// GET /api/orders?customer_id=|customer_name=
func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	var q model.OrderQuery
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.writeError(w, model.NewValidationError("customer_id", "must be a positive integer"))
			return
		}
		q.CustomerID = id
	}
	q.CustomerName = strings.TrimSpace(r.URL.Query().Get("customer_name"))
	if q.CustomerID == 0 && q.CustomerName == "" {
		h.writeError(w, model.NewValidationError("query", "either customer_id or customer_name must be provided"))
		return
	}

	orders, err := h.catalog.CustomerOrders(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(orders) == 0 {
		h.writeError(w, model.NewNotFoundError("orders for this customer"))
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = orderResponse{
			OrderID:       o.ID,
			ProductNames:  o.ProductNames,
			TotalAmount:   o.TotalAmount,
			PaymentMethod: o.PaymentMethod,
			OrderStatus:   o.Status,
			OrderDate:     o.OrderDate,
		}
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleCustomer returns one customer.
// GET /api/customer/{id}
func (h *Handler) handleCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, model.NewValidationError("id", "must be a positive integer"))
		return
	}

	c, err := h.catalog.CustomerByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if c == nil {
		h.writeError(w, model.NewNotFoundError("customer"))
		return
	}
	h.writeJSON(w, http.StatusOK, newCustomerResponse(c))
}

// handleCustomerSearch finds a customer by email or phone.
// GET /api/customer/search?email=&phone=
func (h *Handler) handleCustomerSearch(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if email == "" && phone == "" {
		h.writeError(w, model.NewValidationError("query", "either email or phone must be provided"))
		return
	}

	c, err := h.catalog.CustomerByContact(r.Context(), email, phone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if c == nil {
		h.writeError(w, model.NewNotFoundError("customer"))
		return
	}
	h.writeJSON(w, http.StatusOK, newCustomerResponse(c))
}

// parsePriceRange reads "min-max" where either bound may be omitted,
// e.g. "100-500", "-300", "1000-".
func parsePriceRange(raw string) (minPrice, maxPrice *decimal.Decimal, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}
	lo, hi, ok := strings.Cut(raw, "-")
	if !ok {
		return nil, nil, model.NewValidationError("price_range", "expected min-max")
	}
	parse := func(s string) (*decimal.Decimal, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return nil, model.NewValidationError("price_range", "bounds must be non-negative numbers")
		}
		return &d, nil
	}
	if minPrice, err = parse(lo); err != nil {
		return nil, nil, err
	}
	if maxPrice, err = parse(hi); err != nil {
		return nil, nil, err
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		return nil, nil, model.NewValidationError("price_range", "min exceeds max")
	}
	return minPrice, maxPrice, nil
}

// handleProducts lists products with optional search, category and price filters.
// GET /api/products?search=&category=&price_range=
func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, maxPrice, err := parsePriceRange(q.Get("price_range"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	products, err := h.catalog.SearchProducts(r.Context(), model.ProductFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if products == nil {
		products = []model.ProductSummary{}
	}
	h.writeJSON(w, http.StatusOK, products)
}
