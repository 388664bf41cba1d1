package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"orderbot/internal/model"
)

// DefaultQueryTimeout bounds each store call when Options.QueryTimeout is zero.
const DefaultQueryTimeout = 5 * time.Second

// Options tunes a SQLStore.
type Options struct {
	QueryTimeout time.Duration
	MaxOpenConns int
	Logger       *slog.Logger
}

// SQLStore implements Store on database/sql for postgres and sqlite.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string, opts Options) (*SQLStore, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	switch {
	case driver == DriverSQLite:
		// Single writer; also keeps :memory: databases on one connection.
		db.SetMaxOpenConns(1)
	case opts.MaxOpenConns > 0:
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return New(db, driver, opts)
}

// New wraps an existing connection pool.
func New(db *sql.DB, driver string, opts Options) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SQLStore{
		db:      db,
		dialect: d,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// call runs fn under the per-call deadline and maps failures to the
// APIError taxonomy. APIErrors returned by fn pass through unchanged.
func (s *SQLStore) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.logger.Warn("store call timed out", "op", op, "timeout", s.timeout)
		return model.NewTimeoutError(op)
	}

	s.logger.Error("store call failed", "op", op, "error", err)
	return model.NewPersistenceError(op, err)
}

// inTx runs fn in a transaction, rolling back when fn fails.
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

// === Products ===

const productColumns = `p.product_id, p.product_name, COALESCE(p.description, ''), p.price,
	COALESCE(p.specifications, ''), b.brand_name, COALESCE(b.description, ''),
	COALESCE(b.origin_country, ''), COALESCE(c.category_name, ''), p.stock_quantity`

const productFrom = `FROM product p
	JOIN brand b ON b.brand_id = p.brand_id
	LEFT JOIN category c ON c.category_id = p.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Specifications,
		&p.Brand, &p.BrandDescription, &p.OriginCountry, &p.Category, &p.Stock)
	return p, err
}

func (s *SQLStore) listProducts(ctx context.Context, op, tail string, args ...any) ([]model.Product, error) {
	var products []model.Product
	err := s.call(ctx, op, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, s.q("SELECT "+productColumns+" "+productFrom+" "+tail), args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	return products, err
}

func (s *SQLStore) oneProduct(ctx context.Context, op, tail string, args ...any) (*model.Product, error) {
	var out *model.Product
	err := s.call(ctx, op, func(ctx context.Context) error {
		p, err := scanProduct(s.db.QueryRowContext(ctx, s.q("SELECT "+productColumns+" "+productFrom+" "+tail), args...))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &p
		return nil
	})
	return out, err
}

func (s *SQLStore) ProductsByName(ctx context.Context, name string) ([]model.Product, error) {
	return s.listProducts(ctx, "get products by name",
		"WHERE LOWER(p.product_name) = LOWER(?) ORDER BY p.product_id", strings.TrimSpace(name))
}

func (s *SQLStore) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	return s.oneProduct(ctx, "get product", "WHERE p.product_id = ?", id)
}

func (s *SQLStore) ProductsByBrand(ctx context.Context, brand string) ([]model.Product, error) {
	return s.listProducts(ctx, "get products by brand",
		"WHERE LOWER(b.brand_name) = LOWER(?) ORDER BY p.product_id", strings.TrimSpace(brand))
}

func (s *SQLStore) ProductsByPrice(ctx context.Context, brand string, minPrice, maxPrice decimal.Decimal) ([]model.Product, error) {
	if brand == "" {
		return s.listProducts(ctx, "get products by price",
			"WHERE p.price BETWEEN ? AND ? ORDER BY p.price, p.product_id", minPrice, maxPrice)
	}
	return s.listProducts(ctx, "get products by price",
		"WHERE LOWER(b.brand_name) = LOWER(?) AND p.price BETWEEN ? AND ? ORDER BY p.price, p.product_id",
		strings.TrimSpace(brand), minPrice, maxPrice)
}

func (s *SQLStore) CheapestProduct(ctx context.Context) (*model.Product, error) {
	return s.oneProduct(ctx, "get cheapest product", "ORDER BY p.price ASC, p.product_id ASC LIMIT 1")
}

func (s *SQLStore) SearchProducts(ctx context.Context, filter model.ProductFilter) ([]model.ProductSummary, error) {
	var (
		where []string
		args  []any
	)
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(p.product_name %[1]s ? OR p.description %[1]s ?)", s.dialect.like))
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Category != "" {
		where = append(where, "LOWER(c.category_name) = LOWER(?)")
		args = append(args, filter.Category)
	}
	if filter.MinPrice != nil {
		where = append(where, "p.price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		where = append(where, "p.price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	query := `SELECT p.product_id, p.product_name, COALESCE(p.description, ''), p.price,
		COALESCE(c.category_name, ''), p.stock_quantity,
		(SELECT AVG(r.rating) FROM review r WHERE r.product_id = p.product_id)
		FROM product p
		LEFT JOIN category c ON c.category_id = p.category_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.product_id"

	var out []model.ProductSummary
	err := s.call(ctx, "search products", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, s.q(query), args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				p      model.ProductSummary
				rating sql.NullFloat64
			)
			if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &rating); err != nil {
				return err
			}
			if rating.Valid {
				r := rating.Float64
				p.Rating = &r
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

// === Promotions ===

const promotionColumns = `promotion_id, coupon_code, COALESCE(description, ''), discount_value,
	minimum_order, status, end_date`

func scanPromotion(row rowScanner) (model.Promotion, error) {
	var (
		p   model.Promotion
		end sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Code, &p.Description, &p.DiscountValue, &p.MinimumOrder, &p.Status, &end); err != nil {
		return p, err
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	return p, nil
}

func (s *SQLStore) ActivePromotions(ctx context.Context, subtotal decimal.Decimal) ([]model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotion
		WHERE LOWER(status) = ? AND minimum_order <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY minimum_order DESC, coupon_code`

	var out []model.Promotion
	err := s.call(ctx, "get promotions", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, s.q(query), model.PromotionActive, subtotal, s.now().UTC())
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			p, err := scanPromotion(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQLStore) PromotionByCode(ctx context.Context, code string) (*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotion WHERE UPPER(coupon_code) = UPPER(?)`

	var out *model.Promotion
	err := s.call(ctx, "get promotion", func(ctx context.Context) error {
		p, err := scanPromotion(s.db.QueryRowContext(ctx, s.q(query), strings.TrimSpace(code)))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &p
		return nil
	})
	return out, err
}

// === Customers ===

func (s *SQLStore) oneCustomer(ctx context.Context, op, where string, args ...any) (*model.Customer, error) {
	query := `SELECT customer_id, name, COALESCE(email, ''), COALESCE(phone, '') FROM customer WHERE ` +
		where + ` ORDER BY customer_id LIMIT 1`

	var out *model.Customer
	err := s.call(ctx, op, func(ctx context.Context) error {
		var c model.Customer
		err := s.db.QueryRowContext(ctx, s.q(query), args...).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &c
		return nil
	})
	return out, err
}

func (s *SQLStore) CustomerByContact(ctx context.Context, email, phone string) (*model.Customer, error) {
	var (
		where []string
		args  []any
	)
	if email = strings.TrimSpace(email); email != "" {
		where = append(where, "LOWER(email) = LOWER(?)")
		args = append(args, email)
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		where = append(where, "phone = ?")
		args = append(args, phone)
	}
	if len(where) == 0 {
		return nil, nil
	}
	return s.oneCustomer(ctx, "get customer", "("+strings.Join(where, " OR ")+")", args...)
}

func (s *SQLStore) CustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	return s.oneCustomer(ctx, "get customer", "customer_id = ?", id)
}

// === Addresses ===

const insertAddress = `INSERT INTO shipping_address
	(customer_id, receiver_name, receiver_phone, country, city, province_state, postal_code, is_default)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING address_id`

func (s *SQLStore) DefaultAddress(ctx context.Context, customerID int64) (*model.Address, error) {
	query := `SELECT address_id, receiver_name, receiver_phone, country, city, province_state, postal_code
		FROM shipping_address
		WHERE customer_id = ? AND is_default = ?
		ORDER BY address_id DESC LIMIT 1`

	var out *model.Address
	err := s.call(ctx, "get default address", func(ctx context.Context) error {
		a := model.Address{IsDefault: true}
		err := s.db.QueryRowContext(ctx, s.q(query), customerID, true).Scan(
			&a.ID, &a.ReceiverName, &a.ReceiverPhone, &a.Country, &a.City, &a.ProvinceState, &a.PostalCode)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &a
		return nil
	})
	return out, err
}

func (s *SQLStore) SaveAddress(ctx context.Context, customerID int64, addr model.Address) (int64, error) {
	var id int64
	err := s.call(ctx, "save address", func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, s.q(insertAddress), customerID, addr.ReceiverName, addr.ReceiverPhone,
			addr.Country, addr.City, addr.ProvinceState, addr.PostalCode, addr.IsDefault).Scan(&id)
	})
	return id, err
}

// === Shipping and payment methods ===

func (s *SQLStore) ShippingMethods(ctx context.Context) ([]model.ShippingMethod, error) {
	query := `SELECT shipping_method_id, method_name, cost_per_product, average_delivery_time_per_km
		FROM shipping_method ORDER BY shipping_method_id`

	var out []model.ShippingMethod
	err := s.call(ctx, "get shipping methods", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var m model.ShippingMethod
			if err := rows.Scan(&m.ID, &m.Name, &m.CostPerProduct, &m.AvgDeliveryTimePerKm); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQLStore) PaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	query := `SELECT payment_method_id, method_name, COALESCE(description, '')
		FROM payment_method ORDER BY payment_method_id`

	var out []model.PaymentMethod
	err := s.call(ctx, "get payment methods", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var m model.PaymentMethod
			if err := rows.Scan(&m.ID, &m.Name, &m.Description); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

// === Orders ===

const (
	insertOrder = `INSERT INTO orders (
		customer_id, payment_method_id, shipping_method_id, shipping_address_id, promotion_id,
		total_amount, shipping_fee, discount, order_date, estimated_delivery_date,
		payment_status, order_status, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING order_id`
	decrementStock = `UPDATE product SET stock_quantity = stock_quantity - ?
		WHERE product_id = ? AND stock_quantity >= ?`
	insertOrderItem = `INSERT INTO order_item (order_id, product_id, quantity) VALUES (?, ?, ?)`
)

func (s *SQLStore) PlaceOrder(ctx context.Context, order model.NewOrder) (int64, error) {
	var orderID int64
	err := s.call(ctx, "place order", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			var promotionID any
			if order.PromotionID != nil {
				promotionID = *order.PromotionID
			}

			err := tx.QueryRowContext(ctx, s.q(insertOrder),
				order.CustomerID, order.PaymentMethodID, order.ShippingMethodID, order.ShippingAddressID, promotionID,
				order.TotalAmount, order.ShippingFee, order.Discount, s.now().UTC(), order.EstimatedDelivery.UTC(),
				model.PaymentStatusPending, model.OrderStatusPending,
				fmt.Sprintf("Order placed via chatbot (session: %s)", order.SessionID),
			).Scan(&orderID)
			if err != nil {
				return fmt.Errorf("insert order: %w", err)
			}

			for _, line := range order.Lines {
				res, err := tx.ExecContext(ctx, s.q(decrementStock), line.Quantity, line.ProductID, line.Quantity)
				if err != nil {
					return fmt.Errorf("reserve stock for product %d: %w", line.ProductID, err)
				}
				if n, err := res.RowsAffected(); err != nil {
					return fmt.Errorf("reserve stock for product %d: %w", line.ProductID, err)
				} else if n == 0 {
					return model.NewPreconditionError(fmt.Sprintf("product %d no longer has enough stock", line.ProductID))
				}

				if _, err := tx.ExecContext(ctx, s.q(insertOrderItem), orderID, line.ProductID, line.Quantity); err != nil {
					return fmt.Errorf("insert order item for product %d: %w", line.ProductID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (s *SQLStore) CustomerOrders(ctx context.Context, q model.OrderQuery) ([]model.OrderSummary, error) {
	var (
		where string
		arg   any
	)
	switch {
	case q.CustomerID != 0:
		where, arg = "c.customer_id = ?", q.CustomerID
	case q.CustomerName != "":
		where, arg = "c.name "+s.dialect.like+" ?", "%"+q.CustomerName+"%"
	default:
		return nil, nil
	}

	query := `SELECT o.order_id, ` + s.dialect.aggregate("p.product_name") + `, o.total_amount,
		pm.method_name, o.order_status, o.order_date
		FROM orders o
		JOIN order_item oi ON oi.order_id = o.order_id
		JOIN product p ON p.product_id = oi.product_id
		JOIN payment_method pm ON pm.payment_method_id = o.payment_method_id
		JOIN customer c ON c.customer_id = o.customer_id
		WHERE ` + where + `
		GROUP BY o.order_id, o.total_amount, pm.method_name, o.order_status, o.order_date
		ORDER BY o.order_date DESC, o.order_id DESC`

	var out []model.OrderSummary
	err := s.call(ctx, "get customer orders", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, s.q(query), arg)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var o model.OrderSummary
			if err := rows.Scan(&o.ID, &o.ProductNames, &o.TotalAmount, &o.PaymentMethod, &o.Status, &o.OrderDate); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	return out, err
}

const countCancellable = `SELECT COUNT(*) FROM orders
	WHERE order_id = ? AND customer_id = ? AND LOWER(order_status) = ?`

func (s *SQLStore) cancellable(ctx context.Context, tx *sql.Tx, orderID, customerID int64) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, s.q(countCancellable), orderID, customerID, model.OrderStatusProcessing).Scan(&n); err != nil {
		return false, fmt.Errorf("check order status: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) CancelOrder(ctx context.Context, orderID, customerID int64) (bool, error) {
	var cancelled bool
	err := s.call(ctx, "cancel order", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			ok, err := s.cancellable(ctx, tx, orderID, customerID)
			if err != nil || !ok {
				return err
			}

			rows, err := tx.QueryContext(ctx, s.q(`SELECT product_id, quantity FROM order_item WHERE order_id = ?`), orderID)
			if err != nil {
				return fmt.Errorf("load order items: %w", err)
			}
			var items []model.OrderLine
			for rows.Next() {
				var l model.OrderLine
				if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
					_ = rows.Close()
					return err
				}
				items = append(items, l)
			}
			if err := rows.Close(); err != nil {
				return err
			}

			for _, l := range items {
				if _, err := tx.ExecContext(ctx, s.q(`UPDATE product SET stock_quantity = stock_quantity + ? WHERE product_id = ?`),
					l.Quantity, l.ProductID); err != nil {
					return fmt.Errorf("restock product %d: %w", l.ProductID, err)
				}
			}
			if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM order_item WHERE order_id = ?`), orderID); err != nil {
				return fmt.Errorf("delete order items: %w", err)
			}
			if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM orders WHERE order_id = ?`), orderID); err != nil {
				return fmt.Errorf("delete order: %w", err)
			}
			cancelled = true
			return nil
		})
	})
	return cancelled, err
}

func (s *SQLStore) UpdateOrderAddress(ctx context.Context, orderID, customerID int64, addr model.Address) (bool, error) {
	var updated bool
	err := s.call(ctx, "change order address", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			ok, err := s.cancellable(ctx, tx, orderID, customerID)
			if err != nil || !ok {
				return err
			}

			var addressID int64
			if err := tx.QueryRowContext(ctx, s.q(insertAddress), customerID, addr.ReceiverName, addr.ReceiverPhone,
				addr.Country, addr.City, addr.ProvinceState, addr.PostalCode, false).Scan(&addressID); err != nil {
				return fmt.Errorf("insert address: %w", err)
			}
			if _, err := tx.ExecContext(ctx, s.q(`UPDATE orders SET shipping_address_id = ? WHERE order_id = ?`),
				addressID, orderID); err != nil {
				return fmt.Errorf("update order: %w", err)
			}
			updated = true
			return nil
		})
	})
	return updated, err
}

// === Reviews ===

func (s *SQLStore) UnreviewedProducts(ctx context.Context, customerID int64) ([]model.UnreviewedProduct, error) {
	query := `SELECT DISTINCT p.product_id, p.product_name, p.price,
		COALESCE(b.brand_name, ''), COALESCE(c.category_name, '')
		FROM orders o
		JOIN order_item oi ON oi.order_id = o.order_id
		JOIN product p ON p.product_id = oi.product_id
		LEFT JOIN brand b ON b.brand_id = p.brand_id
		LEFT JOIN category c ON c.category_id = p.category_id
		WHERE o.customer_id = ? AND LOWER(o.order_status) = ?
		AND NOT EXISTS (
			SELECT 1 FROM review r WHERE r.customer_id = o.customer_id AND r.product_id = p.product_id
		)
		ORDER BY p.product_name`

	var out []model.UnreviewedProduct
	err := s.call(ctx, "get unreviewed products", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, s.q(query), customerID, "delivered")
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var p model.UnreviewedProduct
			if err := rows.Scan(&p.ProductID, &p.Name, &p.Price, &p.Brand, &p.Category); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQLStore) InsertReview(ctx context.Context, review model.NewReview) (int64, error) {
	query := `INSERT INTO review (customer_id, product_id, rating, comment, review_date)
		VALUES (?, ?, ?, ?, ?) RETURNING review_id`

	var id int64
	err := s.call(ctx, "save review", func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, s.q(query), review.CustomerID, review.ProductID, review.Rating,
			review.Comment, s.now().UTC()).Scan(&id)
	})
	return id, err
}

func (s *SQLStore) DeleteReview(ctx context.Context, reviewID int64) error {
	return s.call(ctx, "delete review", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM review WHERE review_id = ?`), reviewID)
		return err
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.call(ctx, "ping database", s.db.PingContext)
}

var _ Store = (*SQLStore)(nil)
