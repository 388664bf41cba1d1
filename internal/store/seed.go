package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// seedStatements load a small demo catalog. Ids follow insertion order on an
// empty database.
var seedStatements = []struct {
	query string
	args  []any
}{
	{`INSERT INTO brand (brand_name, description, origin_country) VALUES (?, ?, ?)`, []any{"Apple", "Consumer electronics", "USA"}},
	{`INSERT INTO brand (brand_name, description, origin_country) VALUES (?, ?, ?)`, []any{"Samsung", "Electronics conglomerate", "South Korea"}},
	{`INSERT INTO brand (brand_name, description, origin_country) VALUES (?, ?, ?)`, []any{"Sony", "Audio and imaging", "Japan"}},

	{`INSERT INTO category (category_name) VALUES (?)`, []any{"Phones"}},
	{`INSERT INTO category (category_name) VALUES (?)`, []any{"Audio"}},

	{`INSERT INTO product (product_name, description, price, specifications, brand_id, category_id, stock_quantity) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		[]any{"iPhone 15", "6.1-inch smartphone", "999.00", "128GB, A16 Bionic", 1, 1, 10}},
	{`INSERT INTO product (product_name, description, price, specifications, brand_id, category_id, stock_quantity) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		[]any{"Galaxy S24", "6.2-inch smartphone", "799.00", "256GB, Snapdragon 8 Gen 3", 2, 1, 5}},
	{`INSERT INTO product (product_name, description, price, specifications, brand_id, category_id, stock_quantity) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		[]any{"WH-1000XM5", "Noise cancelling headphones", "349.99", "30h battery", 3, 2, 0}},
	{`INSERT INTO product (product_name, description, price, specifications, brand_id, category_id, stock_quantity) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		[]any{"AirPods Pro", "Wireless earbuds", "249.00", "USB-C case", 1, 2, 20}},

	{`INSERT INTO customer (name, email, phone) VALUES (?, ?, ?)`, []any{"Emma Wang", "emma@example.com", "0900000001"}},
	{`INSERT INTO customer (name, email, phone) VALUES (?, ?, ?)`, []any{"John Doe", "john@example.com", "0900000002"}},

	{`INSERT INTO shipping_address (customer_id, receiver_name, receiver_phone, country, city, province_state, postal_code, is_default) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		[]any{1, "Emma Wang", "0900000001", "Vietnam", "Hanoi", "Hanoi", "100000", true}},

	{`INSERT INTO shipping_method (method_name, cost_per_product, average_delivery_time_per_km) VALUES (?, ?, ?)`, []any{"Standard", "2.00", "0.5"}},
	{`INSERT INTO shipping_method (method_name, cost_per_product, average_delivery_time_per_km) VALUES (?, ?, ?)`, []any{"Express", "5.00", "0.2"}},

	{`INSERT INTO payment_method (method_name, description) VALUES (?, ?)`, []any{"Credit Card", "Visa, Mastercard"}},
	{`INSERT INTO payment_method (method_name, description) VALUES (?, ?)`, []any{"COD", "Cash on delivery"}},
	{`INSERT INTO payment_method (method_name, description) VALUES (?, ?)`, []any{"PayPal", "PayPal checkout"}},

	{`INSERT INTO promotion (coupon_code, description, discount_value, minimum_order, status) VALUES (?, ?, ?, ?, ?)`,
		[]any{"SAVE10", "10% off orders over $100", "10", "100", "active"}},
	{`INSERT INTO promotion (coupon_code, description, discount_value, minimum_order, status) VALUES (?, ?, ?, ?, ?)`,
		[]any{"BIG20", "20% off orders over $1500", "20", "1500", "active"}},
	{`INSERT INTO promotion (coupon_code, description, discount_value, minimum_order, status) VALUES (?, ?, ?, ?, ?)`,
		[]any{"OLD5", "Retired launch coupon", "5", "0", "inactive"}},
}

// seedOrders give the first customer one delivered and one processing order.
var seedOrders = []struct {
	status    string
	productID int64
	quantity  int
	total     string
}{
	{"delivered", 4, 1, "251.00"},
	{"processing", 2, 1, "801.00"},
}

// Seed loads the demo catalog into an empty database. It is a no-op when
// products already exist.
func (s *SQLStore) Seed(ctx context.Context) error {
	return s.call(ctx, "seed database", func(ctx context.Context) error {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM product`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("database already seeded", "products", n)
			return nil
		}

		return s.inTx(ctx, func(tx *sql.Tx) error {
			for _, st := range seedStatements {
				if _, err := tx.ExecContext(ctx, s.q(st.query), st.args...); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}

			placed := s.now().UTC().Add(-14 * 24 * time.Hour)
			for _, o := range seedOrders {
				var orderID int64
				err := tx.QueryRowContext(ctx, s.q(insertOrder),
					1, 2, 1, 1, nil, o.total, "2.00", "0", placed, placed.Add(50*time.Hour),
					"paid", o.status, "seed order").Scan(&orderID)
				if err != nil {
					return fmt.Errorf("seed order: %w", err)
				}
				if _, err := tx.ExecContext(ctx, s.q(insertOrderItem), orderID, o.productID, o.quantity); err != nil {
					return fmt.Errorf("seed order item: %w", err)
				}
			}
			return nil
		})
	})
}
