package store

import (
	"context"
	"fmt"
	"strings"
)

// schema is the catalog/orders DDL. {{pk}} and {{ts}} are replaced with the
// dialect's primary key and timestamp column types.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS brand (
		brand_id {{pk}},
		brand_name TEXT NOT NULL UNIQUE,
		description TEXT,
		origin_country TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS category (
		category_id {{pk}},
		category_name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS product (
		product_id {{pk}},
		product_name TEXT NOT NULL,
		description TEXT,
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		specifications TEXT,
		brand_id BIGINT NOT NULL REFERENCES brand(brand_id),
		category_id BIGINT REFERENCES category(category_id),
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS customer (
		customer_id {{pk}},
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		phone TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS shipping_address (
		address_id {{pk}},
		customer_id BIGINT NOT NULL REFERENCES customer(customer_id),
		receiver_name TEXT NOT NULL,
		receiver_phone TEXT NOT NULL,
		country TEXT NOT NULL,
		city TEXT NOT NULL,
		province_state TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS shipping_method (
		shipping_method_id {{pk}},
		method_name TEXT NOT NULL UNIQUE,
		cost_per_product NUMERIC(12,2) NOT NULL,
		average_delivery_time_per_km NUMERIC(10,4) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payment_method (
		payment_method_id {{pk}},
		method_name TEXT NOT NULL UNIQUE,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS promotion (
		promotion_id {{pk}},
		coupon_code TEXT NOT NULL UNIQUE,
		description TEXT,
		discount_value NUMERIC(5,2) NOT NULL,
		minimum_order NUMERIC(12,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		end_date {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id {{pk}},
		customer_id BIGINT NOT NULL REFERENCES customer(customer_id),
		payment_method_id BIGINT NOT NULL REFERENCES payment_method(payment_method_id),
		shipping_method_id BIGINT NOT NULL REFERENCES shipping_method(shipping_method_id),
		shipping_address_id BIGINT NOT NULL REFERENCES shipping_address(address_id),
		promotion_id BIGINT REFERENCES promotion(promotion_id),
		total_amount NUMERIC(12,2) NOT NULL,
		shipping_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount NUMERIC(12,2) NOT NULL DEFAULT 0,
		order_date {{ts}} NOT NULL,
		estimated_delivery_date {{ts}},
		payment_status TEXT NOT NULL,
		order_status TEXT NOT NULL,
		note TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS order_item (
		order_item_id {{pk}},
		order_id BIGINT NOT NULL REFERENCES orders(order_id),
		product_id BIGINT NOT NULL REFERENCES product(product_id),
		quantity INTEGER NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS review (
		review_id {{pk}},
		customer_id BIGINT NOT NULL REFERENCES customer(customer_id),
		product_id BIGINT NOT NULL REFERENCES product(product_id),
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT,
		review_date {{ts}} NOT NULL
	)`,
}

// Migrate creates any missing tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.call(ctx, "migrate", func(ctx context.Context) error {
		for _, stmt := range schema {
			ddl := strings.NewReplacer("{{pk}}", s.dialect.primaryKey, "{{ts}}", s.dialect.timestamp).Replace(stmt)
			if _, err := s.db.ExecContext(ctx, ddl); err != nil {
				return fmt.Errorf("applying schema: %w", err)
			}
		}
		return nil
	})
}
