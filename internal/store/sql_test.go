package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/model"
)

func newMockStore(t *testing.T, opts Options) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(db, DriverPostgres, opts)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s, mock
}

func sampleOrder() model.NewOrder {
	return model.NewOrder{
		SessionID:         "sess-1",
		CustomerID:        1,
		PaymentMethodID:   2,
		ShippingMethodID:  1,
		ShippingAddressID: 7,
		TotalAmount:       decimal.RequireFromString("204.00"),
		ShippingFee:       decimal.RequireFromString("4.00"),
		Discount:          decimal.Zero,
		EstimatedDelivery: time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
		Lines: []model.OrderLine{
			{ProductID: 10, Quantity: 1},
			{ProductID: 11, Quantity: 1},
		},
	}
}

func TestPlaceOrder_Commits(t *testing.T) {
	s, mock := newMockStore(t, Options{})
	order := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(int64(1), int64(2), int64(1), int64(7), nil,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"pending", "pending", "Order placed via chatbot (session: sess-1)").
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(42))
	for _, l := range order.Lines {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE product SET stock_quantity = stock_quantity - $1")).
			WithArgs(l.Quantity, l.ProductID, l.Quantity).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_item (order_id, product_id, quantity) VALUES ($1, $2, $3)")).
			WithArgs(int64(42), l.ProductID, l.Quantity).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	id, err := s.PlaceOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_RollsBackWhenItemInsertFails(t *testing.T) {
	s, mock := newMockStore(t, Options{})
	order := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product SET stock_quantity")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_item")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product SET stock_quantity")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_item")).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	id, err := s.PlaceOrder(context.Background(), order)
	assert.Zero(t, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistence)

	apiErr, ok := model.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, model.CodePersistence, apiErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_RollsBackOnStockShortage(t *testing.T) {
	s, mock := newMockStore(t, Options{})
	order := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product SET stock_quantity")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.PlaceOrder(context.Background(), order)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPrecondition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_HeaderFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.PlaceOrder(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductByID_NotFoundReturnsNil(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.product_id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}))

	p, err := s.ProductByID(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsByName(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	rows := sqlmock.NewRows([]string{"product_id", "product_name", "description", "price", "specifications",
		"brand_name", "brand_description", "origin_country", "category_name", "stock_quantity"}).
		AddRow(1, "iPhone 15", "phone", "999.00", "128GB", "Apple", "", "USA", "Phones", 10)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(p.product_name) = LOWER($1)")).
		WithArgs("iphone 15").
		WillReturnRows(rows)

	products, err := s.ProductsByName(context.Background(), " iphone 15 ")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "iPhone 15", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(999)))
	assert.Equal(t, 10, products[0].Stock)
}

func TestCustomerByContact_NoIdentifiers(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	c, err := s.CustomerByContact(context.Background(), " ", "")
	assert.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerByContact_EmailOrPhone(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectQuery(regexp.QuoteMeta("(LOWER(email) = LOWER($1) OR phone = $2)")).
		WithArgs("emma@example.com", "0900000001").
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "name", "email", "phone"}).
			AddRow(1, "Emma Wang", "emma@example.com", "0900000001"))

	c, err := s.CustomerByContact(context.Background(), "emma@example.com", "0900000001")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int64(1), c.ID)
}

func TestCall_TimeoutIsRetryable(t *testing.T) {
	s, mock := newMockStore(t, Options{QueryTimeout: 10 * time.Millisecond})

	mock.ExpectQuery("SELECT").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"shipping_method_id"}))

	_, err := s.ShippingMethods(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTimeout)

	apiErr, ok := model.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.Retryable())
}

func TestCall_PersistenceError(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectQuery("SELECT payment_method_id").
		WillReturnError(errors.New("relation does not exist"))

	_, err := s.PaymentMethods(context.Background())
	assert.ErrorIs(t, err, model.ErrPersistence)
}

func TestCancelOrder_NotProcessing(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WithArgs(int64(5), int64(1), "processing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	ok, err := s.CancelOrder(context.Background(), 5, 1)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_RestocksAndDeletes(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WithArgs(int64(5), int64(1), "processing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT product_id, quantity FROM order_item WHERE order_id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).AddRow(2, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product SET stock_quantity = stock_quantity + $1")).
		WithArgs(3, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM order_item WHERE order_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE order_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := s.CancelOrder(context.Background(), 5, 1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
