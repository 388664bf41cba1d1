package dialog

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/browse"
	"orderbot/internal/checkout"
	"orderbot/internal/model"
	"orderbot/internal/orders"
	"orderbot/internal/review"
	"orderbot/internal/session"
	"orderbot/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seededDispatcher wires every service to an in-memory sqlite catalog.
func seededDispatcher(t *testing.T) (*Dispatcher, *store.SQLStore, *checkout.Service) {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(store.DriverSQLite, ":memory:", store.Options{Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Seed(ctx))

	logger := discardLogger()
	co := checkout.New(db, session.NewMemoryStore[session.Record](), logger, checkout.Config{})
	d := NewDispatcher(Services{
		Checkout: co,
		Review:   review.New(db, session.NewMemoryStore[review.Draft](), co, logger, review.Config{}),
		Browse:   browse.New(db, logger),
		Orders:   orders.New(db, co, logger),
	}, logger)
	return d, db, co
}

func turn(d *Dispatcher, intent, text string, params Params) model.Reply {
	return d.Dispatch(context.Background(), intent, Turn{SessionID: "s1", Text: text, Params: params})
}

func TestDispatch_UnknownIntent(t *testing.T) {
	d := NewDispatcher(Services{}, discardLogger())

	r := d.Dispatch(context.Background(), "order_pizza", Turn{SessionID: "s"})
	assert.Equal(t, model.CodeValidation, r.Code)
	assert.Equal(t, "Sorry, I don't understand the intent 'order_pizza'. Please try again.", r.Text)
}

func TestHandle_MissingSession(t *testing.T) {
	d := NewDispatcher(Services{}, discardLogger())
	d.Register("ping", func(context.Context, Turn) model.Reply { return model.Say("pong") })

	resp := d.Handle(context.Background(), &WebhookRequest{QueryResult: QueryResult{Intent: Intent{DisplayName: "ping"}}})
	assert.Contains(t, resp.FulfillmentText, "couldn't identify this conversation")
}

func TestDispatch_SerializesSameSession(t *testing.T) {
	d := NewDispatcher(Services{}, discardLogger())

	var (
		mu      sync.Mutex
		running int
		overlap bool
	)
	d.Register("slow", func(context.Context, Turn) model.Reply {
		mu.Lock()
		running++
		if running > 1 {
			overlap = true
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return model.Say("ok")
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), "slow", Turn{SessionID: "same"})
		}()
	}
	wg.Wait()

	assert.False(t, overlap, "turns of one session must not run concurrently")
}

func TestIntentsCoversAllServices(t *testing.T) {
	d, _, _ := seededDispatcher(t)

	intents := d.Intents()
	for _, name := range []string{
		"confirm_order", "update_order", "remove_items", "proceed_to_checkout", "apply_coupon_code",
		"identify_customer", "confirm_customer_info", "use_default_address", "request_new_shipping_address",
		"process_new_shipping_address", "confirm_new_address", "confirm_shipping_method",
		"select_payment_method", "confirm_order_placement", "end_conversation", "cancel_order",
		"submit_review_start", "submit_review_product_confirm", "submit_review_details_collect",
		"submit_review_edit", "submit_review_submit", "submit_review_continue",
		"submit_review_select_different_product", "submit_review_end", "submit_review_cancel",
		"search_products_by_brand", "search_products_by_price", "product_details", "cheapest_product",
		"track_orders", "cancel_placed_order", "change_order_address",
	} {
		assert.Contains(t, intents, name)
	}
}

func TestConversation_CheckoutThenReview(t *testing.T) {
	d, db, co := seededDispatcher(t)
	ctx := context.Background()

	steps := []struct {
		intent string
		text   string
		params Params
	}{
		{"confirm_order", "1 iPhone 15", Params{"product": []any{"iPhone 15"}, "number": []any{float64(1)}}},
		{"proceed_to_checkout", "checkout", nil},
		{"identify_customer", "emma@example.com", Params{"email": "emma@example.com"}},
		{"confirm_customer_info", "yes that's me", nil},
		{"use_default_address", "use my default address", nil},
		{"confirm_shipping_method", "standard", Params{"shipping_method": "Standard"}},
		{"select_payment_method", "cod", Params{"payment_method": "cod"}},
		{"confirm_order_placement", "place it", nil},
	}
	for _, s := range steps {
		r := turn(d, s.intent, s.text, s.params)
		require.True(t, r.OK(), "%s: %s", s.intent, r.Text)
	}

	rec, err := co.Session(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, session.StagePlaced, rec.Stage())
	assert.Equal(t, "COD", rec.PaymentMethod)

	p, err := db.ProductByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)

	r := turn(d, "track_orders", "where are my orders", nil)
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "iPhone 15")

	// Review a delivered purchase using the identity from checkout.
	r = turn(d, "submit_review_start", "I want to leave a review", nil)
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "AirPods Pro")

	r = turn(d, "submit_review_product_confirm", "AirPods Pro", Params{"product": "AirPods Pro"})
	require.True(t, r.OK(), r.Text)
	r = turn(d, "submit_review_details_collect", "5 stars, love them", Params{"rating": float64(5), "comment": "love them"})
	require.True(t, r.OK(), r.Text)
	r = turn(d, "submit_review_submit", "submit it now", nil)
	require.True(t, r.OK(), r.Text)

	left, err := db.UnreviewedProducts(ctx, 1)
	require.NoError(t, err)
	for _, u := range left {
		assert.NotEqual(t, "AirPods Pro", u.Name)
	}

	r = turn(d, "end_conversation", "bye", nil)
	require.True(t, r.OK(), r.Text)
	rec, err = co.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestConversation_OutOfOrderStepsReportMissing(t *testing.T) {
	d, _, _ := seededDispatcher(t)

	r := turn(d, "confirm_order_placement", "place it", nil)
	assert.False(t, r.OK())

	r = turn(d, "select_payment_method", "paypal", Params{"payment_method": "PayPal"})
	assert.False(t, r.OK())
}
