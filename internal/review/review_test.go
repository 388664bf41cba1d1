package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/model"
	"orderbot/internal/session"
	"orderbot/internal/store"
)

const sid = "sess-r"

type fixture struct {
	svc      *Service
	catalog  *store.Mock
	drafts   *session.MemoryStore[Draft]
	reviewed map[int64]bool
	inserted []model.NewReview
	deleted  []int64
}

type staticCustomer struct{ c *model.Customer }

func (s staticCustomer) CustomerFor(context.Context, string) (*model.Customer, error) {
	return s.c, nil
}

func newFixture(t *testing.T, identified *model.Customer) *fixture {
	t.Helper()

	delivered := []model.UnreviewedProduct{
		{ProductID: 4, Name: "AirPods Pro", Price: decimal.NewFromInt(249), Brand: "Apple", Category: "Audio"},
		{ProductID: 2, Name: "Galaxy S24", Price: decimal.NewFromInt(799), Brand: "Samsung", Category: "Phones"},
	}

	f := &fixture{drafts: session.NewMemoryStore[Draft](), reviewed: map[int64]bool{}}
	f.catalog = &store.Mock{
		UnreviewedProductsFunc: func(_ context.Context, customerID int64) ([]model.UnreviewedProduct, error) {
			if customerID != 1 {
				return nil, nil
			}
			var out []model.UnreviewedProduct
			for _, p := range delivered {
				if !f.reviewed[p.ProductID] {
					out = append(out, p)
				}
			}
			return out, nil
		},
		CustomerByContactFunc: func(_ context.Context, email, phone string) (*model.Customer, error) {
			if email == "emma@example.com" {
				return &model.Customer{ID: 1, Name: "Emma Wang"}, nil
			}
			return nil, nil
		},
		InsertReviewFunc: func(_ context.Context, r model.NewReview) (int64, error) {
			f.inserted = append(f.inserted, r)
			f.reviewed[r.ProductID] = true
			return int64(40 + len(f.inserted)), nil
		},
		DeleteReviewFunc: func(_ context.Context, id int64) error {
			f.deleted = append(f.deleted, id)
			return nil
		},
	}

	f.svc = New(f.catalog, f.drafts, staticCustomer{identified}, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{})
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func emma() *model.Customer { return &model.Customer{ID: 1, Name: "Emma Wang"} }

func lifespanOf(r model.Reply, name string) (int, bool) {
	for _, c := range r.Contexts {
		if c.Name == name {
			return c.Lifespan, true
		}
	}
	return 0, false
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"4", 4, true},
		{"5 stars", 5, true},
		{"3.0", 3, true},
		{"4.5", 0, false},
		{"0", 0, false},
		{"6", 6, false},
		{"great", 0, false},
		{"-3", 0, false},
		{"-1 stars", 0, false},
		{"-4.0", 0, false},
		{"4 - loved it", 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseRating(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStart_ListsUnreviewedProducts(t *testing.T) {
	f := newFixture(t, emma())

	r := f.svc.Start(context.Background(), sid, Params{})
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "AirPods Pro ($249.00, Apple brand, Audio category)")
	assert.Contains(t, r.Text, "Galaxy S24")
	life, ok := lifespanOf(r, ContextActive)
	require.True(t, ok)
	assert.Equal(t, 5, life)
}

func TestStart_NoCustomer(t *testing.T) {
	f := newFixture(t, nil)

	r := f.svc.Start(context.Background(), sid, Params{})
	assert.Equal(t, model.CodePrecondition, r.Code)
	assert.Empty(t, f.inserted)
}

func TestStart_CustomerByEmail(t *testing.T) {
	f := newFixture(t, nil)

	r := f.svc.Start(context.Background(), sid, Params{Email: "emma@example.com"})
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "AirPods Pro")

	d, ok, err := f.drafts.Get(context.Background(), sid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), d.CustomerID)
}

func TestStart_DefaultCustomer(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.cfg.DefaultCustomerID = 1

	r := f.svc.Start(context.Background(), sid, Params{})
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "Galaxy S24")
}

func TestProductConfirm_RejectsUnknownProduct(t *testing.T) {
	f := newFixture(t, emma())

	r := f.svc.ProductConfirm(context.Background(), sid, Params{Product: "iPhone 15"})
	assert.Equal(t, model.CodeNotFound, r.Code)
	assert.Contains(t, r.Text, "AirPods Pro")

	r = f.svc.ProductConfirm(context.Background(), sid, Params{})
	assert.Equal(t, model.CodeValidation, r.Code)
}

func TestDetailsCollect_ValidatesRating(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "airpods pro"}).OK())

	r := f.svc.DetailsCollect(ctx, sid, Params{})
	assert.Equal(t, model.CodeValidation, r.Code)

	r = f.svc.DetailsCollect(ctx, sid, Params{Rating: "7"})
	assert.Equal(t, model.CodeValidation, r.Code)

	r = f.svc.DetailsCollect(ctx, sid, Params{Rating: "4", Comment: "Great sound"})
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "Rating: 4/5")
	assert.Contains(t, r.Text, "Comment: Great sound")
	_, ok := lifespanOf(r, ContextConfirm)
	assert.True(t, ok)
}

func TestFullReviewFlow(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()

	require.True(t, f.svc.Start(ctx, sid, Params{}).OK())
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "AirPods Pro", InitialComment: "Comfy"}).OK())
	require.True(t, f.svc.DetailsCollect(ctx, sid, Params{Rating: "4"}).OK())

	r := f.svc.Edit(ctx, sid, Params{NewRating: "5 stars"})
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "Rating: 5/5")
	assert.Contains(t, r.Text, "Comment: Comfy")

	r = f.svc.Submit(ctx, sid, Params{})
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "Review date: 2026-03-01")
	_, ok := lifespanOf(r, ContextFinalize)
	assert.True(t, ok)
	require.Len(t, f.inserted, 1)
	assert.Equal(t, model.NewReview{CustomerID: 1, ProductID: 4, Rating: 5, Comment: "Comfy"}, f.inserted[0])

	// A second submit must not insert again.
	r = f.svc.Submit(ctx, sid, Params{})
	assert.True(t, r.OK())
	assert.Len(t, f.inserted, 1)

	r = f.svc.Continue(ctx, sid, Params{})
	require.True(t, r.OK(), r.Text)
	assert.NotContains(t, r.Text, "AirPods Pro")
	assert.Contains(t, r.Text, "Galaxy S24")

	r = f.svc.End(ctx, sid)
	require.True(t, r.OK())
	for _, name := range []string{ContextActive, ContextConfirm, ContextFinalize} {
		life, ok := lifespanOf(r, name)
		assert.True(t, ok, name)
		assert.Zero(t, life, name)
	}
	_, ok, err := f.drafts.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEdit_KeepsPreviousRatingWhenNoneGiven(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "Galaxy S24"}).OK())
	require.True(t, f.svc.DetailsCollect(ctx, sid, Params{Rating: "3", Comment: "ok"}).OK())

	r := f.svc.Edit(ctx, sid, Params{NewComment: "better than expected"})
	require.True(t, r.OK(), r.Text)
	assert.Contains(t, r.Text, "Rating: 3/5")
	assert.Contains(t, r.Text, "Comment: better than expected")
}

func TestSubmit_RechecksUnreviewedList(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "Galaxy S24"}).OK())
	require.True(t, f.svc.DetailsCollect(ctx, sid, Params{Rating: "4"}).OK())

	// Reviewed elsewhere in the meantime.
	f.reviewed[2] = true

	r := f.svc.Submit(ctx, sid, Params{})
	assert.Equal(t, model.CodeNotFound, r.Code)
	assert.Empty(t, f.inserted)
}

func TestSubmit_StoreFailure(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "Galaxy S24"}).OK())
	require.True(t, f.svc.DetailsCollect(ctx, sid, Params{Rating: "4"}).OK())
	f.catalog.InsertReviewFunc = func(context.Context, model.NewReview) (int64, error) {
		return 0, model.NewTimeoutError("insert review")
	}

	r := f.svc.Submit(ctx, sid, Params{})
	assert.Equal(t, model.CodeTimeout, r.Code)
	_, ok := lifespanOf(r, ContextConfirm)
	assert.True(t, ok)
}

func TestCancel_WithdrawsSubmittedReview(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "Galaxy S24"}).OK())
	require.True(t, f.svc.DetailsCollect(ctx, sid, Params{Rating: "2"}).OK())
	require.True(t, f.svc.Submit(ctx, sid, Params{}).OK())

	r := f.svc.Cancel(ctx, sid)
	require.True(t, r.OK(), r.Text)
	assert.Equal(t, []int64{41}, f.deleted)
	assert.Contains(t, r.Text, "withdrawn")
}

func TestCancel_BeforeSubmit(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "Galaxy S24"}).OK())

	r := f.svc.Cancel(ctx, sid)
	require.True(t, r.OK())
	assert.Empty(t, f.deleted)
	assert.Zero(t, f.drafts.Len())
}

func TestSelectDifferentProduct_ResetsDetails(t *testing.T) {
	f := newFixture(t, emma())
	ctx := context.Background()
	require.True(t, f.svc.ProductConfirm(ctx, sid, Params{Product: "Galaxy S24"}).OK())
	require.True(t, f.svc.DetailsCollect(ctx, sid, Params{Rating: "2", Comment: "meh"}).OK())

	r := f.svc.SelectDifferentProduct(ctx, sid, Params{Product: "AirPods Pro"})
	require.True(t, r.OK(), r.Text)

	d, _, err := f.drafts.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.ProductID)
	assert.Zero(t, d.Rating)
	assert.Empty(t, d.Comment)
}

func TestStart_UnreviewedLookupFails(t *testing.T) {
	f := newFixture(t, emma())
	f.catalog.UnreviewedProductsFunc = func(context.Context, int64) ([]model.UnreviewedProduct, error) {
		return nil, model.NewPersistenceError("unreviewed products", errors.New("conn reset"))
	}

	r := f.svc.Start(context.Background(), sid, Params{})
	assert.Equal(t, model.CodePersistence, r.Code)
}
