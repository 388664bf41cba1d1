package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/cart"
)

func TestMemoryStore_UpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Record]()

	_, ok, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Upsert(ctx, "abc", func(r *Record) error {
		r.Lines = cart.Add(r.Lines, 1, 2)
		return nil
	})
	require.NoError(t, err)

	rec, ok, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []cart.Line{{ProductID: 1, Quantity: 2}}, rec.Lines)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, ok, err = s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting twice is fine
	assert.NoError(t, s.Delete(ctx, "abc"))
}

func TestMemoryStore_MutateErrorSavesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Record]()
	boom := errors.New("boom")

	err := s.Upsert(ctx, "abc", func(r *Record) error {
		r.PaymentMethod = "COD"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_NoAliasing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Record]()

	require.NoError(t, s.Upsert(ctx, "abc", func(r *Record) error {
		r.Lines = []cart.Line{{ProductID: 1, Quantity: 1}}
		return nil
	}))

	rec, _, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	rec.Lines[0].Quantity = 99

	again, _, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Lines[0].Quantity)
}

func TestMemoryStore_ConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Record]()
	locker := NewLocker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("shared")
			defer unlock()
			_ = s.Upsert(ctx, "shared", func(r *Record) error {
				r.Lines = cart.Add(r.Lines, 1, 1)
				return nil
			})
		}()
	}
	wg.Wait()

	rec, ok, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50, rec.Lines[0].Quantity)
}
