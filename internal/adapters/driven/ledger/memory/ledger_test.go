package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_ClaimOnce(t *testing.T) {
	l := New()
	ctx := context.Background()

	ok, err := l.Claim(ctx, "e1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Claim(ctx, "e1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "e1"))
	ok, _ = l.Claim(ctx, "e1", time.Hour)
	assert.True(t, ok)
}

func TestLedger_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := l.Claim(ctx, "e1", time.Minute)
	require.True(t, ok)
	ok, _ = l.Claim(ctx, "forever", 0)
	require.True(t, ok)
	assert.Equal(t, 2, l.Len())

	now = now.Add(time.Minute)
	assert.Equal(t, 1, l.Len())
	ok, _ = l.Claim(ctx, "e1", time.Minute)
	assert.True(t, ok)
	ok, _ = l.Claim(ctx, "forever", 0)
	assert.False(t, ok)
}

func TestLedger_ConcurrentClaims(t *testing.T) {
	l := New()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Claim(context.Background(), "same", time.Hour); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
