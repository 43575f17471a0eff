package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimiterStore_PerKey(t *testing.T) {
	store := NewLimiterStore(rate.Limit(1), 1)

	assert.Same(t, store.GetLimiter("a"), store.GetLimiter("a"))
	assert.NotSame(t, store.GetLimiter("a"), store.GetLimiter("b"))
	assert.Equal(t, 2, store.Len())
}

func TestLimiterStore_Wait(t *testing.T) {
	store := NewLimiterStore(rate.Every(time.Hour), 1)

	require.NoError(t, store.Wait(context.Background(), 42))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, store.Wait(ctx, 42))
	assert.NoError(t, store.Wait(context.Background(), 7))
}
