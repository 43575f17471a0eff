package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetFromCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("fundamentals:TCS", 42, time.Minute)
	c.Set("wrong-type", "x", time.Minute)

	got, ok := GetFromCache[int](c, "fundamentals:TCS")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	_, ok = GetFromCache[int](c, "wrong-type")
	assert.False(t, ok)

	_, ok = GetFromCache[int](c, "missing")
	assert.False(t, ok)

	_, ok = GetFromCache[int](nil, "fundamentals:TCS")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("k", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}
