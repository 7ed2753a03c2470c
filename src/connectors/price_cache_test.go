package connectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPriceCacheExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewPriceCache(2 * time.Second)
	c.now = func() time.Time { return now }

	c.Set("KASUSDC", 0.1)
	p, ok := c.Get("KASUSDC")
	require.True(t, ok)
	require.InDelta(t, 0.1, p, 1e-12)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("KASUSDC")
	require.False(t, ok)
}

func TestPriceCacheDisabledAndNil(t *testing.T) {
	c := NewPriceCache(0)
	c.Set("KASUSDC", 0.1)
	_, ok := c.Get("KASUSDC")
	require.False(t, ok)

	var nilCache *PriceCache
	nilCache.Set("KASUSDC", 0.1)
	_, ok = nilCache.Get("KASUSDC")
	require.False(t, ok)
}
