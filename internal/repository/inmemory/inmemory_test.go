package inmemory

import (
	"testing"
	"time"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesCacheReturnsClones(t *testing.T) {
	cache := NewInMemoryCategoriesCache()
	key := ledgerdomain.SystemKeyFees
	cache.SetByUserID("u1", []ledgerdomain.Category{{ID: "c1", Name: "Fees", SystemKey: &key}}, time.Minute)

	first, ok := cache.GetByUserID("u1")
	require.True(t, ok)
	first[0].Name = "changed"
	*first[0].SystemKey = ledgerdomain.SystemKeyTransfer

	second, ok := cache.GetByUserID("u1")
	require.True(t, ok)
	assert.Equal(t, "Fees", second[0].Name)
	assert.Equal(t, ledgerdomain.SystemKeyFees, *second[0].SystemKey)

	cache.DeleteByUserID("u1")
	_, ok = cache.GetByUserID("u1")
	assert.False(t, ok)
}

func TestCategoriesCacheExpires(t *testing.T) {
	cache := NewInMemoryCategoriesCache()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.byUser.now = func() time.Time { return clock }

	cache.SetByUserID("u1", []ledgerdomain.Category{{ID: "c1"}}, time.Minute)
	_, ok := cache.GetByUserID("u1")
	require.True(t, ok)

	clock = clock.Add(time.Minute)
	_, ok = cache.GetByUserID("u1")
	assert.False(t, ok)
	assert.Empty(t, cache.byUser.entries)

	cache.SetByUserID("u1", []ledgerdomain.Category{{ID: "c1"}}, 0)
	_, ok = cache.GetByUserID("u1")
	assert.False(t, ok)
}

func TestRatesCache(t *testing.T) {
	cache := NewInMemoryRatesCache()
	cache.Set("USD", "COP", decimal.RequireFromString("4000"), time.Minute)

	rate, ok := cache.Get("USD", "COP")
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("4000")))

	_, ok = cache.Get("COP", "USD")
	assert.False(t, ok)

	clock := time.Now()
	cache.pairs.now = func() time.Time { return clock }
	cache.Set("USD", "EUR", decimal.RequireFromString("0.9"), time.Second)
	clock = clock.Add(2 * time.Second)
	_, ok = cache.Get("USD", "EUR")
	assert.False(t, ok)

	cache.Set("USD", "COP", decimal.RequireFromString("4100"), 0)
	_, ok = cache.Get("USD", "COP")
	assert.False(t, ok)
}
