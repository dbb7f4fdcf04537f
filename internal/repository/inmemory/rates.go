package inmemory

import (
	"time"

	"github.com/shopspring/decimal"
)

// InMemoryRatesCache keeps exchange rates per currency pair. A pair is
// directional: USD/COP and COP/USD are separate entries.
type InMemoryRatesCache struct {
	pairs *ttlMap[decimal.Decimal]
}

func NewInMemoryRatesCache() *InMemoryRatesCache {
	return &InMemoryRatesCache{pairs: newTTLMap[decimal.Decimal]()}
}

func (c *InMemoryRatesCache) Get(from, to string) (decimal.Decimal, bool) {
	return c.pairs.get(pairKey(from, to))
}

func (c *InMemoryRatesCache) Set(from, to string, rate decimal.Decimal, ttl time.Duration) {
	c.pairs.set(pairKey(from, to), rate, ttl)
}

func pairKey(from, to string) string {
	return from + "/" + to
}
