package fx

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider returns the latest rates from base to every quoted currency.
type Provider interface {
	Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

type RatesCache interface {
	Get(from, to string) (decimal.Decimal, bool)
	Set(from, to string, rate decimal.Decimal, ttl time.Duration)
}

type noopRatesCache struct{}

func (noopRatesCache) Get(string, string) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

func (noopRatesCache) Set(string, string, decimal.Decimal, time.Duration) {}
