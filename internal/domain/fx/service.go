package fx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultCacheTTL = 10 * time.Minute

type Service struct {
	provider Provider
	cache    RatesCache
	cacheTTL time.Duration
}

func NewService(provider Provider, cache RatesCache, ttl time.Duration) *Service {
	if cache == nil {
		cache = noopRatesCache{}
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{provider: provider, cache: cache, cacheTTL: ttl}
}

// Rate returns how many units of to one unit of from buys. Every rate the
// provider quotes for from is cached, so sibling pairs are served without
// another request.
func (s *Service) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, err := normalizeCurrency(from)
	if err != nil {
		return decimal.Zero, err
	}
	to, err = normalizeCurrency(to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if rate, ok := s.cache.Get(from, to); ok {
		return rate, nil
	}
	if s.provider == nil {
		return decimal.Zero, ErrProviderDisabled
	}

	rates, err := s.provider.Latest(ctx, from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	for quote, rate := range rates {
		if rate.IsPositive() {
			s.cache.Set(from, quote, rate, s.cacheTTL)
		}
	}

	rate, ok := rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no quote for %s/%s", ErrRateUnavailable, from, to)
	}
	return rate, nil
}

func normalizeCurrency(value string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(value))
	if len(currency) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return currency, nil
}
