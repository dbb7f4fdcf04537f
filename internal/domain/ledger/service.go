package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultCategoriesCacheTTL = 5 * time.Minute

// debtTolerance absorbs rounding left over by payments that settle a debt.
var debtTolerance = decimal.NewFromFloat(0.01)

type Service struct {
	repo               Repository
	categoriesCache    CategoriesCache
	categoriesCacheTTL time.Duration
	now                func() time.Time
}

func NewService(repo Repository) *Service {
	return NewServiceWithCategoriesCache(repo, noopCategoriesCache{}, 0)
}

func NewServiceWithCategoriesCache(repo Repository, cache CategoriesCache, ttl time.Duration) *Service {
	if cache == nil {
		cache = noopCategoriesCache{}
	}
	if ttl <= 0 {
		ttl = defaultCategoriesCacheTTL
	}
	return &Service{
		repo:               repo,
		categoriesCache:    cache,
		categoriesCacheTTL: ttl,
		now:                time.Now,
	}
}

func (s *Service) inTx(ctx context.Context, fn func(tx Repository) error) error {
	return s.repo.Transaction(ctx, fn)
}

func (s *Service) dateOrNow(date *time.Time) time.Time {
	if date != nil && !date.IsZero() {
		return date.UTC()
	}
	return s.now().UTC()
}

func newID() string {
	return uuid.NewString()
}

// validID reports whether value can be a stored id. Ids are uuids, and
// anything else is rejected before it reaches the storage layer.
func validID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
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

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func descriptionOr(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func stringPtr(value string) *string {
	return &value
}
