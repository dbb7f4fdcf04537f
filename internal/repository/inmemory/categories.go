package inmemory

import (
	"time"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
)

// InMemoryCategoriesCache holds each user's category list. Lists are copied
// in and out so callers can never mutate a cached entry.
type InMemoryCategoriesCache struct {
	byUser *ttlMap[[]ledgerdomain.Category]
}

func NewInMemoryCategoriesCache() *InMemoryCategoriesCache {
	return &InMemoryCategoriesCache{byUser: newTTLMap[[]ledgerdomain.Category]()}
}

func (c *InMemoryCategoriesCache) GetByUserID(userID string) ([]ledgerdomain.Category, bool) {
	categories, ok := c.byUser.get(userID)
	if !ok {
		return nil, false
	}
	return copyCategories(categories), true
}

func (c *InMemoryCategoriesCache) SetByUserID(userID string, categories []ledgerdomain.Category, ttl time.Duration) {
	c.byUser.set(userID, copyCategories(categories), ttl)
}

func (c *InMemoryCategoriesCache) DeleteByUserID(userID string) {
	c.byUser.delete(userID)
}

// copyCategories also copies the system key, the only pointer a category
// carries.
func copyCategories(categories []ledgerdomain.Category) []ledgerdomain.Category {
	if categories == nil {
		return nil
	}
	out := append([]ledgerdomain.Category(nil), categories...)
	for i := range out {
		if key := out[i].SystemKey; key != nil {
			own := *key
			out[i].SystemKey = &own
		}
	}
	return out
}
