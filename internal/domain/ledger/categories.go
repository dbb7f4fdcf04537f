package ledger

import (
	"context"
	"errors"
	"strings"
)

const maxCategoryNameLength = 50

// systemCategories resolves system categories inside one unit of work and
// remembers whether any of them had to be created or adopted.
type systemCategories struct {
	tx      Repository
	userID  string
	changed bool
}

func newSystemCategories(tx Repository, userID string) *systemCategories {
	return &systemCategories{tx: tx, userID: userID}
}

func (r *systemCategories) get(ctx context.Context, key SystemKey) (*Category, error) {
	def, ok := systemCategoryDefaults[key]
	if !ok {
		return nil, ErrInvalidCategory
	}
	return r.resolve(ctx, key, def.Name, def.Type)
}

// resolve looks the category up by key, then adopts an unkeyed category with
// the default name, then creates it. A unique violation on (user, key) means
// a concurrent caller won the insert, so the key lookup runs once more.
func (r *systemCategories) resolve(ctx context.Context, key SystemKey, defaultName string, categoryType CategoryType) (*Category, error) {
	category, err := r.tx.GetCategoryBySystemKey(ctx, r.userID, key)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	systemKey := key
	name := defaultName
	adopted, err := r.tx.GetUnkeyedCategoryByName(ctx, r.userID, defaultName)
	switch {
	case err == nil:
		adoptable, err := r.adoptable(ctx, adopted, categoryType)
		if err != nil {
			return nil, err
		}
		if !adoptable {
			// The user's category keeps its name and type, so the system one
			// needs a name that does not clash with it.
			name = defaultName + " (system)"
			break
		}
		if !adopted.Type.Covers(categoryType) {
			adopted.Type = categoryType
		}
		adopted.IsSystem = true
		adopted.IsActive = true
		adopted.SystemKey = &systemKey
		if err := r.tx.UpdateCategory(ctx, adopted); err != nil {
			if errors.Is(err, ErrConflict) {
				return r.tx.GetCategoryBySystemKey(ctx, r.userID, key)
			}
			return nil, err
		}
		r.changed = true
		return adopted, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	category = &Category{
		ID:        newID(),
		UserID:    r.userID,
		Name:      name,
		Type:      categoryType,
		IsActive:  true,
		IsSystem:  true,
		SystemKey: &systemKey,
	}
	if err := r.tx.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, ErrConflict) {
			return r.tx.GetCategoryBySystemKey(ctx, r.userID, key)
		}
		return nil, err
	}
	r.changed = true
	return category, nil
}

// adoptable reports whether an unkeyed category can become the system one.
// Its type may only be widened while no transaction references it.
func (r *systemCategories) adoptable(ctx context.Context, category *Category, categoryType CategoryType) (bool, error) {
	if category.Type.Covers(categoryType) {
		return true, nil
	}
	count, err := r.tx.CountTransactionsByCategory(ctx, r.userID, category.ID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *Service) invalidateCategories(userID string, changed bool) {
	if changed {
		s.categoriesCache.DeleteByUserID(userID)
	}
}

// ProvisionSystemCategories makes sure every system category exists for the
// user and returns them in SystemKeys order.
func (s *Service) ProvisionSystemCategories(ctx context.Context, userID string) ([]Category, error) {
	var (
		result  []Category
		changed bool
	)
	err := s.inTx(ctx, func(tx Repository) error {
		resolver := newSystemCategories(tx, userID)
		result = result[:0]
		for _, key := range SystemKeys() {
			category, err := resolver.get(ctx, key)
			if err != nil {
				return err
			}
			result = append(result, *category)
		}
		changed = resolver.changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCategories(userID, changed)
	return result, nil
}

// usableCategory returns the category when it can tag a transaction of the
// given type.
func usableCategory(ctx context.Context, tx Repository, userID, categoryID string, txType TransactionType) (*Category, error) {
	if !validID(categoryID) {
		return nil, ErrInvalidCategory
	}
	category, err := tx.GetCategory(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCategory
		}
		return nil, err
	}
	if !category.IsActive || !category.Type.Accepts(txType) {
		return nil, ErrInvalidCategory
	}
	return category, nil
}

func normalizeCategoryName(value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" || len([]rune(name)) > maxCategoryNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *Service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*Category, error) {
	name, err := normalizeCategoryName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidType
	}

	category := Category{
		ID:       newID(),
		UserID:   input.UserID,
		Name:     name,
		Type:     input.Type,
		IsActive: true,
	}

	err = s.inTx(ctx, func(tx Repository) error {
		count, err := tx.CountActiveCategoriesByName(ctx, input.UserID, name, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryNameTaken
		}
		return tx.CreateCategory(ctx, &category)
	})
	if err != nil {
		return nil, err
	}

	s.categoriesCache.DeleteByUserID(input.UserID)
	return &category, nil
}

func (s *Service) GetCategory(ctx context.Context, userID, categoryID string) (*Category, error) {
	return s.repo.GetCategory(ctx, userID, categoryID)
}

// ListCategories filters by status (active by default) and by type, where a
// type filter also matches categories of type both.
func (s *Service) ListCategories(ctx context.Context, userID string, filter CategoryFilter) ([]Category, error) {
	categories, ok := s.categoriesCache.GetByUserID(userID)
	if !ok {
		var err error
		categories, err = s.repo.ListCategories(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.categoriesCache.SetByUserID(userID, categories, s.categoriesCacheTTL)
	}

	status := filter.Status
	if status == "" {
		status = CategoryStatusActive
	}

	result := make([]Category, 0, len(categories))
	for _, category := range categories {
		if status == CategoryStatusActive && !category.IsActive {
			continue
		}
		if status == CategoryStatusInactive && category.IsActive {
			continue
		}
		if filter.Type != nil && category.Type != *filter.Type && category.Type != CategoryTypeBoth {
			continue
		}
		result = append(result, category)
	}
	return result, nil
}

func (s *Service) UpdateCategory(ctx context.Context, input UpdateCategoryInput) (*Category, error) {
	var updated Category
	err := s.inTx(ctx, func(tx Repository) error {
		category, err := tx.GetCategory(ctx, input.UserID, input.CategoryID)
		if err != nil {
			return err
		}

		if input.Type != nil && *input.Type != category.Type {
			if !input.Type.Valid() {
				return ErrInvalidType
			}
			if category.IsSystem {
				return ErrCategorySystem
			}
			count, err := tx.CountTransactionsByCategory(ctx, input.UserID, category.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrCategoryInUse
			}
			category.Type = *input.Type
		}

		if input.Name != nil {
			name, err := normalizeCategoryName(*input.Name)
			if err != nil {
				return err
			}
			if category.IsActive && !strings.EqualFold(name, category.Name) {
				count, err := tx.CountActiveCategoriesByName(ctx, input.UserID, name, category.ID)
				if err != nil {
					return err
				}
				if count > 0 {
					return ErrCategoryNameTaken
				}
			}
			category.Name = name
		}

		if err := tx.UpdateCategory(ctx, category); err != nil {
			return err
		}
		updated = *category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.categoriesCache.DeleteByUserID(input.UserID)
	return &updated, nil
}

// DeactivateCategory soft-deletes a user category that no transaction uses.
func (s *Service) DeactivateCategory(ctx context.Context, userID, categoryID string) (*Category, error) {
	var updated Category
	err := s.inTx(ctx, func(tx Repository) error {
		category, err := tx.GetCategory(ctx, userID, categoryID)
		if err != nil {
			return err
		}
		if category.IsSystem {
			return ErrCategorySystem
		}
		count, err := tx.CountTransactionsByCategory(ctx, userID, category.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}

		if category.IsActive {
			category.IsActive = false
			if err := tx.UpdateCategory(ctx, category); err != nil {
				return err
			}
		}
		updated = *category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.categoriesCache.DeleteByUserID(userID)
	return &updated, nil
}

func (s *Service) ReactivateCategory(ctx context.Context, userID, categoryID string) (*Category, error) {
	var updated Category
	err := s.inTx(ctx, func(tx Repository) error {
		category, err := tx.GetCategory(ctx, userID, categoryID)
		if err != nil {
			return err
		}
		if category.IsActive {
			return ErrCategoryActive
		}
		count, err := tx.CountActiveCategoriesByName(ctx, userID, category.Name, category.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryNameTaken
		}

		category.IsActive = true
		if err := tx.UpdateCategory(ctx, category); err != nil {
			return err
		}
		updated = *category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.categoriesCache.DeleteByUserID(userID)
	return &updated, nil
}
