package ledger

import (
	"context"
	"errors"
	"fmt"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository stores the ledger through gorm. It runs on PostgreSQL and
// MySQL in production and on SQLite in tests.
type GormRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewGorm(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(ledgerdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx, inTx: true})
	})
}

// forUpdate locks the selected rows when the repository is bound to a
// transaction.
func (r *GormRepository) forUpdate(query *gorm.DB) *gorm.DB {
	if !r.inTx {
		return query
	}
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *GormRepository) CreateAccount(ctx context.Context, account *ledgerdomain.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ledgerdomain.ErrAccountNameTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *GormRepository) GetAccount(ctx context.Context, userID, accountID string) (*ledgerdomain.Account, error) {
	var account ledgerdomain.Account
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND id = ?", userID, accountID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *GormRepository) ListAccounts(ctx context.Context, userID string) ([]ledgerdomain.Account, error) {
	var accounts []ledgerdomain.Account
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *GormRepository) UpdateAccount(ctx context.Context, account *ledgerdomain.Account) error {
	return r.db.WithContext(ctx).
		Model(&ledgerdomain.Account{}).
		Where("id = ? AND user_id = ?", account.ID, account.UserID).
		Updates(map[string]interface{}{
			"name":      account.Name,
			"type":      account.Type,
			"balance":   account.Balance,
			"status":    account.Status,
			"closed_at": account.ClosedAt,
		}).Error
}

func (r *GormRepository) DeleteAccount(ctx context.Context, userID, accountID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&ledgerdomain.Account{}, "user_id = ? AND id = ?", userID, accountID)
	return result.RowsAffected > 0, result.Error
}

func (r *GormRepository) CountAccountsByName(ctx context.Context, userID, name, excludeID string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&ledgerdomain.Account{}).
		Where("user_id = ? AND lower(name) = lower(?)", userID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRepository) CountTransactionsByAccount(ctx context.Context, userID, accountID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledgerdomain.Transaction{}).
		Where("user_id = ?", userID).
		Where("(saving_account_id = ? OR from_account_id = ? OR to_account_id = ?)", accountID, accountID, accountID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateCategory inserts inside a savepoint so a unique violation leaves the
// surrounding transaction usable.
func (r *GormRepository) CreateCategory(ctx context.Context, category *ledgerdomain.Category) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(category).Error
	})
	return categoryWriteError(err, category)
}

func (r *GormRepository) GetCategory(ctx context.Context, userID, categoryID string) (*ledgerdomain.Category, error) {
	var category ledgerdomain.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, categoryID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *GormRepository) GetCategoryBySystemKey(ctx context.Context, userID string, key ledgerdomain.SystemKey) (*ledgerdomain.Category, error) {
	var category ledgerdomain.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND system_key = ?", userID, string(key)).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetUnkeyedCategoryByName prefers an active match over an inactive one.
func (r *GormRepository) GetUnkeyedCategoryByName(ctx context.Context, userID, name string) (*ledgerdomain.Category, error) {
	var category ledgerdomain.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND system_key IS NULL AND lower(name) = lower(?)", userID, name).
		Order("is_active desc, created_at asc").
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *GormRepository) ListCategories(ctx context.Context, userID string) ([]ledgerdomain.Category, error) {
	var categories []ledgerdomain.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormRepository) UpdateCategory(ctx context.Context, category *ledgerdomain.Category) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&ledgerdomain.Category{}).
			Where("id = ? AND user_id = ?", category.ID, category.UserID).
			Updates(map[string]interface{}{
				"name":       category.Name,
				"type":       category.Type,
				"is_active":  category.IsActive,
				"is_system":  category.IsSystem,
				"system_key": category.SystemKey,
			}).Error
	})
	return categoryWriteError(err, category)
}

func categoryWriteError(err error, category *ledgerdomain.Category) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey) && category.SystemKey != nil:
		return ledgerdomain.ErrCategoryKeyTaken
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ledgerdomain.ErrCategoryNameTaken
	}
	return fmt.Errorf("write category: %w", err)
}

func (r *GormRepository) CountActiveCategoriesByName(ctx context.Context, userID, name, excludeID string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&ledgerdomain.Category{}).
		Where("user_id = ? AND is_active = ? AND lower(name) = lower(?)", userID, true, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRepository) CountTransactionsByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledgerdomain.Transaction{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRepository) CreateTransaction(ctx context.Context, transaction *ledgerdomain.Transaction) error {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *GormRepository) GetTransaction(ctx context.Context, userID, transactionID string) (*ledgerdomain.Transaction, error) {
	var transaction ledgerdomain.Transaction
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND id = ?", userID, transactionID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *GormRepository) ListTransactions(ctx context.Context, userID string, filter ledgerdomain.TransactionFilter) ([]ledgerdomain.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&ledgerdomain.Transaction{}).Where("user_id = ?", userID)
	if filter.StartDate != nil {
		query = query.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date <= ?", *filter.EndDate)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.AccountID != "" {
		query = query.Where(
			"(saving_account_id = ? OR (saving_account_id IS NULL AND (from_account_id = ? OR to_account_id = ?)))",
			filter.AccountID, filter.AccountID, filter.AccountID,
		)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	switch filter.Source {
	case ledgerdomain.TransactionSourceAccount:
		query = query.Where("debt_id IS NULL")
	case ledgerdomain.TransactionSourceCreditCard:
		query = query.Where("debt_id IS NOT NULL")
	}
	if filter.SourceType != nil {
		if *filter.SourceType == ledgerdomain.SourceManual {
			query = query.Where("source_type IS NULL")
		} else {
			query = query.Where("source_type = ?", string(*filter.SourceType))
		}
	}
	if filter.ExcludeCancelled {
		query = query.Where("is_cancelled = ?", false)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []ledgerdomain.Transaction
	if err := query.
		Order("date desc, created_at desc, id desc").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListTransferGroup returns the legs in id order, which is also the order the
// rows are locked in.
func (r *GormRepository) ListTransferGroup(ctx context.Context, userID, groupID string) ([]ledgerdomain.Transaction, error) {
	var items []ledgerdomain.Transaction
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND transfer_group_id = ?", userID, groupID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepository) ListAccountLedger(ctx context.Context, userID, accountID string) ([]ledgerdomain.Transaction, error) {
	var items []ledgerdomain.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(
			"(saving_account_id = ? OR (saving_account_id IS NULL AND (from_account_id = ? OR to_account_id = ?)))",
			accountID, accountID, accountID,
		).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepository) UpdateTransaction(ctx context.Context, transaction *ledgerdomain.Transaction) error {
	return r.db.WithContext(ctx).
		Model(&ledgerdomain.Transaction{}).
		Where("id = ? AND user_id = ?", transaction.ID, transaction.UserID).
		Updates(map[string]interface{}{
			"description":   transaction.Description,
			"category_id":   transaction.CategoryID,
			"date":          transaction.Date,
			"is_cancelled":  transaction.IsCancelled,
			"reversal_note": transaction.ReversalNote,
		}).Error
}

func (r *GormRepository) DeleteTransaction(ctx context.Context, userID, transactionID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&ledgerdomain.Transaction{}, "user_id = ? AND id = ?", userID, transactionID)
	return result.RowsAffected > 0, result.Error
}

func (r *GormRepository) CreateDebt(ctx context.Context, debt *ledgerdomain.Debt) error {
	if err := r.db.WithContext(ctx).Create(debt).Error; err != nil {
		return fmt.Errorf("create debt: %w", err)
	}
	return nil
}

func (r *GormRepository) GetDebt(ctx context.Context, userID, debtID string) (*ledgerdomain.Debt, error) {
	var debt ledgerdomain.Debt
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND id = ?", userID, debtID).
		First(&debt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrDebtNotFound
		}
		return nil, err
	}
	return &debt, nil
}

func (r *GormRepository) ListDebts(ctx context.Context, userID string) ([]ledgerdomain.DebtWithCount, error) {
	var debts []ledgerdomain.Debt
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&debts).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		DebtID string `gorm:"column:debt_id"`
		Count  int64  `gorm:"column:transactions_count"`
	}
	if err := r.db.WithContext(ctx).
		Model(&ledgerdomain.Transaction{}).
		Select("debt_id, count(*) AS transactions_count").
		Where("user_id = ? AND debt_id IS NOT NULL", userID).
		Group("debt_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.DebtID] = row.Count
	}

	result := make([]ledgerdomain.DebtWithCount, 0, len(debts))
	for _, debt := range debts {
		result = append(result, ledgerdomain.DebtWithCount{Debt: debt, TransactionsCount: counts[debt.ID]})
	}
	return result, nil
}

func (r *GormRepository) UpdateDebt(ctx context.Context, debt *ledgerdomain.Debt) error {
	return r.db.WithContext(ctx).
		Model(&ledgerdomain.Debt{}).
		Where("id = ? AND user_id = ?", debt.ID, debt.UserID).
		Updates(map[string]interface{}{
			"name":          debt.Name,
			"total_amount":  debt.TotalAmount,
			"interest_rate": debt.InterestRate,
			"due_date":      debt.DueDate,
			"currency":      debt.Currency,
			"status":        debt.Status,
		}).Error
}

func (r *GormRepository) DeleteDebt(ctx context.Context, userID, debtID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&ledgerdomain.Debt{}, "user_id = ? AND id = ?", userID, debtID)
	return result.RowsAffected > 0, result.Error
}

func (r *GormRepository) CountTransactionsByDebt(ctx context.Context, userID, debtID string) (int64, error) {
	var main int64
	if err := r.db.WithContext(ctx).
		Model(&ledgerdomain.Transaction{}).
		Where("user_id = ? AND debt_id = ?", userID, debtID).
		Count(&main).Error; err != nil {
		return 0, err
	}
	var entries int64
	if err := r.db.WithContext(ctx).
		Model(&ledgerdomain.DebtTransaction{}).
		Where("user_id = ? AND debt_id = ?", userID, debtID).
		Count(&entries).Error; err != nil {
		return 0, err
	}
	return main + entries, nil
}

func (r *GormRepository) CreateDebtTransaction(ctx context.Context, entry *ledgerdomain.DebtTransaction) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create debt transaction: %w", err)
	}
	return nil
}

func (r *GormRepository) ListDebtTransactions(ctx context.Context, userID, debtID string) ([]ledgerdomain.DebtTransaction, error) {
	var entries []ledgerdomain.DebtTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND debt_id = ?", userID, debtID).
		Order("date desc, created_at desc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
