package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
)

var errInjected = errors.New("injected failure")

// fakeRepo keeps rows by value and rolls every map back when a transaction
// callback fails, which mirrors what the database does.
type fakeRepo struct {
	accounts         map[string]Account
	categories       map[string]Category
	transactions     map[string]Transaction
	debts            map[string]Debt
	debtTransactions map[string]DebtTransaction
	order            map[string]int
	seq              int
	inTx             bool

	// failTransactionWrite makes the n-th CreateTransaction call fail (1-based).
	failTransactionWrite int
	transactionWrites    int
	// conflictOnSystemCategory simulates a concurrent insert of the same key.
	conflictOnSystemCategory bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:         make(map[string]Account),
		categories:       make(map[string]Category),
		transactions:     make(map[string]Transaction),
		debts:            make(map[string]Debt),
		debtTransactions: make(map[string]DebtTransaction),
		order:            make(map[string]int),
	}
}

func (r *fakeRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	snapshot := r.snapshot()
	r.inTx = true
	err := fn(r)
	r.inTx = false
	if err != nil {
		r.restore(snapshot)
	}
	return err
}

type fakeSnapshot struct {
	accounts         map[string]Account
	categories       map[string]Category
	transactions     map[string]Transaction
	debts            map[string]Debt
	debtTransactions map[string]DebtTransaction
}

func (r *fakeRepo) snapshot() fakeSnapshot {
	return fakeSnapshot{
		accounts:         cloneMap(r.accounts),
		categories:       cloneMap(r.categories),
		transactions:     cloneMap(r.transactions),
		debts:            cloneMap(r.debts),
		debtTransactions: cloneMap(r.debtTransactions),
	}
}

func (r *fakeRepo) restore(s fakeSnapshot) {
	r.accounts = s.accounts
	r.categories = s.categories
	r.transactions = s.transactions
	r.debts = s.debts
	r.debtTransactions = s.debtTransactions
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (r *fakeRepo) touch(id string) {
	r.seq++
	if _, ok := r.order[id]; !ok {
		r.order[id] = r.seq
	}
}

func (r *fakeRepo) CreateAccount(ctx context.Context, account *Account) error {
	r.touch(account.ID)
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeRepo) GetAccount(ctx context.Context, userID, accountID string) (*Account, error) {
	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (r *fakeRepo) ListAccounts(ctx context.Context, userID string) ([]Account, error) {
	var items []Account
	for _, account := range r.accounts {
		if account.UserID == userID {
			items = append(items, account)
		}
	}
	sort.Slice(items, func(i, j int) bool { return r.order[items[i].ID] < r.order[items[j].ID] })
	return items, nil
}

func (r *fakeRepo) UpdateAccount(ctx context.Context, account *Account) error {
	if _, ok := r.accounts[account.ID]; !ok {
		return ErrAccountNotFound
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeRepo) DeleteAccount(ctx context.Context, userID, accountID string) (bool, error) {
	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID {
		return false, nil
	}
	delete(r.accounts, accountID)
	return true, nil
}

func (r *fakeRepo) CountAccountsByName(ctx context.Context, userID, name, excludeID string) (int64, error) {
	var count int64
	for _, account := range r.accounts {
		if account.UserID == userID && account.ID != excludeID && strings.EqualFold(account.Name, name) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CountTransactionsByAccount(ctx context.Context, userID, accountID string) (int64, error) {
	var count int64
	for _, t := range r.transactions {
		if t.UserID != userID {
			continue
		}
		if eq(t.SavingAccountID, accountID) || eq(t.FromAccountID, accountID) || eq(t.ToAccountID, accountID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CreateCategory(ctx context.Context, category *Category) error {
	if category.SystemKey != nil {
		if r.conflictOnSystemCategory {
			r.conflictOnSystemCategory = false
			winner := *category
			winner.ID = category.ID + "-winner"
			r.touch(winner.ID)
			r.categories[winner.ID] = winner
			return ErrCategoryKeyTaken
		}
		for _, existing := range r.categories {
			if existing.UserID == category.UserID && existing.SystemKey != nil && *existing.SystemKey == *category.SystemKey {
				return ErrCategoryKeyTaken
			}
		}
	}
	r.touch(category.ID)
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeRepo) GetCategory(ctx context.Context, userID, categoryID string) (*Category, error) {
	category, ok := r.categories[categoryID]
	if !ok || category.UserID != userID {
		return nil, ErrCategoryNotFound
	}
	return &category, nil
}

func (r *fakeRepo) GetCategoryBySystemKey(ctx context.Context, userID string, key SystemKey) (*Category, error) {
	for _, category := range r.categories {
		if category.UserID == userID && category.SystemKey != nil && *category.SystemKey == key {
			found := category
			return &found, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (r *fakeRepo) GetUnkeyedCategoryByName(ctx context.Context, userID, name string) (*Category, error) {
	for _, category := range r.categories {
		if category.UserID == userID && category.SystemKey == nil && strings.EqualFold(category.Name, name) {
			found := category
			return &found, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (r *fakeRepo) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	var items []Category
	for _, category := range r.categories {
		if category.UserID == userID {
			items = append(items, category)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *fakeRepo) UpdateCategory(ctx context.Context, category *Category) error {
	if _, ok := r.categories[category.ID]; !ok {
		return ErrCategoryNotFound
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeRepo) CountActiveCategoriesByName(ctx context.Context, userID, name, excludeID string) (int64, error) {
	var count int64
	for _, category := range r.categories {
		if category.UserID == userID && category.IsActive && category.ID != excludeID && strings.EqualFold(category.Name, name) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CountTransactionsByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	var count int64
	for _, t := range r.transactions {
		if t.UserID == userID && eq(t.CategoryID, categoryID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CreateTransaction(ctx context.Context, transaction *Transaction) error {
	r.transactionWrites++
	if r.failTransactionWrite > 0 && r.transactionWrites == r.failTransactionWrite {
		return errInjected
	}
	r.touch(transaction.ID)
	r.transactions[transaction.ID] = *transaction
	return nil
}

func (r *fakeRepo) GetTransaction(ctx context.Context, userID, transactionID string) (*Transaction, error) {
	t, ok := r.transactions[transactionID]
	if !ok || t.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return &t, nil
}

func (r *fakeRepo) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]Transaction, int64, error) {
	var items []Transaction
	for _, t := range r.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.AccountID != "" && !eq(t.SavingAccountID, filter.AccountID) {
			continue
		}
		if filter.CategoryID != "" && !eq(t.CategoryID, filter.CategoryID) {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.SourceType != nil && t.SourceType != *filter.SourceType {
			continue
		}
		if filter.Source == TransactionSourceAccount && t.DebtID != nil {
			continue
		}
		if filter.Source == TransactionSourceCreditCard && t.DebtID == nil {
			continue
		}
		if filter.ExcludeCancelled && t.IsCancelled {
			continue
		}
		if filter.StartDate != nil && t.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && t.Date.After(*filter.EndDate) {
			continue
		}
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return r.order[items[i].ID] > r.order[items[j].ID]
	})

	total := int64(len(items))
	offset := (filter.Page - 1) * filter.PageSize
	if offset >= len(items) {
		return []Transaction{}, total, nil
	}
	items = items[offset:]
	if filter.PageSize < len(items) {
		items = items[:filter.PageSize]
	}
	return items, total, nil
}

func (r *fakeRepo) ListTransferGroup(ctx context.Context, userID, groupID string) ([]Transaction, error) {
	var items []Transaction
	for _, t := range r.transactions {
		if t.UserID == userID && eq(t.TransferGroupID, groupID) {
			items = append(items, t)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *fakeRepo) ListAccountLedger(ctx context.Context, userID, accountID string) ([]Transaction, error) {
	var items []Transaction
	for _, t := range r.transactions {
		if t.UserID != userID {
			continue
		}
		if eq(t.SavingAccountID, accountID) ||
			(t.SavingAccountID == nil && (eq(t.FromAccountID, accountID) || eq(t.ToAccountID, accountID))) {
			items = append(items, t)
		}
	}
	return items, nil
}

func (r *fakeRepo) UpdateTransaction(ctx context.Context, transaction *Transaction) error {
	if _, ok := r.transactions[transaction.ID]; !ok {
		return ErrTransactionNotFound
	}
	r.transactions[transaction.ID] = *transaction
	return nil
}

func (r *fakeRepo) DeleteTransaction(ctx context.Context, userID, transactionID string) (bool, error) {
	t, ok := r.transactions[transactionID]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.transactions, transactionID)
	return true, nil
}

func (r *fakeRepo) CreateDebt(ctx context.Context, debt *Debt) error {
	r.touch(debt.ID)
	r.debts[debt.ID] = *debt
	return nil
}

func (r *fakeRepo) GetDebt(ctx context.Context, userID, debtID string) (*Debt, error) {
	debt, ok := r.debts[debtID]
	if !ok || debt.UserID != userID {
		return nil, ErrDebtNotFound
	}
	return &debt, nil
}

func (r *fakeRepo) ListDebts(ctx context.Context, userID string) ([]DebtWithCount, error) {
	var items []DebtWithCount
	for _, debt := range r.debts {
		if debt.UserID != userID {
			continue
		}
		var count int64
		for _, t := range r.transactions {
			if eq(t.DebtID, debt.ID) {
				count++
			}
		}
		items = append(items, DebtWithCount{Debt: debt, TransactionsCount: count})
	}
	sort.Slice(items, func(i, j int) bool { return r.order[items[i].ID] < r.order[items[j].ID] })
	return items, nil
}

func (r *fakeRepo) UpdateDebt(ctx context.Context, debt *Debt) error {
	if _, ok := r.debts[debt.ID]; !ok {
		return ErrDebtNotFound
	}
	r.debts[debt.ID] = *debt
	return nil
}

func (r *fakeRepo) DeleteDebt(ctx context.Context, userID, debtID string) (bool, error) {
	debt, ok := r.debts[debtID]
	if !ok || debt.UserID != userID {
		return false, nil
	}
	delete(r.debts, debtID)
	return true, nil
}

func (r *fakeRepo) CountTransactionsByDebt(ctx context.Context, userID, debtID string) (int64, error) {
	var count int64
	for _, t := range r.transactions {
		if t.UserID == userID && eq(t.DebtID, debtID) {
			count++
		}
	}
	for _, entry := range r.debtTransactions {
		if entry.UserID == userID && entry.DebtID == debtID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CreateDebtTransaction(ctx context.Context, entry *DebtTransaction) error {
	r.touch(entry.ID)
	r.debtTransactions[entry.ID] = *entry
	return nil
}

func (r *fakeRepo) ListDebtTransactions(ctx context.Context, userID, debtID string) ([]DebtTransaction, error) {
	var items []DebtTransaction
	for _, entry := range r.debtTransactions {
		if entry.UserID == userID && entry.DebtID == debtID {
			items = append(items, entry)
		}
	}
	sort.Slice(items, func(i, j int) bool { return r.order[items[i].ID] > r.order[items[j].ID] })
	return items, nil
}

func eq(value *string, want string) bool {
	return value != nil && *value == want
}
