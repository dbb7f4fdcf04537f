package ledger

import "context"

// Repository is the storage boundary of the ledger. Reads of accounts, debts
// and transactions made on a repository handed out by Transaction lock the
// returned rows until the transaction ends.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, userID, accountID string) (*Account, error)
	ListAccounts(ctx context.Context, userID string) ([]Account, error)
	UpdateAccount(ctx context.Context, account *Account) error
	DeleteAccount(ctx context.Context, userID, accountID string) (bool, error)
	CountAccountsByName(ctx context.Context, userID, name, excludeID string) (int64, error)
	CountTransactionsByAccount(ctx context.Context, userID, accountID string) (int64, error)

	CreateCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, userID, categoryID string) (*Category, error)
	GetCategoryBySystemKey(ctx context.Context, userID string, key SystemKey) (*Category, error)
	GetUnkeyedCategoryByName(ctx context.Context, userID, name string) (*Category, error)
	ListCategories(ctx context.Context, userID string) ([]Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	CountActiveCategoriesByName(ctx context.Context, userID, name, excludeID string) (int64, error)
	CountTransactionsByCategory(ctx context.Context, userID, categoryID string) (int64, error)

	CreateTransaction(ctx context.Context, transaction *Transaction) error
	GetTransaction(ctx context.Context, userID, transactionID string) (*Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]Transaction, int64, error)
	ListTransferGroup(ctx context.Context, userID, groupID string) ([]Transaction, error)
	ListAccountLedger(ctx context.Context, userID, accountID string) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, transaction *Transaction) error
	DeleteTransaction(ctx context.Context, userID, transactionID string) (bool, error)

	CreateDebt(ctx context.Context, debt *Debt) error
	GetDebt(ctx context.Context, userID, debtID string) (*Debt, error)
	ListDebts(ctx context.Context, userID string) ([]DebtWithCount, error)
	UpdateDebt(ctx context.Context, debt *Debt) error
	DeleteDebt(ctx context.Context, userID, debtID string) (bool, error)
	CountTransactionsByDebt(ctx context.Context, userID, debtID string) (int64, error)
	CreateDebtTransaction(ctx context.Context, entry *DebtTransaction) error
	ListDebtTransactions(ctx context.Context, userID, debtID string) ([]DebtTransaction, error)
}
