package ledger

import (
	"context"
	"testing"
	"time"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testUserID = "0b6f3c1e-8a44-4f0e-9d1c-2a7b5e9c3f10"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&ledgerdomain.Account{},
		&ledgerdomain.Category{},
		&ledgerdomain.Transaction{},
		&ledgerdomain.Debt{},
		&ledgerdomain.DebtTransaction{},
	))
	return db
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func newService(t *testing.T) (*ledgerdomain.Service, *GormRepository) {
	t.Helper()
	repo := NewGorm(openTestDB(t))
	return ledgerdomain.NewService(repo), repo
}

func createAccount(t *testing.T, svc *ledgerdomain.Service, name, currency, opening string) *ledgerdomain.Account {
	t.Helper()
	account, err := svc.CreateAccount(context.Background(), ledgerdomain.CreateAccountInput{
		UserID: testUserID, Name: name, Type: ledgerdomain.AccountTypeBank, Currency: currency, OpeningBalance: dec(opening),
	})
	require.NoError(t, err)
	return account
}

func createCategory(t *testing.T, svc *ledgerdomain.Service, name string, categoryType ledgerdomain.CategoryType) *ledgerdomain.Category {
	t.Helper()
	category, err := svc.CreateCategory(context.Background(), ledgerdomain.CreateCategoryInput{
		UserID: testUserID, Name: name, Type: categoryType,
	})
	require.NoError(t, err)
	return category
}

func TestExpenseFeeAndReversalPersist(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "Main", "USD", "1000")
	food := createCategory(t, svc, "Food", ledgerdomain.CategoryTypeExpense)

	expense, err := svc.CreateTransaction(ctx, ledgerdomain.CreateTransactionInput{
		UserID: testUserID, Type: ledgerdomain.TransactionTypeExpense, Amount: dec("200"), Fee: dec("10"),
		CategoryID: food.ID, AccountID: account.ID, Description: "Groceries",
	})
	require.NoError(t, err)

	stored, err := repo.GetAccount(ctx, testUserID, account.ID)
	require.NoError(t, err)
	requireAmount(t, "790", stored.Balance)

	_, err = svc.ReverseTransaction(ctx, ledgerdomain.ReverseInput{UserID: testUserID, TransactionID: expense.ID})
	require.NoError(t, err)

	stored, err = repo.GetAccount(ctx, testUserID, account.ID)
	require.NoError(t, err)
	requireAmount(t, "990", stored.Balance)

	original, err := repo.GetTransaction(ctx, testUserID, expense.ID)
	require.NoError(t, err)
	assert.True(t, original.IsCancelled)
	assert.Equal(t, ledgerdomain.SourceManual, original.SourceType)

	drifts, err := svc.AuditBalances(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestFailedOperationRollsBack(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	from := createAccount(t, svc, "Main", "USD", "100")
	to := createAccount(t, svc, "Savings", "USD", "0")

	_, err := svc.Transfer(ctx, ledgerdomain.TransferInput{
		UserID: testUserID, FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("100"), Fee: dec("1"),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientFunds)

	stored, err := repo.GetAccount(ctx, testUserID, from.ID)
	require.NoError(t, err)
	requireAmount(t, "100", stored.Balance)

	count, err := repo.CountTransactionsByAccount(ctx, testUserID, from.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateCategoryMapsDuplicateSystemKey(t *testing.T) {
	_, repo := newService(t)
	ctx := context.Background()
	key := ledgerdomain.SystemKeyFees

	first := &ledgerdomain.Category{
		ID: uuid.NewString(), UserID: testUserID, Name: "Fees", Type: ledgerdomain.CategoryTypeExpense,
		IsActive: true, IsSystem: true, SystemKey: &key,
	}
	require.NoError(t, repo.CreateCategory(ctx, first))

	err := repo.Transaction(ctx, func(tx ledgerdomain.Repository) error {
		second := &ledgerdomain.Category{
			ID: uuid.NewString(), UserID: testUserID, Name: "Fees", Type: ledgerdomain.CategoryTypeExpense,
			IsActive: true, IsSystem: true, SystemKey: &key,
		}
		err := tx.CreateCategory(ctx, second)
		require.ErrorIs(t, err, ledgerdomain.ErrCategoryKeyTaken)

		found, err := tx.GetCategoryBySystemKey(ctx, testUserID, key)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestCreateAccountMapsDuplicateName(t *testing.T) {
	_, repo := newService(t)
	ctx := context.Background()

	account := &ledgerdomain.Account{
		ID: uuid.NewString(), UserID: testUserID, Name: "Main", Type: ledgerdomain.AccountTypeBank,
		Currency: "USD", Status: ledgerdomain.AccountStatusActive,
	}
	require.NoError(t, repo.CreateAccount(ctx, account))

	duplicate := *account
	duplicate.ID = uuid.NewString()
	require.ErrorIs(t, repo.CreateAccount(ctx, &duplicate), ledgerdomain.ErrAccountNameTaken)
}

func TestProvisionSystemCategoriesAdoptsExisting(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	legacy := createCategory(t, svc, "transfer", ledgerdomain.CategoryTypeIncome)

	provisioned, err := svc.ProvisionSystemCategories(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, provisioned, 4)
	assert.Equal(t, legacy.ID, provisioned[0].ID)

	adopted, err := repo.GetCategoryBySystemKey(ctx, testUserID, ledgerdomain.SystemKeyTransfer)
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.CategoryTypeBoth, adopted.Type)
	assert.True(t, adopted.IsSystem)

	categories, err := repo.ListCategories(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, categories, 4)
}

func TestListTransactionsFilters(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "Main", "USD", "1000")
	food := createCategory(t, svc, "Food", ledgerdomain.CategoryTypeExpense)
	card, err := svc.CreateDebt(ctx, ledgerdomain.CreateDebtInput{
		UserID: testUserID, Name: "Visa", Currency: "USD", Kind: ledgerdomain.DebtKindCreditCard,
	})
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		date := base.AddDate(0, 0, i)
		_, err := svc.CreateTransaction(ctx, ledgerdomain.CreateTransactionInput{
			UserID: testUserID, Type: ledgerdomain.TransactionTypeExpense, Amount: dec("10"),
			CategoryID: food.ID, AccountID: account.ID, Date: &date,
		})
		require.NoError(t, err)
	}
	purchase, err := svc.PurchaseWithCard(ctx, ledgerdomain.CardPurchaseInput{
		UserID: testUserID, DebtID: card.ID, CategoryID: food.ID, Amount: dec("50"),
	})
	require.NoError(t, err)

	items, total, err := repo.ListTransactions(ctx, testUserID, ledgerdomain.TransactionFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, items, 2)
	assert.Equal(t, purchase.Transaction.ID, items[0].ID)

	items, total, err = repo.ListTransactions(ctx, testUserID, ledgerdomain.TransactionFilter{
		Source: ledgerdomain.TransactionSourceAccount, Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.True(t, items[0].Date.After(items[1].Date))

	cardSource := ledgerdomain.SourceCreditCardPurchase
	_, total, err = repo.ListTransactions(ctx, testUserID, ledgerdomain.TransactionFilter{
		SourceType: &cardSource, Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	manual := ledgerdomain.SourceManual
	start := base.AddDate(0, 0, 1)
	_, total, err = repo.ListTransactions(ctx, testUserID, ledgerdomain.TransactionFilter{
		SourceType: &manual, StartDate: &start, AccountID: account.ID, Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	debts, err := repo.ListDebts(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.EqualValues(t, 1, debts[0].TransactionsCount)
	requireAmount(t, "50", debts[0].TotalAmount)

	count, err := repo.CountTransactionsByDebt(ctx, testUserID, card.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestRowsOfOtherUsersAreInvisible(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "Main", "USD", "0")

	_, err := repo.GetAccount(ctx, uuid.NewString(), account.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrAccountNotFound)

	deleted, err := repo.DeleteAccount(ctx, uuid.NewString(), account.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLegacySingleRowTransferDeleteAndAudit(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	from := createAccount(t, svc, "A", "USD", "100")
	to := createAccount(t, svc, "B", "USD", "100")

	legacy := &ledgerdomain.Transaction{
		ID: uuid.NewString(), UserID: testUserID, Amount: dec("30"), Type: ledgerdomain.TransactionTypeExpense,
		Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Description: "Legacy transfer",
		FromAccountID: &from.ID, ToAccountID: &to.ID,
	}
	require.NoError(t, repo.CreateTransaction(ctx, legacy))
	from.Balance = dec("70")
	to.Balance = dec("130")
	require.NoError(t, repo.UpdateAccount(ctx, from))
	require.NoError(t, repo.UpdateAccount(ctx, to))

	drifts, err := svc.AuditBalances(ctx, testUserID)
	require.NoError(t, err)
	require.Empty(t, drifts)

	require.NoError(t, svc.DeleteTransaction(ctx, testUserID, legacy.ID))

	stored, err := repo.GetAccount(ctx, testUserID, from.ID)
	require.NoError(t, err)
	requireAmount(t, "100", stored.Balance)
	stored, err = repo.GetAccount(ctx, testUserID, to.ID)
	require.NoError(t, err)
	requireAmount(t, "100", stored.Balance)

	drifts, err = svc.AuditBalances(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
