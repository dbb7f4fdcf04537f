package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDebt(t *testing.T, svc *Service, name, total string, kind DebtKind) *Debt {
	t.Helper()
	debt, err := svc.CreateDebt(context.Background(), CreateDebtInput{
		UserID:       testUserID,
		Name:         name,
		TotalAmount:  dec(total),
		InterestRate: dec("1.5"),
		Currency:     "USD",
		Kind:         kind,
	})
	require.NoError(t, err)
	return debt
}

func TestPayingLoanExactlyClosesIt(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "Main", "USD", "1000", AccountTypeBank)
	loan := mustDebt(t, svc, "Car", "500", DebtKindLoan)

	payment, err := svc.PayDebt(ctx, PayDebtInput{UserID: testUserID, DebtID: loan.ID, AccountID: account.ID, Amount: dec("500")})
	require.NoError(t, err)

	requireAmount(t, "0", payment.Debt.TotalAmount)
	assert.Equal(t, DebtStatusClosed, payment.Debt.Status)
	requireAmount(t, "500", balanceOf(t, repo, account.ID))
	assert.Equal(t, SourceDebtPayment, payment.Transaction.SourceType)
	assert.Equal(t, "Payment: Car", payment.Transaction.Description)
	assert.Equal(t, loan.ID, *payment.Transaction.DebtID)
	assert.Equal(t, DebtTransactionPayment, payment.Entry.Type)

	category, err := repo.GetCategory(ctx, testUserID, *payment.Transaction.CategoryID)
	require.NoError(t, err)
	require.NotNil(t, category.SystemKey)
	assert.Equal(t, SystemKeyDebtPayment, *category.SystemKey)
}

func TestPayingCardExactlyKeepsItActive(t *testing.T) {
	svc, repo := newTestService(t)
	account := mustAccount(t, svc, "Main", "USD", "1000", AccountTypeBank)
	card := mustDebt(t, svc, "Visa", "500", DebtKindCreditCard)

	payment, err := svc.PayDebt(context.Background(), PayDebtInput{UserID: testUserID, DebtID: card.ID, AccountID: account.ID, Amount: dec("500")})
	require.NoError(t, err)
	requireAmount(t, "0", payment.Debt.TotalAmount)
	assert.Equal(t, DebtStatusActive, payment.Debt.Status)
	requireAmount(t, "0", repo.debts[card.ID].TotalAmount)
}

func TestPaymentWithinToleranceClearsDebt(t *testing.T) {
	svc, _ := newTestService(t)
	account := mustAccount(t, svc, "Main", "USD", "1000", AccountTypeBank)
	loan := mustDebt(t, svc, "Phone", "100", DebtKindLoan)

	payment, err := svc.PayDebt(context.Background(), PayDebtInput{UserID: testUserID, DebtID: loan.ID, AccountID: account.ID, Amount: dec("99.995")})
	require.NoError(t, err)
	requireAmount(t, "0", payment.Debt.TotalAmount)
	assert.Equal(t, DebtStatusClosed, payment.Debt.Status)
}

func TestOverpayingDebtMutatesNothing(t *testing.T) {
	svc, repo := newTestService(t)
	account := mustAccount(t, svc, "Main", "USD", "1000", AccountTypeBank)
	loan := mustDebt(t, svc, "Car", "500", DebtKindLoan)

	_, err := svc.PayDebt(context.Background(), PayDebtInput{UserID: testUserID, DebtID: loan.ID, AccountID: account.ID, Amount: dec("500.02")})
	require.ErrorIs(t, err, ErrAmountExceedsBalance)

	requireAmount(t, "1000", balanceOf(t, repo, account.ID))
	requireAmount(t, "500", repo.debts[loan.ID].TotalAmount)
	assert.Empty(t, repo.transactions)
	assert.Empty(t, repo.debtTransactions)
	assert.Empty(t, repo.categories)
}

func TestPayDebtValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "Main", "USD", "10", AccountTypeBank)
	pesos := mustAccount(t, svc, "Pesos", "COP", "1000", AccountTypeBank)
	loan := mustDebt(t, svc, "Car", "500", DebtKindLoan)
	settled := mustDebt(t, svc, "Old", "0", DebtKindLoan)
	_, err := svc.CloseDebt(ctx, testUserID, settled.ID)
	require.NoError(t, err)

	_, err = svc.PayDebt(ctx, PayDebtInput{UserID: testUserID, DebtID: loan.ID, AccountID: pesos.ID, Amount: dec("5")})
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = svc.PayDebt(ctx, PayDebtInput{UserID: testUserID, DebtID: loan.ID, AccountID: account.ID, Amount: dec("50")})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = svc.PayDebt(ctx, PayDebtInput{UserID: testUserID, DebtID: settled.ID, AccountID: account.ID, Amount: dec("0.005")})
	require.ErrorIs(t, err, ErrDebtClosed)

	_, err = svc.PayDebt(ctx, PayDebtInput{UserID: testUserID, DebtID: "missing", AccountID: account.ID, Amount: dec("1")})
	require.ErrorIs(t, err, ErrDebtNotFound)
}

func TestCardPurchaseChargesDebtWithoutAccount(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "Main", "USD", "1000", AccountTypeBank)
	card := mustDebt(t, svc, "Visa", "0", DebtKindCreditCard)
	food := mustCategory(t, svc, "Food", CategoryTypeExpense)

	purchase, err := svc.PurchaseWithCard(ctx, CardPurchaseInput{UserID: testUserID, DebtID: card.ID, CategoryID: food.ID, Amount: dec("50")})
	require.NoError(t, err)

	requireAmount(t, "50", purchase.Debt.TotalAmount)
	assert.Nil(t, purchase.Transaction.SavingAccountID)
	assert.Equal(t, card.ID, *purchase.Transaction.DebtID)
	assert.Equal(t, SourceCreditCardPurchase, purchase.Transaction.SourceType)
	assert.Equal(t, DebtTransactionExtraCharge, purchase.Entry.Type)
	requireAmount(t, "1000", balanceOf(t, repo, account.ID))

	entries, err := svc.ListDebtTransactions(ctx, testUserID, card.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	reversals, err := svc.ReverseTransaction(ctx, ReverseInput{UserID: testUserID, TransactionID: purchase.Transaction.ID})
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	assert.Equal(t, SourceCreditCardPurchaseReversal, reversals[0].SourceType)
	requireAmount(t, "0", repo.debts[card.ID].TotalAmount)
	assert.Equal(t, DebtStatusActive, repo.debts[card.ID].Status)

	entries, err = svc.ListDebtTransactions(ctx, testUserID, card.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, DebtTransactionChargeReversal, entries[0].Type)
	requireAmount(t, "1000", balanceOf(t, repo, account.ID))
}

func TestCardPurchaseRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	loan := mustDebt(t, svc, "Car", "10", DebtKindLoan)
	card := mustDebt(t, svc, "Visa", "0", DebtKindCreditCard)
	food := mustCategory(t, svc, "Food", CategoryTypeExpense)
	salary := mustCategory(t, svc, "Salary", CategoryTypeIncome)

	_, err := svc.PurchaseWithCard(ctx, CardPurchaseInput{UserID: testUserID, DebtID: loan.ID, CategoryID: food.ID, Amount: dec("5")})
	require.ErrorIs(t, err, ErrNotCreditCard)

	_, err = svc.PurchaseWithCard(ctx, CardPurchaseInput{UserID: testUserID, DebtID: card.ID, CategoryID: salary.ID, Amount: dec("5")})
	require.ErrorIs(t, err, ErrInvalidCategory)

	_, err = svc.CloseDebt(ctx, testUserID, card.ID)
	require.NoError(t, err)
	_, err = svc.PurchaseWithCard(ctx, CardPurchaseInput{UserID: testUserID, DebtID: card.ID, CategoryID: food.ID, Amount: dec("5")})
	require.ErrorIs(t, err, ErrDebtClosed)
}

func TestAddCharge(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	loan := mustDebt(t, svc, "Car", "100", DebtKindLoan)

	entry, err := svc.AddCharge(ctx, DebtChargeInput{UserID: testUserID, DebtID: loan.ID, Amount: dec("2.5")})
	require.NoError(t, err)
	assert.Equal(t, DebtTransactionInterestCharge, entry.Type)
	assert.Equal(t, "Interest or additional charge", entry.Description)
	requireAmount(t, "102.5", repo.debts[loan.ID].TotalAmount)

	_, err = svc.AddCharge(ctx, DebtChargeInput{UserID: testUserID, DebtID: loan.ID, Amount: dec("0")})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDebtLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "Main", "USD", "1000", AccountTypeBank)
	loan := mustDebt(t, svc, "Car", "100", DebtKindLoan)

	_, err := svc.CloseDebt(ctx, testUserID, loan.ID)
	require.ErrorIs(t, err, ErrDebtNotEmpty)
	_, err = svc.ReopenDebt(ctx, testUserID, loan.ID)
	require.ErrorIs(t, err, ErrDebtNotClosed)

	currency := "EUR"
	_, err = svc.UpdateDebt(ctx, UpdateDebtInput{UserID: testUserID, DebtID: loan.ID, Currency: &currency})
	require.NoError(t, err)
	usd := "USD"
	name := "Family car"
	updated, err := svc.UpdateDebt(ctx, UpdateDebtInput{UserID: testUserID, DebtID: loan.ID, Currency: &usd, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Family car", updated.Name)

	_, err = svc.PayDebt(ctx, PayDebtInput{UserID: testUserID, DebtID: loan.ID, AccountID: account.ID, Amount: dec("100")})
	require.NoError(t, err)

	_, err = svc.UpdateDebt(ctx, UpdateDebtInput{UserID: testUserID, DebtID: loan.ID, Currency: &currency})
	require.ErrorIs(t, err, ErrDebtInUse)
	require.ErrorIs(t, svc.DeleteDebt(ctx, testUserID, loan.ID), ErrDebtInUse)

	reopened, err := svc.ReopenDebt(ctx, testUserID, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, DebtStatusActive, reopened.Status)

	debts, err := svc.ListDebts(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.EqualValues(t, 1, debts[0].TransactionsCount)

	fresh := mustDebt(t, svc, "Loan", "0", DebtKindLoan)
	require.NoError(t, svc.DeleteDebt(ctx, testUserID, fresh.ID))
	_, err = svc.GetDebt(ctx, testUserID, fresh.ID)
	require.ErrorIs(t, err, ErrDebtNotFound)
}

func TestCreateDebtValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDebt(ctx, CreateDebtInput{UserID: testUserID, Name: "X", TotalAmount: dec("-1"), Currency: "USD", Kind: DebtKindLoan})
	require.ErrorIs(t, err, ErrNegativeAmount)
	_, err = svc.CreateDebt(ctx, CreateDebtInput{UserID: testUserID, Name: "X", InterestRate: dec("-1"), Currency: "USD", Kind: DebtKindLoan})
	require.ErrorIs(t, err, ErrInvalidInterestRate)
	_, err = svc.CreateDebt(ctx, CreateDebtInput{UserID: testUserID, Name: "X", Currency: "USD", Kind: "mortgage"})
	require.ErrorIs(t, err, ErrInvalidType)
	_, err = svc.CreateDebt(ctx, CreateDebtInput{UserID: testUserID, Name: "", Currency: "USD", Kind: DebtKindLoan})
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestUpdateDebtSetsAndClearsDueDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	loan := mustDebt(t, svc, "Car", "100", DebtKindLoan)
	due := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	updated, err := svc.UpdateDebt(ctx, UpdateDebtInput{UserID: testUserID, DebtID: loan.ID, DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))

	name := "Family car"
	updated, err = svc.UpdateDebt(ctx, UpdateDebtInput{UserID: testUserID, DebtID: loan.ID, Name: &name})
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)

	updated, err = svc.UpdateDebt(ctx, UpdateDebtInput{UserID: testUserID, DebtID: loan.ID, ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)

	_, err = svc.UpdateDebt(ctx, UpdateDebtInput{UserID: testUserID, DebtID: loan.ID, DueDate: &due, ClearDueDate: true})
	require.ErrorIs(t, err, ErrDueDateConflict)
}
