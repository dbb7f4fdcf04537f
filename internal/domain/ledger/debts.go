package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// chargeDebt and settleDebt are the only places total_amount changes once a
// debt has history.
func chargeDebt(ctx context.Context, tx Repository, debt *Debt, amount decimal.Decimal) error {
	debt.TotalAmount = debt.TotalAmount.Add(amount)
	return tx.UpdateDebt(ctx, debt)
}

// settleDebt lowers the outstanding amount. A remainder within the tolerance
// is cleared, and a cleared loan closes itself.
func settleDebt(ctx context.Context, tx Repository, debt *Debt, amount decimal.Decimal) error {
	remaining := debt.TotalAmount.Sub(amount)
	if remaining.LessThanOrEqual(debtTolerance) {
		remaining = decimal.Zero
		if debt.Kind == DebtKindLoan {
			debt.Status = DebtStatusClosed
		}
	}
	debt.TotalAmount = remaining
	return tx.UpdateDebt(ctx, debt)
}

func recordDebtEntry(ctx context.Context, tx Repository, debt *Debt, entryType DebtTransactionType, amount decimal.Decimal, description string, date time.Time) (*DebtTransaction, error) {
	entry := DebtTransaction{
		ID:          newID(),
		UserID:      debt.UserID,
		DebtID:      debt.ID,
		Amount:      amount,
		Type:        entryType,
		Description: description,
		Date:        date,
	}
	if err := tx.CreateDebtTransaction(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func reverseCardCharge(ctx context.Context, tx Repository, userID, debtID string, amount decimal.Decimal, date time.Time, description string) error {
	debt, err := tx.GetDebt(ctx, userID, debtID)
	if err != nil {
		return err
	}
	if err := settleDebt(ctx, tx, debt, amount); err != nil {
		return err
	}
	_, err = recordDebtEntry(ctx, tx, debt, DebtTransactionChargeReversal, amount, description, date)
	return err
}

// PayDebt pays a debt from an account in the same currency. Payments above
// the outstanding amount plus the tolerance are refused.
func (s *Service) PayDebt(ctx context.Context, input PayDebtInput) (*DebtPayment, error) {
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}

	var (
		result  DebtPayment
		changed bool
	)
	err := s.inTx(ctx, func(tx Repository) error {
		account, err := lockActiveAccount(ctx, tx, input.UserID, input.AccountID, accountInBody)
		if err != nil {
			return err
		}
		debt, err := tx.GetDebt(ctx, input.UserID, input.DebtID)
		if err != nil {
			return err
		}
		if input.Amount.GreaterThan(debt.TotalAmount.Add(debtTolerance)) {
			return ErrPaymentExceedsDebt
		}
		if debt.Status == DebtStatusClosed {
			return ErrDebtClosed
		}
		if account.Currency != debt.Currency {
			return ErrCurrencyMismatch
		}
		if err := ensureFunds(account, input.Amount); err != nil {
			return err
		}

		categories := newSystemCategories(tx, input.UserID)
		category, err := categories.get(ctx, SystemKeyDebtPayment)
		if err != nil {
			return err
		}

		if _, err := applyDelta(ctx, tx, input.UserID, account.ID, input.Amount.Neg()); err != nil {
			return err
		}

		date := s.dateOrNow(input.Date)
		result.Transaction = Transaction{
			ID:              newID(),
			UserID:          input.UserID,
			Amount:          input.Amount,
			Type:            TransactionTypeExpense,
			Fee:             decimal.Zero,
			Date:            date,
			Description:     descriptionOr(input.Description, "Payment: "+debt.Name),
			CategoryID:      stringPtr(category.ID),
			SavingAccountID: stringPtr(account.ID),
			DebtID:          stringPtr(debt.ID),
			SourceType:      SourceDebtPayment,
		}
		if err := tx.CreateTransaction(ctx, &result.Transaction); err != nil {
			return err
		}

		if err := settleDebt(ctx, tx, debt, input.Amount); err != nil {
			return err
		}
		entry, err := recordDebtEntry(ctx, tx, debt, DebtTransactionPayment, input.Amount, result.Transaction.Description, date)
		if err != nil {
			return err
		}

		result.Debt = *debt
		result.Entry = *entry
		changed = categories.changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCategories(input.UserID, changed)
	return &result, nil
}

// AddCharge adds interest or another charge to an active debt. No account is
// touched.
func (s *Service) AddCharge(ctx context.Context, input DebtChargeInput) (*DebtTransaction, error) {
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}

	var created DebtTransaction
	err := s.inTx(ctx, func(tx Repository) error {
		debt, err := tx.GetDebt(ctx, input.UserID, input.DebtID)
		if err != nil {
			return err
		}
		if debt.Status != DebtStatusActive {
			return ErrDebtClosed
		}

		if err := chargeDebt(ctx, tx, debt, input.Amount); err != nil {
			return err
		}
		entry, err := recordDebtEntry(ctx, tx, debt, DebtTransactionInterestCharge, input.Amount,
			descriptionOr(input.Description, "Interest or additional charge"), s.dateOrNow(input.Date))
		if err != nil {
			return err
		}
		created = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// PurchaseWithCard records a purchase on a credit card. The card's debt grows
// and the expense is listed, but no account balance moves.
func (s *Service) PurchaseWithCard(ctx context.Context, input CardPurchaseInput) (*CardPurchase, error) {
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}

	var result CardPurchase
	err := s.inTx(ctx, func(tx Repository) error {
		debt, err := tx.GetDebt(ctx, input.UserID, input.DebtID)
		if err != nil {
			return err
		}
		if debt.Kind != DebtKindCreditCard {
			return ErrNotCreditCard
		}
		if debt.Status != DebtStatusActive {
			return ErrDebtClosed
		}
		category, err := usableCategory(ctx, tx, input.UserID, input.CategoryID, TransactionTypeExpense)
		if err != nil {
			return err
		}

		date := s.dateOrNow(input.Date)
		result.Transaction = Transaction{
			ID:          newID(),
			UserID:      input.UserID,
			Amount:      input.Amount,
			Type:        TransactionTypeExpense,
			Fee:         decimal.Zero,
			Date:        date,
			Description: descriptionOr(input.Description, "Card purchase: "+debt.Name),
			CategoryID:  stringPtr(category.ID),
			DebtID:      stringPtr(debt.ID),
			SourceType:  SourceCreditCardPurchase,
		}
		if err := tx.CreateTransaction(ctx, &result.Transaction); err != nil {
			return err
		}

		if err := chargeDebt(ctx, tx, debt, input.Amount); err != nil {
			return err
		}
		entry, err := recordDebtEntry(ctx, tx, debt, DebtTransactionExtraCharge, input.Amount, result.Transaction.Description, date)
		if err != nil {
			return err
		}

		result.Debt = *debt
		result.Entry = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) CreateDebt(ctx context.Context, input CreateDebtInput) (*Debt, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if input.TotalAmount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if input.InterestRate.IsNegative() {
		return nil, ErrInvalidInterestRate
	}
	if !input.Kind.Valid() {
		return nil, ErrInvalidType
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	debt := Debt{
		ID:           newID(),
		UserID:       input.UserID,
		Name:         name,
		TotalAmount:  input.TotalAmount,
		InterestRate: input.InterestRate,
		DueDate:      input.DueDate,
		Currency:     currency,
		Status:       DebtStatusActive,
		Kind:         input.Kind,
	}
	if err := s.repo.CreateDebt(ctx, &debt); err != nil {
		return nil, err
	}
	return &debt, nil
}

func (s *Service) ListDebts(ctx context.Context, userID string) ([]DebtWithCount, error) {
	debts, err := s.repo.ListDebts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if debts == nil {
		debts = []DebtWithCount{}
	}
	return debts, nil
}

func (s *Service) GetDebt(ctx context.Context, userID, debtID string) (*Debt, error) {
	return s.repo.GetDebt(ctx, userID, debtID)
}

// UpdateDebt edits debt metadata. Currency and total amount are frozen once
// any transaction references the debt.
func (s *Service) UpdateDebt(ctx context.Context, input UpdateDebtInput) (*Debt, error) {
	if input.ClearDueDate && input.DueDate != nil {
		return nil, ErrDueDateConflict
	}

	var updated Debt
	err := s.inTx(ctx, func(tx Repository) error {
		debt, err := tx.GetDebt(ctx, input.UserID, input.DebtID)
		if err != nil {
			return err
		}

		currencyChanged := false
		if input.Currency != nil {
			currency, err := normalizeCurrency(*input.Currency)
			if err != nil {
				return err
			}
			currencyChanged = currency != debt.Currency
			debt.Currency = currency
		}
		amountChanged := input.TotalAmount != nil && !input.TotalAmount.Equal(debt.TotalAmount)
		if amountChanged {
			if input.TotalAmount.IsNegative() {
				return ErrNegativeAmount
			}
			debt.TotalAmount = *input.TotalAmount
		}

		if currencyChanged || amountChanged {
			count, err := tx.CountTransactionsByDebt(ctx, input.UserID, debt.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrDebtInUse
			}
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrInvalidName
			}
			debt.Name = name
		}
		if input.InterestRate != nil {
			if input.InterestRate.IsNegative() {
				return ErrInvalidInterestRate
			}
			debt.InterestRate = *input.InterestRate
		}
		if input.DueDate != nil {
			due := input.DueDate.UTC()
			debt.DueDate = &due
		}
		if input.ClearDueDate {
			debt.DueDate = nil
		}

		if err := tx.UpdateDebt(ctx, debt); err != nil {
			return err
		}
		updated = *debt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteDebt removes a settled debt without history.
func (s *Service) DeleteDebt(ctx context.Context, userID, debtID string) error {
	return s.inTx(ctx, func(tx Repository) error {
		debt, err := tx.GetDebt(ctx, userID, debtID)
		if err != nil {
			return err
		}
		if !debt.TotalAmount.IsZero() {
			return ErrDebtNotEmpty
		}
		count, err := tx.CountTransactionsByDebt(ctx, userID, debt.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDebtInUse
		}

		deleted, err := tx.DeleteDebt(ctx, userID, debt.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrDebtNotFound
		}
		return nil
	})
}

func (s *Service) CloseDebt(ctx context.Context, userID, debtID string) (*Debt, error) {
	return s.setDebtStatus(ctx, userID, debtID, func(debt *Debt) error {
		if debt.Status == DebtStatusClosed {
			return ErrDebtClosed
		}
		if !debt.TotalAmount.IsZero() {
			return ErrDebtNotEmpty
		}
		debt.Status = DebtStatusClosed
		return nil
	})
}

func (s *Service) ReopenDebt(ctx context.Context, userID, debtID string) (*Debt, error) {
	return s.setDebtStatus(ctx, userID, debtID, func(debt *Debt) error {
		if debt.Status != DebtStatusClosed {
			return ErrDebtNotClosed
		}
		debt.Status = DebtStatusActive
		return nil
	})
}

func (s *Service) setDebtStatus(ctx context.Context, userID, debtID string, transition func(*Debt) error) (*Debt, error) {
	var updated Debt
	err := s.inTx(ctx, func(tx Repository) error {
		debt, err := tx.GetDebt(ctx, userID, debtID)
		if err != nil {
			return err
		}
		if err := transition(debt); err != nil {
			return err
		}
		if err := tx.UpdateDebt(ctx, debt); err != nil {
			return err
		}
		updated = *debt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) ListDebtTransactions(ctx context.Context, userID, debtID string) ([]DebtTransaction, error) {
	if _, err := s.repo.GetDebt(ctx, userID, debtID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListDebtTransactions(ctx, userID, debtID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []DebtTransaction{}
	}
	return entries, nil
}
