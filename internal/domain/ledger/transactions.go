package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// effects returns the signed balance change the row applied to each account
// it touches. Rows without a primary account but with both transfer ends set
// are legacy single-row transfers.
func effects(t *Transaction) map[string]decimal.Decimal {
	switch {
	case t.SavingAccountID != nil:
		return map[string]decimal.Decimal{*t.SavingAccountID: t.signedAmount()}
	case t.FromAccountID != nil && t.ToAccountID != nil:
		return map[string]decimal.Decimal{
			*t.FromAccountID: t.Amount.Neg(),
			*t.ToAccountID:   t.Amount,
		}
	}
	return nil
}

// undoEffects reverts every balance effect of rows through the balance
// mutator. All touched accounts are locked and checked before the first write
// so an insufficient balance leaves nothing half applied.
func undoEffects(ctx context.Context, tx Repository, userID string, rows ...*Transaction) error {
	deltas := make(map[string]decimal.Decimal)
	for _, row := range rows {
		for accountID, effect := range effects(row) {
			deltas[accountID] = deltas[accountID].Sub(effect)
		}
	}
	if len(deltas) == 0 {
		return nil
	}

	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	accounts, err := lockActiveAccounts(ctx, tx, userID, accountInPath, ids...)
	if err != nil {
		return err
	}

	for id, delta := range deltas {
		if delta.IsNegative() {
			if err := ensureFunds(accounts[id], delta.Neg()); err != nil {
				return err
			}
		}
	}

	for id, delta := range deltas {
		if _, err := applyDelta(ctx, tx, userID, id, delta); err != nil {
			return err
		}
	}
	return nil
}

func ensureManual(t *Transaction) error {
	switch {
	case t.IsCancelled:
		return ErrTransactionCancelled
	case t.IsReversal():
		return ErrTransactionReversal
	case t.IsSystem():
		return ErrTransactionSystem
	}
	return nil
}

// recordFee writes the fee row that makes a charged fee visible in listings.
// The parent already carried the fee in its balance delta.
func recordFee(ctx context.Context, tx Repository, categories *systemCategories, parent *Transaction, accountID string, fee decimal.Decimal) (*Transaction, error) {
	category, err := categories.get(ctx, SystemKeyFees)
	if err != nil {
		return nil, err
	}

	description := "Fee"
	if parent.Description != "" {
		description = "Fee: " + parent.Description
	}

	row := Transaction{
		ID:                  newID(),
		UserID:              parent.UserID,
		Amount:              fee,
		Type:                TransactionTypeExpense,
		Fee:                 decimal.Zero,
		Date:                parent.Date,
		Description:         description,
		CategoryID:          stringPtr(category.ID),
		SavingAccountID:     stringPtr(accountID),
		ParentTransactionID: stringPtr(parent.ID),
	}
	if err := tx.CreateTransaction(ctx, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateTransaction records a manual income or expense. Income is credited
// net of the fee; an expense debits amount plus fee.
func (s *Service) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*Transaction, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidType
	}
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}
	if input.Fee.IsNegative() {
		return nil, ErrInvalidFee
	}

	var (
		created Transaction
		changed bool
	)
	err := s.inTx(ctx, func(tx Repository) error {
		category, err := usableCategory(ctx, tx, input.UserID, input.CategoryID, input.Type)
		if err != nil {
			return err
		}
		account, err := lockActiveAccount(ctx, tx, input.UserID, input.AccountID, accountInBody)
		if err != nil {
			return err
		}

		var delta decimal.Decimal
		if input.Type == TransactionTypeIncome {
			net := input.Amount.Sub(input.Fee)
			if net.IsNegative() {
				return ErrFeeExceedsAmount
			}
			delta = net
		} else {
			total := input.Amount.Add(input.Fee)
			if err := ensureFunds(account, total); err != nil {
				return err
			}
			delta = total.Neg()
		}

		if _, err := applyDelta(ctx, tx, input.UserID, account.ID, delta); err != nil {
			return err
		}

		created = Transaction{
			ID:              newID(),
			UserID:          input.UserID,
			Amount:          input.Amount,
			Type:            input.Type,
			Fee:             input.Fee,
			Date:            s.dateOrNow(input.Date),
			Description:     strings.TrimSpace(input.Description),
			CategoryID:      stringPtr(category.ID),
			SavingAccountID: stringPtr(account.ID),
		}
		if err := tx.CreateTransaction(ctx, &created); err != nil {
			return err
		}

		if input.Fee.IsPositive() {
			categories := newSystemCategories(tx, input.UserID)
			if _, err := recordFee(ctx, tx, categories, &created, account.ID, input.Fee); err != nil {
				return err
			}
			changed = categories.changed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCategories(input.UserID, changed)
	return &created, nil
}

func (s *Service) GetTransaction(ctx context.Context, userID, transactionID string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, transactionID)
}

func (s *Service) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) (*TransactionPage, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.Page < 1 || filter.PageSize < 1 || filter.PageSize > maxPageSize {
		return nil, ErrInvalidPage
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, ErrInvalidType
	}

	items, total, err := s.repo.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Transaction{}
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	return &TransactionPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateTransaction patches the descriptive fields of a manual row. Amount
// and account never change here, so balances are untouched.
func (s *Service) UpdateTransaction(ctx context.Context, input UpdateTransactionInput) (*Transaction, error) {
	var updated Transaction
	err := s.inTx(ctx, func(tx Repository) error {
		current, err := tx.GetTransaction(ctx, input.UserID, input.TransactionID)
		if err != nil {
			return err
		}
		if err := ensureManual(current); err != nil {
			return err
		}

		if input.Description != nil {
			current.Description = strings.TrimSpace(*input.Description)
		}
		if input.CategoryID != nil {
			category, err := usableCategory(ctx, tx, input.UserID, *input.CategoryID, current.Type)
			if err != nil {
				return err
			}
			current.CategoryID = stringPtr(category.ID)
		}
		if input.Date != nil && !input.Date.IsZero() {
			current.Date = input.Date.UTC()
		}

		if err := tx.UpdateTransaction(ctx, current); err != nil {
			return err
		}
		updated = *current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction removes a manual row after reverting its balance effect.
// Sibling rows are left alone.
func (s *Service) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return s.inTx(ctx, func(tx Repository) error {
		current, err := tx.GetTransaction(ctx, userID, transactionID)
		if err != nil {
			return err
		}
		if err := ensureManual(current); err != nil {
			return err
		}

		if err := undoEffects(ctx, tx, userID, current); err != nil {
			return err
		}

		deleted, err := tx.DeleteTransaction(ctx, userID, transactionID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrTransactionNotFound
		}
		return nil
	})
}
