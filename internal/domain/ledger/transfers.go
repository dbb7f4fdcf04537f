package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Transfer moves money between two of the user's accounts. The source pays
// amount plus fee; the destination receives amount converted with the
// exchange rate when the currencies differ.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}
	if input.Fee.IsNegative() {
		return nil, ErrInvalidFee
	}
	if input.FromAccountID == "" || input.ToAccountID == "" {
		return nil, ErrInvalidAccount
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, ErrSameAccount
	}

	var (
		result  TransferResult
		changed bool
	)
	err := s.inTx(ctx, func(tx Repository) error {
		accounts, err := lockActiveAccounts(ctx, tx, input.UserID, accountInBody, input.FromAccountID, input.ToAccountID)
		if err != nil {
			return err
		}
		from := accounts[input.FromAccountID]
		to := accounts[input.ToAccountID]

		converted := input.Amount
		if from.Currency != to.Currency {
			if input.ExchangeRate == nil || !input.ExchangeRate.IsPositive() {
				return ErrExchangeRate
			}
			converted = input.Amount.Mul(*input.ExchangeRate)
		}

		total := input.Amount.Add(input.Fee)
		if err := ensureFunds(from, total); err != nil {
			return err
		}

		categories := newSystemCategories(tx, input.UserID)
		category, err := categories.get(ctx, SystemKeyTransfer)
		if err != nil {
			return err
		}

		if _, err := applyDelta(ctx, tx, input.UserID, from.ID, total.Neg()); err != nil {
			return err
		}
		if _, err := applyDelta(ctx, tx, input.UserID, to.ID, converted); err != nil {
			return err
		}

		groupID := newID()
		date := s.dateOrNow(input.Date)
		description := strings.TrimSpace(input.Description)

		result.GroupID = groupID
		result.Outgoing = Transaction{
			ID:              newID(),
			UserID:          input.UserID,
			Amount:          input.Amount,
			Type:            TransactionTypeExpense,
			Fee:             input.Fee,
			Date:            date,
			Description:     descriptionOr(description, "Transfer to "+to.Name),
			CategoryID:      stringPtr(category.ID),
			SavingAccountID: stringPtr(from.ID),
			FromAccountID:   stringPtr(from.ID),
			ToAccountID:     stringPtr(to.ID),
			SourceType:      SourceTransfer,
			TransferGroupID: stringPtr(groupID),
		}
		result.Incoming = Transaction{
			ID:              newID(),
			UserID:          input.UserID,
			Amount:          converted,
			Type:            TransactionTypeIncome,
			Fee:             decimal.Zero,
			Date:            date,
			Description:     descriptionOr(description, "Transfer from "+from.Name),
			CategoryID:      stringPtr(category.ID),
			SavingAccountID: stringPtr(to.ID),
			FromAccountID:   stringPtr(from.ID),
			ToAccountID:     stringPtr(to.ID),
			SourceType:      SourceTransfer,
			TransferGroupID: stringPtr(groupID),
		}

		if err := tx.CreateTransaction(ctx, &result.Outgoing); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &result.Incoming); err != nil {
			return err
		}

		if input.Fee.IsPositive() {
			fee, err := recordFee(ctx, tx, categories, &result.Outgoing, from.ID, input.Fee)
			if err != nil {
				return err
			}
			result.Fee = fee
		}

		changed = categories.changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCategories(input.UserID, changed)
	return &result, nil
}

// RegisterYield credits investment income to an investment account.
func (s *Service) RegisterYield(ctx context.Context, input YieldInput) (*Transaction, error) {
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}

	var (
		created Transaction
		changed bool
	)
	err := s.inTx(ctx, func(tx Repository) error {
		account, err := lockActiveAccount(ctx, tx, input.UserID, input.AccountID, accountInBody)
		if err != nil {
			return err
		}
		if account.Type != AccountTypeInvestment {
			return ErrNotInvestment
		}

		categories := newSystemCategories(tx, input.UserID)
		category, err := categories.get(ctx, SystemKeyInterestIncome)
		if err != nil {
			return err
		}

		if _, err := applyDelta(ctx, tx, input.UserID, account.ID, input.Amount); err != nil {
			return err
		}

		created = Transaction{
			ID:              newID(),
			UserID:          input.UserID,
			Amount:          input.Amount,
			Type:            TransactionTypeIncome,
			Fee:             decimal.Zero,
			Date:            s.dateOrNow(input.Date),
			Description:     descriptionOr(input.Description, "Investment yield"),
			CategoryID:      stringPtr(category.ID),
			SavingAccountID: stringPtr(account.ID),
			SourceType:      SourceInvestmentYield,
		}
		if err := tx.CreateTransaction(ctx, &created); err != nil {
			return err
		}

		changed = categories.changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCategories(input.UserID, changed)
	return &created, nil
}
