package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidType
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}
	if input.OpeningBalance.IsNegative() {
		return nil, ErrNegativeAmount
	}

	account := Account{
		ID:             newID(),
		UserID:         input.UserID,
		Name:           name,
		Type:           input.Type,
		Currency:       currency,
		Balance:        input.OpeningBalance,
		OpeningBalance: input.OpeningBalance,
		Status:         AccountStatusActive,
	}

	err = s.inTx(ctx, func(tx Repository) error {
		count, err := tx.CountAccountsByName(ctx, input.UserID, name, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAccountNameTaken
		}
		return tx.CreateAccount(ctx, &account)
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID string) ([]Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []Account{}
	}
	return accounts, nil
}

func (s *Service) GetAccount(ctx context.Context, userID, accountID string) (*Account, error) {
	return s.repo.GetAccount(ctx, userID, accountID)
}

// UpdateAccount renames an account or changes its type. The balance is only
// ever moved by ledger operations.
func (s *Service) UpdateAccount(ctx context.Context, input UpdateAccountInput) (*Account, error) {
	var updated Account
	err := s.inTx(ctx, func(tx Repository) error {
		account, err := tx.GetAccount(ctx, input.UserID, input.AccountID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrInvalidName
			}
			if name != account.Name {
				count, err := tx.CountAccountsByName(ctx, input.UserID, name, account.ID)
				if err != nil {
					return err
				}
				if count > 0 {
					return ErrAccountNameTaken
				}
			}
			account.Name = name
		}
		if input.Type != nil {
			if !input.Type.Valid() {
				return ErrInvalidType
			}
			account.Type = *input.Type
		}

		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}
		updated = *account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Deposit adds money to an account without a category.
func (s *Service) Deposit(ctx context.Context, input AccountMovementInput) (*Transaction, error) {
	return s.moveMoney(ctx, input, TransactionTypeIncome, "Deposit")
}

func (s *Service) Withdraw(ctx context.Context, input AccountMovementInput) (*Transaction, error) {
	return s.moveMoney(ctx, input, TransactionTypeExpense, "Withdrawal")
}

func (s *Service) moveMoney(ctx context.Context, input AccountMovementInput, txType TransactionType, fallback string) (*Transaction, error) {
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}

	var created Transaction
	err := s.inTx(ctx, func(tx Repository) error {
		account, err := lockActiveAccount(ctx, tx, input.UserID, input.AccountID, accountInPath)
		if err != nil {
			return err
		}

		delta := input.Amount
		if txType == TransactionTypeExpense {
			if err := ensureFunds(account, input.Amount); err != nil {
				return err
			}
			delta = input.Amount.Neg()
		}
		if _, err := applyDelta(ctx, tx, input.UserID, account.ID, delta); err != nil {
			return err
		}

		created = Transaction{
			ID:              newID(),
			UserID:          input.UserID,
			Amount:          input.Amount,
			Type:            txType,
			Fee:             decimal.Zero,
			Date:            s.dateOrNow(input.Date),
			Description:     descriptionOr(input.Description, fallback),
			SavingAccountID: stringPtr(account.ID),
			SourceType:      SourceAccountDeposit,
		}
		return tx.CreateTransaction(ctx, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// CloseAccount closes an empty active account.
func (s *Service) CloseAccount(ctx context.Context, userID, accountID string) (*Account, error) {
	var updated Account
	err := s.inTx(ctx, func(tx Repository) error {
		account, err := lockActiveAccount(ctx, tx, userID, accountID, accountInPath)
		if err != nil {
			return err
		}
		if !account.Balance.IsZero() {
			return ErrAccountNotEmpty
		}

		closedAt := s.now().UTC()
		account.Status = AccountStatusClosed
		account.ClosedAt = &closedAt
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}
		updated = *account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount removes an account that no transaction references.
func (s *Service) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return s.inTx(ctx, func(tx Repository) error {
		account, err := tx.GetAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		count, err := tx.CountTransactionsByAccount(ctx, userID, account.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAccountInUse
		}
		if !account.Balance.IsZero() {
			return ErrAccountNotEmpty
		}

		deleted, err := tx.DeleteAccount(ctx, userID, account.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrAccountNotFound
		}
		return nil
	})
}

func (s *Service) ListAccountTransactions(ctx context.Context, userID, accountID string, filter TransactionFilter) (*TransactionPage, error) {
	if _, err := s.repo.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	filter.AccountID = accountID
	return s.ListTransactions(ctx, userID, filter)
}
