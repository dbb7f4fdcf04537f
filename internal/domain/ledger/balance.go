package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// applyDelta is the only place account balances change. It loads the account
// through tx, adds delta and writes it back without checking the sign of the
// result; callers verify sufficiency first.
func applyDelta(ctx context.Context, tx Repository, userID, accountID string, delta decimal.Decimal) (*Account, error) {
	account, err := tx.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	account.Balance = account.Balance.Add(delta)
	if err := tx.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

type accountRef int

const (
	// accountInPath is addressed by the request itself (URL id or a row's own account).
	accountInPath accountRef = iota
	// accountInBody is referenced from request input.
	accountInBody
)

func lockActiveAccount(ctx context.Context, tx Repository, userID, accountID string, ref accountRef) (*Account, error) {
	if !validID(accountID) {
		if ref == accountInBody {
			return nil, ErrInvalidAccount
		}
		return nil, ErrAccountNotFound
	}

	account, err := tx.GetAccount(ctx, userID, accountID)
	if err != nil {
		if ref == accountInBody && errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidAccount
		}
		return nil, err
	}

	if !account.IsActive() {
		if ref == accountInBody {
			return nil, ErrInvalidAccount
		}
		return nil, ErrAccountClosed
	}
	return account, nil
}

// lockActiveAccounts locks accounts in id order so concurrent transfers
// between the same pair cannot deadlock.
func lockActiveAccounts(ctx context.Context, tx Repository, userID string, ref accountRef, accountIDs ...string) (map[string]*Account, error) {
	ordered := append([]string(nil), accountIDs...)
	sort.Strings(ordered)

	accounts := make(map[string]*Account, len(ordered))
	for _, id := range ordered {
		if _, ok := accounts[id]; ok {
			continue
		}
		account, err := lockActiveAccount(ctx, tx, userID, id, ref)
		if err != nil {
			return nil, err
		}
		accounts[id] = account
	}
	return accounts, nil
}

func ensureFunds(account *Account, required decimal.Decimal) error {
	if account.Balance.LessThan(required) {
		return ErrInsufficientBalance
	}
	return nil
}
