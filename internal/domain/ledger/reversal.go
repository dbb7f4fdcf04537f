package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReverseTransaction cancels a transaction by writing its inverse. Both legs
// of a transfer are reversed together; the fee row of the original stays.
// Credit-card purchases also give the charge back on the card's sub-ledger.
func (s *Service) ReverseTransaction(ctx context.Context, input ReverseInput) ([]Transaction, error) {
	var note *string
	if input.Note != nil {
		if trimmed := strings.TrimSpace(*input.Note); trimmed != "" {
			note = &trimmed
		}
	}

	// The unlocked read only learns the transfer group, which never changes.
	target, err := s.repo.GetTransaction(ctx, input.UserID, input.TransactionID)
	if err != nil {
		return nil, err
	}

	var reversals []Transaction
	err = s.inTx(ctx, func(tx Repository) error {
		original, group, err := lockForReversal(ctx, tx, input.UserID, target)
		if err != nil {
			return err
		}
		if original.IsCancelled {
			return ErrTransactionCancelled
		}
		if original.IsReversal() {
			return ErrTransactionReversal
		}

		legs, err := reversibleLegs(original, group)
		if err != nil {
			return err
		}

		if err := undoEffects(ctx, tx, input.UserID, legs...); err != nil {
			return err
		}

		var groupID *string
		if len(legs) > 1 {
			groupID = stringPtr(newID())
		}
		date := s.now().UTC()

		reversals = make([]Transaction, 0, len(legs))
		for _, leg := range legs {
			sourceType := leg.SourceType
			if sourceType == SourceCreditCardPurchase {
				sourceType = SourceCreditCardPurchaseReversal
			}

			reversal := Transaction{
				ID:                    newID(),
				UserID:                input.UserID,
				Amount:                leg.Amount,
				Type:                  leg.Type.Inverse(),
				Fee:                   decimal.Zero,
				Date:                  date,
				Description:           reversalDescription(leg),
				CategoryID:            leg.CategoryID,
				SavingAccountID:       leg.SavingAccountID,
				FromAccountID:         leg.FromAccountID,
				ToAccountID:           leg.ToAccountID,
				DebtID:                leg.DebtID,
				SourceType:            sourceType,
				ReversedTransactionID: stringPtr(leg.ID),
				TransferGroupID:       groupID,
				ReversalNote:          note,
			}
			if err := tx.CreateTransaction(ctx, &reversal); err != nil {
				return err
			}

			if leg.SourceType == SourceCreditCardPurchase && leg.DebtID != nil {
				if err := reverseCardCharge(ctx, tx, input.UserID, *leg.DebtID, leg.Amount, date, reversal.Description); err != nil {
					return err
				}
			}

			leg.IsCancelled = true
			leg.ReversalNote = note
			if err := tx.UpdateTransaction(ctx, leg); err != nil {
				return err
			}
			reversals = append(reversals, reversal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversals, nil
}

// lockForReversal locks the row to reverse. Transfer legs are locked as a
// whole group in id order, whichever leg was requested, so concurrent
// reversals of opposite legs queue instead of deadlocking.
func lockForReversal(ctx context.Context, tx Repository, userID string, target *Transaction) (*Transaction, []Transaction, error) {
	if target.TransferGroupID == nil {
		original, err := tx.GetTransaction(ctx, userID, target.ID)
		return original, nil, err
	}

	group, err := tx.ListTransferGroup(ctx, userID, *target.TransferGroupID)
	if err != nil {
		return nil, nil, err
	}
	for i := range group {
		if group[i].ID == target.ID {
			return &group[i], group, nil
		}
	}
	return nil, nil, ErrTransactionNotFound
}

// reversibleLegs expands a transfer leg to every leg sharing its group.
func reversibleLegs(original *Transaction, group []Transaction) ([]*Transaction, error) {
	legs := []*Transaction{original}
	for i := range group {
		leg := &group[i]
		if leg.ID == original.ID {
			continue
		}
		if leg.IsCancelled || leg.IsReversal() {
			return nil, ErrTransferLegCancelled
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func reversalDescription(t *Transaction) string {
	if t.Description == "" {
		return fmt.Sprintf("Reversal of transaction %s", t.ID)
	}
	return fmt.Sprintf("Reversal of transaction %s: %s", t.ID, t.Description)
}
