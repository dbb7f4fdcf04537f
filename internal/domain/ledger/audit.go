package ledger

import "context"

// AuditBalances recomputes every account balance from its opening balance
// and its live rows and reports the accounts whose stored balance differs.
// A cancelled row and the reversal that cancelled it offset each other, so
// both are skipped.
func (s *Service) AuditBalances(ctx context.Context, userID string) ([]BalanceDrift, error) {
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	drifts := make([]BalanceDrift, 0)
	for _, account := range accounts {
		rows, err := s.repo.ListAccountLedger(ctx, userID, account.ID)
		if err != nil {
			return nil, err
		}

		expected := account.OpeningBalance
		for i := range rows {
			row := &rows[i]
			if row.IsCancelled || row.IsReversal() {
				continue
			}
			expected = expected.Add(effects(row)[account.ID])
		}

		if !expected.Equal(account.Balance) {
			drifts = append(drifts, BalanceDrift{
				AccountID: account.ID,
				Name:      account.Name,
				Stored:    account.Balance,
				Expected:  expected,
			})
		}
	}
	return drifts, nil
}
