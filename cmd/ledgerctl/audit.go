package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
	ledgerrepo "pocket-ledger-go/internal/repository/ledger"
	"pocket-ledger-go/pkg/logger"

	"github.com/spf13/cobra"
)

var errDriftFound = errors.New("balance drift found")

type balanceAuditor interface {
	AuditBalances(ctx context.Context, userID string) ([]ledgerdomain.BalanceDrift, error)
}

type userDrift struct {
	UserID string
	ledgerdomain.BalanceDrift
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute account balances from the ledger and report drift",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := newLogger()
			conn, closeFn, err := openDatabase(log)
			if err != nil {
				return err
			}
			defer closeFn()

			users, err := targetUsers(cmd.Context(), cmd, conn)
			if err != nil {
				return err
			}

			service := ledgerdomain.NewService(ledgerrepo.NewGorm(conn))
			return runAudit(cmd.Context(), service, users, log, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringSlice("user", nil, "limit to these user ids")
	return cmd
}

// runAudit returns errDriftFound when any account disagrees with its ledger.
func runAudit(ctx context.Context, auditor balanceAuditor, users []string, log logger.Logger, out, progress io.Writer) error {
	bar := newProgressBar(len(users), "auditing balances", progress)
	var drifts []userDrift
	for _, userID := range users {
		found, err := auditor.AuditBalances(ctx, userID)
		if err != nil {
			_ = bar.Exit()
			return fmt.Errorf("audit user %s: %w", userID, err)
		}
		for _, drift := range found {
			log.Warn("audit: drift", "user_id", userID, "account_id", drift.AccountID,
				"stored", drift.Stored.String(), "expected", drift.Expected.String())
			drifts = append(drifts, userDrift{UserID: userID, BalanceDrift: drift})
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if len(drifts) == 0 {
		fmt.Fprintf(out, "audited %d user(s): no drift\n", len(users))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tACCOUNT\tNAME\tSTORED\tEXPECTED\tDIFF")
	for _, drift := range drifts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			drift.UserID, drift.AccountID, drift.Name,
			drift.Stored.String(), drift.Expected.String(), drift.Stored.Sub(drift.Expected).String())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d account(s)", errDriftFound, len(drifts))
}
