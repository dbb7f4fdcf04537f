package main

import (
	"context"
	"fmt"
	"io"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
	ledgerrepo "pocket-ledger-go/internal/repository/ledger"
	"pocket-ledger-go/pkg/logger"

	"github.com/spf13/cobra"
)

type categoryProvisioner interface {
	ProvisionSystemCategories(ctx context.Context, userID string) ([]ledgerdomain.Category, error)
}

func backfillCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill-categories",
		Short: "Provision the system categories for every user",
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
			failed := backfillCategories(cmd.Context(), service, users, log, cmd.ErrOrStderr())
			fmt.Fprintf(cmd.OutOrStdout(), "provisioned %d user(s), %d failed\n", len(users)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("backfill failed for %d user(s)", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("user", nil, "limit to these user ids")
	return cmd
}

// backfillCategories provisions each user independently and returns how many
// failed. A failure does not stop the run.
func backfillCategories(ctx context.Context, provisioner categoryProvisioner, users []string, log logger.Logger, progress io.Writer) int {
	bar := newProgressBar(len(users), "provisioning categories", progress)
	failed := 0
	for i, userID := range users {
		if ctx.Err() != nil {
			log.Warn("backfill: interrupted", "remaining", len(users)-i)
			failed += len(users) - i
			break
		}
		if _, err := provisioner.ProvisionSystemCategories(ctx, userID); err != nil {
			log.InternalError("backfill: provision failed", err, "user_id", userID)
			failed++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return failed
}
