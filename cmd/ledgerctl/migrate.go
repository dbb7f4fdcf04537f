package main

import (
	"fmt"

	"pocket-ledger-go/internal/db"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE:  runMigrate,
	}
	cmd.Flags().String("dir", "", "migrations directory (default: migrations/<driver> found from the working directory)")
	cmd.Flags().Bool("status", false, "list pending migrations without applying them")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	statusOnly, _ := cmd.Flags().GetBool("status")

	log := newLogger()
	conn, closeFn, err := openDatabase(log)
	if err != nil {
		return err
	}
	defer closeFn()

	if dir == "" {
		dir, err = db.MigrationsDir(conn)
		if err != nil {
			return fmt.Errorf("locate migrations for %s: %w", conn.Dialector.Name(), err)
		}
	}

	pending, err := db.PendingMigrations(conn, dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(pending) == 0 {
		fmt.Fprintln(out, "schema is up to date")
		return nil
	}

	for _, name := range pending {
		fmt.Fprintln(out, "pending:", name)
	}
	if statusOnly {
		return nil
	}

	if err := db.MigrateDir(conn, dir); err != nil {
		return err
	}
	log.Info("migrate: applied", "count", len(pending), "dir", dir)
	fmt.Fprintf(out, "applied %d migration(s)\n", len(pending))
	return nil
}
