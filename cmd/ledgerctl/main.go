package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pocket-ledger-go/internal/config"
	"pocket-ledger-go/internal/db"
	"pocket-ledger-go/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Maintenance commands for the pocket-ledger database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("db-driver", "", "database driver (postgres, mysql)")
	flags.String("db-dsn", "", "database DSN, overrides the individual connection flags")
	flags.String("db-host", "", "database host")
	flags.String("db-port", "", "database port")
	flags.String("db-user", "", "database user")
	flags.String("db-name", "", "database name")

	for key, flag := range map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
		"db.driver":  "db-driver",
		"db.dsn":     "db-dsn",
		"db.host":    "db-host",
		"db.port":    "db-port",
		"db.user":    "db-user",
		"db.name":    "db-name",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backfillCategoriesCmd())
	rootCmd.AddCommand(auditCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Env:    os.Getenv("ENV"),
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
		Output: os.Stderr,
	})
}

// dbConfig starts from the environment and lets flags override single
// connection settings.
func dbConfig(log logger.Logger) (config.DBConfig, error) {
	cfg, err := config.LoadDBWithDotEnv(log)
	if err != nil {
		return config.DBConfig{}, err
	}

	if value := viper.GetString("db.driver"); value != "" {
		cfg.Driver = strings.ToLower(value)
	}
	if value := viper.GetString("db.dsn"); value != "" {
		cfg.DSN = value
	}
	if value := viper.GetString("db.host"); value != "" {
		cfg.Host = value
	}
	if value := viper.GetString("db.port"); value != "" {
		cfg.Port = value
	}
	if value := viper.GetString("db.user"); value != "" {
		cfg.User = value
	}
	if value := viper.GetString("db.name"); value != "" {
		cfg.Name = value
	}
	return cfg, nil
}

func openDatabase(log logger.Logger) (*gorm.DB, func(), error) {
	cfg, err := dbConfig(log)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return conn, closeFn, nil
}
