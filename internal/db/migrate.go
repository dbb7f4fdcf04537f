package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

const migrationsDirName = "migrations"

// Migrate applies the SQL files in migrations/<dialect> that are not yet
// recorded in schema_migrations, in file name order.
func Migrate(db *gorm.DB) error {
	path, err := MigrationsDir(db)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return MigrateDir(db, path)
}

// MigrationsDir locates migrations/<dialect> by walking up from the working
// directory.
func MigrationsDir(db *gorm.DB) (string, error) {
	return findMigrationsDir(filepath.Join(migrationsDirName, db.Dialector.Name()))
}

func MigrateDir(db *gorm.DB, path string) error {
	if err := ensureSchemaMigrations(db); err != nil {
		return err
	}

	files, err := PendingMigrations(db, path)
	if err != nil {
		return err
	}

	for _, name := range files {
		contents, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return err
		}

		for _, statement := range splitStatements(string(contents)) {
			if err := db.Exec(statement).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}

		if err := recordMigration(db, name); err != nil {
			return err
		}
	}
	return nil
}

// PendingMigrations lists the files in path that have not been applied.
func PendingMigrations(db *gorm.DB, path string) ([]string, error) {
	if err := ensureSchemaMigrations(db); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		applied, err := isMigrationApplied(db, entry.Name())
		if err != nil {
			return nil, err
		}
		if !applied {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements cuts a migration file on semicolons that end a line. MySQL
// refuses multi-statement Exec calls by default.
func splitStatements(contents string) []string {
	var (
		statements []string
		current    strings.Builder
	)
	for _, line := range strings.Split(contents, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			if statement := strings.TrimSpace(current.String()); statement != "" {
				statements = append(statements, statement)
			}
			current.Reset()
		}
	}
	if statement := strings.TrimSpace(current.String()); statement != "" {
		statements = append(statements, statement)
	}
	return statements
}

func ensureSchemaMigrations(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`).Error
}

func isMigrationApplied(db *gorm.DB, name string) (bool, error) {
	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM schema_migrations WHERE filename = ?", name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *gorm.DB, name string) error {
	return db.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error
}

func findMigrationsDir(dirName string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, dirName)
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}
