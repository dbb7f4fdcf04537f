package main

import (
	"context"
	"fmt"
	"io"
	"os"

	userdomain "pocket-ledger-go/internal/domain/user"
	userrepo "pocket-ledger-go/internal/repository/user"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// targetUsers returns the ids given with --user, or every known profile.
func targetUsers(ctx context.Context, cmd *cobra.Command, conn *gorm.DB) ([]string, error) {
	users, _ := cmd.Flags().GetStringSlice("user")
	if len(users) > 0 {
		if err := validateUserIDs(users); err != nil {
			return nil, err
		}
		return users, nil
	}
	return userdomain.NewService(userrepo.NewGorm(conn)).ListUserIDs(ctx)
}

func newProgressBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionClearOnFinish(),
	)
}

func validateUserIDs(users []string) error {
	for _, id := range users {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("--user %q is not a uuid", id)
		}
	}
	return nil
}
