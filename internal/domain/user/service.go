package user

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertProfile records the authenticated user. Empty email or name never
// overwrite stored values.
func (s *Service) UpsertProfile(ctx context.Context, userID, email, name string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	profile := Profile{UserID: userID}
	if email = strings.TrimSpace(email); email != "" {
		profile.Email = &email
	}
	if name = strings.TrimSpace(name); name != "" {
		profile.Name = &name
	}

	return s.repo.UpsertProfile(ctx, &profile)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	return s.repo.GetProfile(ctx, userID)
}

// ListUserIDs returns every known profile, used by maintenance commands that
// walk all users.
func (s *Service) ListUserIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListUserIDs(ctx)
}
