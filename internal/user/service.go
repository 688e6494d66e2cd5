// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/moderation-admin/internal/auth"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/role"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID int64,
	passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// Register creates a user with the given roles, or the User role when none
// are given. An empty password creates an account that cannot log in to the
// admin API.
func (s *Service) Register(
	ctx context.Context,
	email, fullName, password string,
	roles ...role.Type,
) (*User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(fullName) == "" {
		return nil, fmt.Errorf("register user: %w", core.ErrInvalidInput)
	}

	var opts []Option
	if len(roles) > 0 {
		opts = append(opts, WithRoles(roles...))
	}
	if password != "" {
		hash, err := core.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("register user: %w", err)
		}
		opts = append(opts, WithPasswordHash(hash))
	}

	user := New(email, fullName, opts...)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// SubmitAppeal records a banned user's reinstatement request.
func (s *Service) SubmitAppeal(ctx context.Context, id int64) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !user.IsBanned() {
		return fmt.Errorf("submit appeal: user %d is not banned: %w", id, core.ErrInvalidInput)
	}

	return s.repo.SetAppeal(ctx, id, true)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.FullName,
		PasswordHash: u.PasswordHash,
		Role:         u.HighestRole().Type,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
