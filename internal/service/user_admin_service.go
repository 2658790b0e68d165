package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

// UserAdminService is the operational tooling over the user directory.
type UserAdminService interface {
	List(ctx context.Context, page, size int) (Page[UserView], error)
	Get(ctx context.Context, id string) (*UserView, error)
	ChangeRole(ctx context.Context, id string, role domain.Role) (*UserView, error)
	// Deactivate also revokes every refresh token of the user.
	Deactivate(ctx context.Context, id string) (*UserView, error)
	Activate(ctx context.Context, id string) (*UserView, error)
}

type userAdminService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewUserAdminService(users repository.UserRepository, tokens repository.RefreshTokenRepository, logger logrus.FieldLogger) UserAdminService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &userAdminService{
		users:  users,
		tokens: tokens,
		log:    logger.WithField("component", "user-admin"),
		now:    time.Now,
	}
}

func (s *userAdminService) List(ctx context.Context, page, size int) (Page[UserView], error) {
	page, size = normalizePage(page, size)
	users, err := s.users.GetAll(ctx, page, size)
	if err != nil {
		return Page[UserView]{}, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return Page[UserView]{}, err
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, NewUserView(&users[i]))
	}
	return Page[UserView]{Items: views, Page: page, Size: size, Total: total}, nil
}

func (s *userAdminService) Get(ctx context.Context, id string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewUserView(user)
	return &view, nil
}

func (s *userAdminService) ChangeRole(ctx context.Context, id string, role domain.Role) (*UserView, error) {
	return s.mutate(ctx, id, func(user *domain.User, now time.Time) error {
		return user.ChangeRole(role, now)
	})
}

func (s *userAdminService) Deactivate(ctx context.Context, id string) (*UserView, error) {
	view, err := s.mutate(ctx, id, func(user *domain.User, now time.Time) error {
		user.Deactivate(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	revoked, err := s.tokens.RevokeAllForUser(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("revoke sessions: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "revoked_tokens": revoked}).Info("user deactivated")
	return view, nil
}

func (s *userAdminService) Activate(ctx context.Context, id string) (*UserView, error) {
	return s.mutate(ctx, id, func(user *domain.User, now time.Time) error {
		user.Activate(now)
		return nil
	})
}

func (s *userAdminService) mutate(ctx context.Context, id string, apply func(*domain.User, time.Time) error) (*UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(user, s.now()); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	view := NewUserView(user)
	return &view, nil
}
