package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/auth"
	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

// AccessTokenIssuer mints signed access tokens for a user.
type AccessTokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// PasswordValidator reports every strength rule a password violates.
type PasswordValidator interface {
	Validate(password string) error
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService describes the session lifecycle operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// WhoAmI returns nil with no error for unknown and for inactive users.
	WhoAmI(ctx context.Context, userID string) (*UserView, error)
	// Logout revokes the presented refresh token and returns its owner's id
	// when the token is known. Unknown or already revoked tokens are not an error.
	Logout(ctx context.Context, refreshToken string) (string, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// AuthServiceConfig wires the collaborators of NewAuthService.
type AuthServiceConfig struct {
	Users           repository.UserRepository
	Tokens          repository.RefreshTokenRepository
	Hasher          auth.CredentialHasher
	Issuer          AccessTokenIssuer
	Policy          PasswordValidator
	RefreshTokenTTL time.Duration
	Logger          logrus.FieldLogger
	Now             func() time.Time
}

type authService struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	hasher     auth.CredentialHasher
	issuer     AccessTokenIssuer
	policy     PasswordValidator
	refreshTTL time.Duration
	log        logrus.FieldLogger
	now        func() time.Time

	dummyHash string
}

func NewAuthService(cfg AuthServiceConfig) AuthService {
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = domain.DefaultRefreshTokenLifetime
	}
	if cfg.Policy == nil {
		cfg.Policy = auth.NewPasswordPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	svc := &authService{
		users:      cfg.Users,
		tokens:     cfg.Tokens,
		hasher:     cfg.Hasher,
		issuer:     cfg.Issuer,
		policy:     cfg.Policy,
		refreshTTL: cfg.RefreshTokenTTL,
		log:        cfg.Logger.WithField("component", "auth"),
		now:        cfg.Now,
	}
	svc.dummyHash = svc.computeDummyHash()
	return svc
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := s.policy.Validate(in.Password); err != nil {
		return nil, err
	}

	email, err := domain.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user, err := domain.NewUser(email, hash, in.FirstName, in.LastName, now)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		// Lost a race against a concurrent registration of the same email.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID}).Info("user registered")
	return s.issueSession(ctx, user, now)
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		s.burnVerify(password)
		return nil, s.reject(ReasonMissingCredentials, "")
	}

	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		s.burnVerify(password)
		return nil, s.reject(ReasonUnknownEmail, "")
	}
	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnVerify(password)
			return nil, s.reject(ReasonUnknownEmail, "")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	// The hash is verified before the active check so both paths cost the same.
	passwordOK := s.hasher.Verify(password, user.PasswordHash)
	if !user.IsActive {
		return nil, s.reject(ReasonInactiveAccount, user.ID)
	}
	if !passwordOK {
		return nil, s.reject(ReasonWrongPassword, user.ID)
	}

	now := s.now()
	user.UpdateLastLogin(now)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	revoked, err := s.tokens.RevokeAllForUser(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("revoke previous sessions: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "revoked_tokens": revoked}).Info("user logged in")

	return s.issueSession(ctx, user, now)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, s.reject(ReasonMissingCredentials, "")
	}

	stored, err := s.tokens.GetByTokenHash(ctx, domain.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject(ReasonUnknownToken, "")
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if !stored.Matches(refreshToken) {
		return nil, s.reject(ReasonUnknownToken, "")
	}

	now := s.now()
	if !stored.IsValid(now) {
		reason := ReasonTokenExpired
		if stored.Revoked {
			reason = ReasonTokenRevoked
		}
		return nil, s.reject(reason, stored.UserID)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject(ReasonUnknownUser, stored.UserID)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, s.reject(ReasonInactiveAccount, user.ID)
	}

	// Revoke before issuing. Only one concurrent caller can win the conditional revoke.
	if err := s.tokens.Revoke(ctx, stored.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.reject(ReasonTokenRevoked, user.ID)
		}
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	return s.issueSession(ctx, user, now)
}

func (s *authService) WhoAmI(ctx context.Context, userID string) (*UserView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, nil
	}
	view := NewUserView(user)
	return &view, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", nil
	}

	stored, err := s.tokens.GetByTokenHash(ctx, domain.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	if stored.Revoked {
		return stored.UserID, nil
	}
	if err := s.tokens.Revoke(ctx, stored.ID, s.now()); err != nil && !errors.Is(err, repository.ErrConflict) {
		return "", fmt.Errorf("revoke refresh token: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": stored.UserID, "token_id": stored.ID}).Info("user logged out")
	return stored.UserID, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.reject(ReasonUnknownUser, userID)
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return s.reject(ReasonInactiveAccount, user.ID)
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return s.reject(ReasonWrongPassword, user.ID)
	}
	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	now := s.now()
	if err := user.ChangePassword(hash, now); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	revoked, err := s.tokens.RevokeAllForUser(ctx, user.ID, now)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "revoked_tokens": revoked}).Info("password changed")
	return nil
}

func (s *authService) issueSession(ctx context.Context, user *domain.User, now time.Time) (*Session, error) {
	accessToken, accessExpiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := domain.NewRefreshToken(user.ID, s.refreshTTL, now)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, refresh.RefreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &Session{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refresh.Plaintext(),
		RefreshExpiresAt: refresh.ExpiresAt,
		User:             NewUserView(user),
	}, nil
}

func (s *authService) reject(reason, userID string) error {
	fields := logrus.Fields{"reason": reason}
	if userID != "" {
		fields["user_id"] = userID
	}
	s.log.WithFields(fields).Info("authentication rejected")
	return invalidCredentials(reason, userID)
}

const dummyPassword = "catalog-service-dummy-password"

func (s *authService) computeDummyHash() string {
	hash, err := s.hasher.Hash(dummyPassword)
	if err != nil {
		s.log.WithError(err).Warn("compute dummy password hash")
		return ""
	}
	return hash
}

// burnVerify spends one hash verification when there is no stored hash to
// check, so unknown emails and empty passwords take as long as wrong passwords.
func (s *authService) burnVerify(password string) {
	if s.dummyHash == "" {
		return
	}
	if password == "" {
		password = dummyPassword + "!"
	}
	s.hasher.Verify(password, s.dummyHash)
}
