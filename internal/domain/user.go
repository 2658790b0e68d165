package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxEmailLength = 256
	maxNameLength  = 100
)

var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidName       = errors.New("invalid name")
	ErrEmptyPasswordHash = errors.New("password hash is required")
	ErrInvalidRole       = errors.New("invalid role")
)

// Role is the coarse permission tier carried in access tokens.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// User represents an account of the catalog backend.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// NewUser validates its input and returns an active user with the User role.
func NewUser(email, passwordHash, firstName, lastName string, now time.Time) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, ErrEmptyPasswordHash
	}
	first, err := normalizeName("first name", firstName)
	if err != nil {
		return nil, err
	}
	last, err := normalizeName("last name", lastName)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &User{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: passwordHash,
		FirstName:    first,
		LastName:     last,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail trims and lower-cases an address and checks its shape.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidEmail)
	}
	if len(normalized) > maxEmailLength {
		return "", fmt.Errorf("%w: email must not exceed %d characters", ErrInvalidEmail, maxEmailLength)
	}
	at := strings.Index(normalized, "@")
	if at <= 0 || !strings.Contains(normalized[at+1:], ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, normalized)
	}
	return normalized, nil
}

func normalizeName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidName, field)
	}
	if len([]rune(value)) > maxNameLength {
		return "", fmt.Errorf("%w: %s must not exceed %d characters", ErrInvalidName, field, maxNameLength)
	}
	return value, nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) ChangeRole(role Role, now time.Time) error {
	if role != RoleUser && role != RoleAdmin {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	u.Role = role
	u.touch(now)
	return nil
}

func (u *User) ChangePassword(passwordHash string, now time.Time) error {
	if strings.TrimSpace(passwordHash) == "" {
		return ErrEmptyPasswordHash
	}
	u.PasswordHash = passwordHash
	u.touch(now)
	return nil
}

func (u *User) UpdateLastLogin(now time.Time) {
	at := now.UTC()
	u.LastLoginAt = &at
	u.touch(now)
}

func (u *User) Activate(now time.Time) {
	u.IsActive = true
	u.touch(now)
}

func (u *User) Deactivate(now time.Time) {
	u.IsActive = false
	u.touch(now)
}

func (u *User) touch(now time.Time) {
	u.UpdatedAt = now.UTC()
}
