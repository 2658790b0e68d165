package service

import (
	"time"

	"catalog-service/internal/domain"
)

// UserView is the public projection of a user. It never carries the password hash.
type UserView struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	FullName    string      `json:"fullName"`
	Role        domain.Role `json:"role"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastLoginAt *time.Time  `json:"lastLoginAt,omitempty"`
}

func NewUserView(user *domain.User) UserView {
	return UserView{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		Role:        user.Role,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// Session is returned by every operation that establishes a session. The
// refresh token is the plaintext value and is shown exactly once.
type Session struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	User             UserView  `json:"user"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// normalizePage applies the listing defaults: page 1, size 20, size at most 100.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
