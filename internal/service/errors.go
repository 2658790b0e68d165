package service

import "errors"

var (
	// ErrInvalidCredentials covers every authentication failure. Callers only
	// ever see this message; the concrete reason stays in CredentialsError.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when registering an email that is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Internal diagnostic reasons carried by CredentialsError.
const (
	ReasonMissingCredentials = "missing_credentials"
	ReasonUnknownEmail       = "unknown_email"
	ReasonWrongPassword      = "wrong_password"
	ReasonInactiveAccount    = "inactive_account"
	ReasonUnknownUser        = "unknown_user"
	ReasonUnknownToken       = "unknown_token"
	ReasonTokenExpired       = "token_expired"
	ReasonTokenRevoked       = "token_revoked"
)

// CredentialsError is the single authentication failure variant. Reason and
// UserID are for logs and the audit trail and are never part of Error().
// UserID is empty when no account could be identified.
type CredentialsError struct {
	Reason string
	UserID string
}

func (e *CredentialsError) Error() string {
	return ErrInvalidCredentials.Error()
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

func invalidCredentials(reason, userID string) error {
	return &CredentialsError{Reason: reason, UserID: userID}
}

// FailureReason extracts the diagnostic reason from err, or "" when err is
// not an authentication failure.
func FailureReason(err error) string {
	var credErr *CredentialsError
	if errors.As(err, &credErr) {
		return credErr.Reason
	}
	return ""
}

// FailedUserID returns the account an authentication failure was attributed to, if any.
func FailedUserID(err error) string {
	var credErr *CredentialsError
	if errors.As(err, &credErr) {
		return credErr.UserID
	}
	return ""
}
