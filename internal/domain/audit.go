package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEventType tags an authentication event.
type AuditEventType string

const (
	AuditLoginSuccess AuditEventType = "LoginSuccess"
	AuditLoginFailure AuditEventType = "LoginFailure"
	AuditRegister     AuditEventType = "Register"
	AuditTokenRefresh AuditEventType = "TokenRefresh"
	AuditLogout       AuditEventType = "Logout"
)

// AuditLogEntry is an immutable record of an authentication event.
// Empty optional fields mean "absent".
type AuditLogEntry struct {
	ID        string
	EventType AuditEventType
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	Success   bool
	Details   string
	CreatedAt time.Time
}

// NewAuditLogEntry stamps a new entry with an id and creation time.
func NewAuditLogEntry(eventType AuditEventType, userID, email, ip, userAgent string, success bool, details string, now time.Time) *AuditLogEntry {
	return &AuditLogEntry{
		ID:        uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   success,
		Details:   details,
		CreatedAt: now.UTC(),
	}
}
