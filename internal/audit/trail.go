// Package audit records authentication events. Writes are best effort: a
// failed write is logged and dropped, never returned to the caller.
package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/domain"
)

// Sink persists a single audit entry.
type Sink interface {
	Save(ctx context.Context, entry *domain.AuditLogEntry) error
}

// Reader serves the operational read paths.
type Reader interface {
	GetByUserID(ctx context.Context, userID string, limit int) ([]domain.AuditLogEntry, error)
	GetRecent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
}

// Client identifies where a request came from. Empty fields are recorded as absent.
type Client struct {
	IPAddress string
	UserAgent string
}

const (
	DefaultReadLimit = 50
	MaxReadLimit     = 500
)

// Trail builds audit entries and hands them to a Sink.
type Trail struct {
	sink   Sink
	reader Reader
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewTrail(sink Sink, reader Reader, logger logrus.FieldLogger) *Trail {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Trail{
		sink:   sink,
		reader: reader,
		log:    logger.WithField("component", "audit"),
		now:    time.Now,
	}
}

func (t *Trail) RecordLoginSuccess(ctx context.Context, userID, email string, client Client) {
	t.record(ctx, domain.AuditLoginSuccess, userID, email, client, true, "")
}

// RecordLoginFailure stores the internal reason as the entry detail. userID is
// empty when the email matched no account.
func (t *Trail) RecordLoginFailure(ctx context.Context, userID, email, reason string, client Client) {
	t.record(ctx, domain.AuditLoginFailure, userID, email, client, false, reason)
}

func (t *Trail) RecordRegistration(ctx context.Context, userID, email string, client Client) {
	t.record(ctx, domain.AuditRegister, userID, email, client, true, "")
}

// RecordTokenRefresh records a refresh attempt; a non-empty reason marks it failed.
func (t *Trail) RecordTokenRefresh(ctx context.Context, userID, email, reason string, client Client) {
	t.record(ctx, domain.AuditTokenRefresh, userID, email, client, reason == "", reason)
}

func (t *Trail) RecordLogout(ctx context.Context, userID string, client Client) {
	t.record(ctx, domain.AuditLogout, userID, "", client, true, "")
}

// Recent returns the newest entries first.
func (t *Trail) Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	return t.reader.GetRecent(ctx, clampLimit(limit))
}

// ForUser returns the newest entries of one user first.
func (t *Trail) ForUser(ctx context.Context, userID string, limit int) ([]domain.AuditLogEntry, error) {
	return t.reader.GetByUserID(ctx, userID, clampLimit(limit))
}

func (t *Trail) record(ctx context.Context, eventType domain.AuditEventType, userID, email string, client Client, success bool, details string) {
	entry := domain.NewAuditLogEntry(eventType, userID, email, client.IPAddress, client.UserAgent, success, details, t.now())

	defer func() {
		if r := recover(); r != nil {
			t.log.WithFields(logrus.Fields{"event": eventType, "panic": r}).Error("audit sink panicked")
		}
	}()
	if err := t.sink.Save(ctx, entry); err != nil {
		t.log.WithError(err).WithFields(logrus.Fields{
			"event":   eventType,
			"user_id": userID,
		}).Warn("audit write failed")
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultReadLimit
	}
	if limit > MaxReadLimit {
		return MaxReadLimit
	}
	return limit
}
