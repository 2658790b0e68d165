package audit

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
)

func TestTrailRecordsEveryEventType(t *testing.T) {
	sink := &memorySink{}
	logger, _ := test.NewNullLogger()
	trail := NewTrail(sink, sink, logger)
	ctx := context.Background()
	client := Client{IPAddress: "10.0.0.1", UserAgent: "curl/8"}

	trail.RecordRegistration(ctx, "u1", "alice@example.com", client)
	trail.RecordLoginSuccess(ctx, "u1", "alice@example.com", client)
	trail.RecordLoginFailure(ctx, "", "ghost@example.com", "unknown_email", client)
	trail.RecordTokenRefresh(ctx, "u1", "alice@example.com", "", client)
	trail.RecordTokenRefresh(ctx, "u1", "", "token_revoked", Client{})
	trail.RecordLogout(ctx, "u1", client)

	entries := sink.all()
	require.Len(t, entries, 6)

	assert.Equal(t, domain.AuditRegister, entries[0].EventType)
	assert.True(t, entries[0].Success)
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
	assert.Equal(t, "curl/8", entries[0].UserAgent)

	failure := entries[2]
	assert.Equal(t, domain.AuditLoginFailure, failure.EventType)
	assert.False(t, failure.Success)
	assert.Empty(t, failure.UserID)
	assert.Equal(t, "ghost@example.com", failure.Email)
	assert.Equal(t, "unknown_email", failure.Details)

	assert.True(t, entries[3].Success)
	assert.False(t, entries[4].Success)
	assert.Equal(t, "token_revoked", entries[4].Details)
	assert.Empty(t, entries[4].IPAddress)
	assert.Equal(t, domain.AuditLogout, entries[5].EventType)

	ids := map[string]bool{}
	for _, e := range entries {
		ids[e.ID] = true
		assert.False(t, e.CreatedAt.IsZero())
	}
	assert.Len(t, ids, 6)
}

func TestTrailSwallowsSinkFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := &scriptedSink{steps: []func() error{
		func() error { return errSinkDown },
		func() error { panic("boom") },
	}}
	trail := NewTrail(sink, nil, logger)

	assert.NotPanics(t, func() {
		trail.RecordLoginSuccess(context.Background(), "u1", "a@example.com", Client{})
		trail.RecordLoginSuccess(context.Background(), "u1", "a@example.com", Client{})
	})

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "audit write failed", entries[0].Message)
	assert.Equal(t, errSinkDown, entries[0].Data[logrus.ErrorKey])
	assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
}

func TestTrailReadsNewestFirstWithClampedLimit(t *testing.T) {
	sink := &memorySink{}
	trail := NewTrail(sink, sink, nil)
	ctx := context.Background()

	for range 3 {
		trail.RecordLoginSuccess(ctx, "u1", "a@example.com", Client{})
	}
	trail.RecordLoginSuccess(ctx, "u2", "b@example.com", Client{})

	recent, err := trail.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "u2", recent[0].UserID)

	mine, err := trail.ForUser(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	assert.Equal(t, DefaultReadLimit, clampLimit(-1))
	assert.Equal(t, MaxReadLimit, clampLimit(MaxReadLimit+1))
	assert.Equal(t, 7, clampLimit(7))
}
