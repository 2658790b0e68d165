package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/domain"
	"catalog-service/internal/storage"
)

var (
	// ErrArchiveDisabled is returned when no object storage is configured.
	ErrArchiveDisabled         = errors.New("audit archive storage not configured")
	ErrArchiveKeyOutsidePrefix = errors.New("archive key outside archive prefix")
)

// Record is the serialized form of an entry, used for archives and API responses.
type Record struct {
	ID        string                `json:"id"`
	EventType domain.AuditEventType `json:"eventType"`
	UserID    string                `json:"userId,omitempty"`
	Email     string                `json:"email,omitempty"`
	IPAddress string                `json:"ipAddress,omitempty"`
	UserAgent string                `json:"userAgent,omitempty"`
	Success   bool                  `json:"success"`
	Details   string                `json:"details,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}

func NewRecord(entry domain.AuditLogEntry) Record {
	return Record{
		ID:        entry.ID,
		EventType: entry.EventType,
		UserID:    entry.UserID,
		Email:     entry.Email,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Success:   entry.Success,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
}

// ArchiveResult describes one uploaded archive.
type ArchiveResult struct {
	Location string `json:"location"`
	Key      string `json:"key"`
	Entries  int    `json:"entries"`
}

// Archiver exports recent entries as JSON lines to object storage.
type Archiver struct {
	reader Reader
	store  storage.Service
	bucket string
	prefix string
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewArchiver returns an archiver; a nil store or empty bucket disables it.
func NewArchiver(reader Reader, store storage.Service, bucket, prefix string, logger logrus.FieldLogger) *Archiver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Archiver{
		reader: reader,
		store:  store,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(prefix, "/"),
		log:    logger.WithField("component", "audit-archiver"),
		now:    time.Now,
	}
}

func (a *Archiver) Enabled() bool {
	return a != nil && a.store != nil && a.bucket != ""
}

// Archive uploads up to limit of the newest entries.
func (a *Archiver) Archive(ctx context.Context, limit int) (ArchiveResult, error) {
	if !a.Enabled() {
		return ArchiveResult{}, ErrArchiveDisabled
	}

	entries, err := a.reader.GetRecent(ctx, clampLimit(limit))
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("load audit entries: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := enc.Encode(NewRecord(entry)); err != nil {
			return ArchiveResult{}, fmt.Errorf("encode audit entry %s: %w", entry.ID, err)
		}
	}

	key := a.objectKey(a.now().UTC())
	location, err := a.store.PutObject(ctx, &buf, storage.PutOptions{
		Bucket:      a.bucket,
		Key:         key,
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return ArchiveResult{}, err
	}

	a.log.WithFields(logrus.Fields{"location": location, "entries": len(entries)}).Info("audit archive uploaded")
	return ArchiveResult{Location: location, Key: key, Entries: len(entries)}, nil
}

// List returns the archives stored under the configured prefix.
func (a *Archiver) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	if !a.Enabled() {
		return nil, ErrArchiveDisabled
	}
	prefix := a.prefix
	if prefix != "" {
		prefix += "/"
	}
	return a.store.ListObjects(ctx, a.bucket, prefix)
}

// DownloadURL presigns a link to one archive under the configured prefix.
func (a *Archiver) DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if !a.Enabled() {
		return "", ErrArchiveDisabled
	}
	if a.prefix != "" && !strings.HasPrefix(key, a.prefix+"/") {
		return "", fmt.Errorf("%w: %q is outside %s/", ErrArchiveKeyOutsidePrefix, key, a.prefix)
	}
	return a.store.GetObjectURL(ctx, a.bucket, key, expires)
}

func (a *Archiver) objectKey(now time.Time) string {
	name := fmt.Sprintf("audit-%s-%s.jsonl", now.Format("20060102T150405Z"), uuid.NewString()[:8])
	return path.Join(a.prefix, now.Format("2006/01/02"), name)
}
