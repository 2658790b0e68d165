package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/storage"
)

type memorySink struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
	ctxs    []context.Context
}

func (s *memorySink) Save(ctx context.Context, entry *domain.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	s.ctxs = append(s.ctxs, ctx)
	return nil
}

func (s *memorySink) all() []domain.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditLogEntry(nil), s.entries...)
}

func (s *memorySink) GetRecent(_ context.Context, limit int) ([]domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditLogEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *memorySink) GetByUserID(_ context.Context, userID string, limit int) ([]domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AuditLogEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].UserID == userID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// gatedSink blocks every write until release is closed.
type gatedSink struct {
	memorySink
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSink() *gatedSink {
	return &gatedSink{started: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedSink) Save(ctx context.Context, entry *domain.AuditLogEntry) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.memorySink.Save(ctx, entry)
}

type scriptedSink struct {
	mu    sync.Mutex
	calls int
	steps []func() error
}

func (s *scriptedSink) Save(context.Context, *domain.AuditLogEntry) error {
	s.mu.Lock()
	step := s.steps[s.calls%len(s.steps)]
	s.calls++
	s.mu.Unlock()
	return step()
}

var errSinkDown = errors.New("sink down")

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) PutObject(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[opts.Key] = data
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (m *memoryStore) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range m.objects {
		if len(prefix) == 0 || len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (m *memoryStore) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".example/" + key + "?signed", nil
}
