package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/domain"
)

var (
	ErrQueueFull        = errors.New("audit queue is full")
	ErrDispatcherClosed = errors.New("audit dispatcher is closed")
)

// DispatcherConfig controls buffering and write behavior.
type DispatcherConfig struct {
	BufferSize   int
	WriteTimeout time.Duration
	Logger       logrus.FieldLogger
	// OnDrop and OnWriteFailure are called for every dropped entry and every
	// failed write. Either may be nil.
	OnDrop         func()
	OnWriteFailure func()
}

// Dispatcher is a Sink that queues entries and writes them from a single
// background worker. Save never blocks; a full queue drops the entry.
type Dispatcher struct {
	sink    Sink
	ch      chan *domain.AuditLogEntry
	done    chan struct{}
	timeout time.Duration
	log     logrus.FieldLogger
	onDrop  func()
	onFail  func()

	// mu orders every send before the close of done; closed is guarded by it.
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failures  atomic.Uint64
	startOnce sync.Once
	closeOnce sync.Once
}

var _ Sink = (*Dispatcher)(nil)

func NewDispatcher(sink Sink, cfg DispatcherConfig) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		sink:    sink,
		ch:      make(chan *domain.AuditLogEntry, cfg.BufferSize),
		done:    make(chan struct{}),
		timeout: cfg.WriteTimeout,
		log:     cfg.Logger.WithField("component", "audit-dispatcher"),
		onDrop:  cfg.OnDrop,
		onFail:  cfg.OnWriteFailure,
	}
}

// Start launches the worker. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.run()
	})
}

// Save enqueues entry. The caller's context is not used for the write.
func (d *Dispatcher) Save(_ context.Context, entry *domain.AuditLogEntry) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.ch <- entry:
		return nil
	default:
		d.dropped.Add(1)
		if d.onDrop != nil {
			d.onDrop()
		}
		return ErrQueueFull
	}
}

// Shutdown stops accepting entries and waits for the worker to drain the queue.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.done)
		d.mu.Unlock()
	})

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain audit queue: %w", ctx.Err())
	}
}

func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *Dispatcher) Failures() uint64 {
	return d.failures.Load()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case entry := <-d.ch:
			d.write(entry)
		case <-d.done:
			for {
				select {
				case entry := <-d.ch:
					d.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) write(entry *domain.AuditLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.fail(entry, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := d.sink.Save(ctx, entry); err != nil {
		d.fail(entry, err)
	}
}

func (d *Dispatcher) fail(entry *domain.AuditLogEntry, err error) {
	d.failures.Add(1)
	if d.onFail != nil {
		d.onFail()
	}
	d.log.WithError(err).WithFields(logrus.Fields{
		"event":    entry.EventType,
		"entry_id": entry.ID,
	}).Warn("audit write failed")
}
