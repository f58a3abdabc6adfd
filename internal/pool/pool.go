// Package pool bounds concurrent access to the content store. A fixed
// number of reusable storage handles are leased out; callers past the
// limit block until a handle frees up or their context expires.
package pool

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/vqtran/docpin/internal/errors"
	"github.com/vqtran/docpin/internal/store"
)

// DefaultSize is the number of handles a pool manages unless
// configured otherwise.
const DefaultSize = 10

// DefaultAcquireTimeout bounds how long Acquire waits for a free
// handle before failing with a retryable exhaustion error.
const DefaultAcquireTimeout = 5 * time.Second

// Pool manages a fixed set of storage handles. Handles are created
// lazily up to the pool size and recycled on release; a handle whose
// reset fails is destroyed and its capacity slot returned so the pool
// never shrinks below its configured size.
type Pool struct {
	mu        sync.Mutex
	storePath string
	size      int
	timeout   time.Duration
	logger    *slog.Logger

	// slots caps total live handles; handles holds the idle ones.
	slots   chan struct{}
	handles chan *store.Handle

	lock   *flock.Flock
	inited bool
	closed bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithSize sets the maximum number of concurrently leased handles.
func WithSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithAcquireTimeout sets the default wait bound for Acquire when the
// caller's context has no earlier deadline.
func WithAcquireTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the pool's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates an uninitialized pool. Acquire fails until Init is
// called with the store path.
func New(opts ...Option) *Pool {
	p := &Pool{
		size:    DefaultSize,
		timeout: DefaultAcquireTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init binds the pool to a store path and takes a file lock next to
// the database so two processes never share one store. Calling Init
// twice is an error.
func (p *Pool) Init(storePath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New(errors.ErrCodeInternal, "pool is closed", nil)
	}
	if p.inited {
		return errors.New(errors.ErrCodeInternal, "pool already initialized", nil)
	}

	if storePath != "" {
		lock := flock.New(storePath + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return errors.New(errors.ErrCodeStoreBusy, "cannot lock store: "+storePath, err)
		}
		if !locked {
			return errors.New(errors.ErrCodeStoreBusy,
				"store in use by another process: "+filepath.Base(storePath), nil)
		}
		p.lock = lock
	}

	p.storePath = storePath
	p.slots = make(chan struct{}, p.size)
	p.handles = make(chan *store.Handle, p.size)
	for i := 0; i < p.size; i++ {
		p.slots <- struct{}{}
	}
	p.inited = true

	p.logger.Info("pool initialized", "size", p.size, "store", storePath)
	return nil
}

// Acquire leases a handle, blocking until one is free or the deadline
// hits. The caller must return it with Release. The ctx bounds the
// wait; when it carries no deadline the pool's acquire timeout applies.
func (p *Pool) Acquire(ctx context.Context) (*store.Handle, error) {
	p.mu.Lock()
	if !p.inited || p.closed {
		p.mu.Unlock()
		return nil, errors.NotInitialized("pool not initialized")
	}
	handles, slots := p.handles, p.slots
	p.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	select {
	case h := <-handles:
		return h, nil
	case <-slots:
		h, err := p.newHandle()
		if err != nil {
			// Hand the slot back so a later caller can retry.
			slots <- struct{}{}
			return nil, err
		}
		return h, nil
	case <-ctx.Done():
		return nil, errors.PoolExhausted("no storage handle available")
	}
}

// Release returns a handle to the pool. The handle is reset before it
// can be leased again; if the reset fails the handle is destroyed and
// its capacity slot freed for a fresh one.
func (p *Pool) Release(h *store.Handle) {
	if h == nil {
		return
	}

	p.mu.Lock()
	if !p.inited || p.closed {
		p.mu.Unlock()
		_ = h.Close()
		return
	}
	handles, slots := p.handles, p.slots
	p.mu.Unlock()

	if err := h.Reset(); err != nil {
		p.logger.Warn("destroying handle after failed reset", "error", err)
		_ = h.Close()
		slots <- struct{}{}
		return
	}
	handles <- h
}

// Clear drains and closes all idle handles. Leased handles are closed
// when released. The pool stays initialized; fresh handles are created
// on demand afterwards.
func (p *Pool) Clear() {
	p.mu.Lock()
	if !p.inited || p.closed {
		p.mu.Unlock()
		return
	}
	handles, slots := p.handles, p.slots
	p.mu.Unlock()

	for {
		select {
		case h := <-handles:
			_ = h.Close()
			slots <- struct{}{}
		default:
			return
		}
	}
}

// Close shuts the pool down: idle handles are closed and the store
// lock released. Acquire fails afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	handles := p.handles
	lock := p.lock
	p.mu.Unlock()

	if handles != nil {
		drained := false
		for !drained {
			select {
			case h := <-handles:
				_ = h.Close()
			default:
				drained = true
			}
		}
	}
	if lock != nil {
		return lock.Unlock()
	}
	return nil
}

// Size returns the configured handle limit.
func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) newHandle() (*store.Handle, error) {
	h, err := store.New(p.storePath)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// With leases a handle for the duration of fn and releases it after,
// whatever fn returns.
func (p *Pool) With(ctx context.Context, fn func(*store.Handle) error) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(h)
	return fn(h)
}
