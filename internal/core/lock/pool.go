// Package lock provides a process-wide pool of per-key mutexes.
//
// Entries are created on first use and dropped as soon as nobody holds or
// waits for them, so touching many distinct keys once does not grow the pool.
// The pool only coordinates goroutines inside one process.
package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rl1809/estate-listings/internal/core/domain"
)

// DefaultTimeout bounds how long Acquire waits when NewPool gets no timeout.
const DefaultTimeout = 60 * time.Second

type entry struct {
	sem *semaphore.Weighted
	// refs counts holders plus waiters. Once it reaches zero the entry is dead
	// and is never retained again.
	refs atomic.Int64
}

func (e *entry) tryRetain() bool {
	for {
		n := e.refs.Load()
		if n <= 0 {
			return false
		}
		if e.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Pool hands out one mutex per key. The zero value is not usable; call NewPool.
type Pool struct {
	entries sync.Map // map[string]*entry
	timeout time.Duration
}

// NewPool returns a pool whose acquisitions give up after timeout.
// A non-positive timeout selects DefaultTimeout.
func NewPool(timeout time.Duration) *Pool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pool{timeout: timeout}
}

// Timeout is the longest Acquire waits before giving up.
func (p *Pool) Timeout() time.Duration {
	return p.timeout
}

// Acquire blocks until the mutex for key is held, the pool timeout elapses
// (domain.ErrLockUnavailable) or ctx is done (ctx.Err()).
func (p *Pool) Acquire(ctx context.Context, key string) (*Guard, error) {
	e := p.retain(key)

	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		p.drop(key, e)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctxErr)
		}
		return nil, fmt.Errorf("acquire lock %s after %s: %w", key, p.timeout, domain.ErrLockUnavailable)
	}

	return &Guard{pool: p, key: key, entry: e}, nil
}

// TryAcquire takes the mutex for key only if it is free right now.
func (p *Pool) TryAcquire(key string) (*Guard, bool) {
	e := p.retain(key)
	if !e.sem.TryAcquire(1) {
		p.drop(key, e)
		return nil, false
	}
	return &Guard{pool: p, key: key, entry: e}, true
}

// Len returns the number of live entries.
func (p *Pool) Len() int {
	n := 0
	p.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// retain returns the live entry for key with its reference count already
// incremented, creating the entry if needed.
func (p *Pool) retain(key string) *entry {
	for {
		if v, ok := p.entries.Load(key); ok {
			e := v.(*entry)
			if e.tryRetain() {
				return e
			}
			p.entries.CompareAndDelete(key, e)
			continue
		}

		fresh := &entry{sem: semaphore.NewWeighted(1)}
		fresh.refs.Store(1)
		v, loaded := p.entries.LoadOrStore(key, fresh)
		if !loaded {
			return fresh
		}
		e := v.(*entry)
		if e.tryRetain() {
			return e
		}
		p.entries.CompareAndDelete(key, e)
	}
}

func (p *Pool) drop(key string, e *entry) {
	if e.refs.Add(-1) == 0 {
		p.entries.CompareAndDelete(key, e)
	}
}

// Guard is a held lock. Release must be called exactly once; later calls are
// ignored.
type Guard struct {
	pool     *Pool
	key      string
	entry    *entry
	released atomic.Bool
}

// Key is the key this guard holds.
func (g *Guard) Key() string {
	return g.key
}

func (g *Guard) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	g.entry.sem.Release(1)
	g.pool.drop(g.key, g.entry)
}

// WithLock runs fn while holding the lock for key. The lock is released on
// every exit path, including a panic in fn.
func WithLock[T any](ctx context.Context, p *Pool, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	g, err := p.Acquire(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	defer g.Release()

	return fn(ctx)
}
