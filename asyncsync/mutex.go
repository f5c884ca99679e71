// Package asyncsync implements spec.md §4.10/§4.11's async lock and async
// condition variable: synchronization primitives whose "blocking"
// operations suspend a logical task rather than an OS thread, resuming
// it on a caller-nominated executor once the primitive can proceed.
//
// Grounded on original_source/include/concurrencpp/threads/async_lock.h
// and async_condition_variable.{h,cpp}. Both there and here, waiting is
// FIFO: an intrusive singly-linked list of awaiters in the original,
// a plain slice used as a FIFO queue here (acquire appends, release pops
// the front) since Go has no analogous intrusive-list idiom and the
// queues involved are not hot enough to need one.
package asyncsync

import (
	"sync"

	"github.com/concurrencpp-go/runtime/internal/task"
	"github.com/concurrencpp-go/runtime/result"
)

// Executor is the minimal capability asyncsync needs to resume a waiter:
// the ability to enqueue a task. Any concrete executor.Executor satisfies
// this by structural typing; this package does not import executor.
type Executor interface {
	Enqueue(t task.Task) error
}

// dispatch resumes fn on executor, or calls it inline if executor is nil
// or has shut down — mirroring result.resume's "never drop a ready
// continuation" fallback.
func dispatch(executor Executor, fn func()) {
	if executor == nil {
		fn()
		return
	}
	if err := executor.Enqueue(task.New(fn)); err != nil {
		fn()
	}
}

// waiter is one entry of a Mutex's FIFO wait queue.
type waiter struct {
	executor Executor
	resume   func()
}

// Mutex is an async mutual-exclusion lock: acquiring it when already held
// suspends the caller (via the returned lazy result) instead of blocking
// an OS thread. The zero Mutex is unlocked and ready to use, like
// sync.Mutex.
type Mutex struct {
	mu       sync.Mutex
	awaiters []*waiter
	locked   bool
}

// ScopedLock is an RAII-style guard over a Mutex, tracking whether it
// currently owns the lock so Unlock/Release/OwnsLock behave correctly
// even after the lock has been handed off or explicitly released.
type ScopedLock struct {
	lock *Mutex
	owns bool
}

// acquire is the shared FIFO-queueing logic behind Mutex.Lock and
// ScopedLock.Lock: it resolves once m is actually held, resumed on
// resumeExecutor.
func (m *Mutex) acquire(resumeExecutor Executor) result.Result[struct{}] {
	promise := result.NewPromise[struct{}]()
	acquired := func() { promise.SetResult(struct{}{}) }

	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		dispatch(resumeExecutor, acquired)
		return promise.Result()
	}
	m.awaiters = append(m.awaiters, &waiter{executor: resumeExecutor, resume: acquired})
	m.mu.Unlock()
	return promise.Result()
}

// Lock returns a lazy result that, once awaited, attempts to acquire the
// mutex (immediately, resumed on resumeExecutor, if it was free; otherwise
// joining the FIFO wait queue and resuming once every earlier-queued
// waiter has been handed the lock and released it) and resolves to a
// fresh ScopedLock owning it. The attempt itself — the only observable
// side effect, since it may join the wait queue — does not happen until
// the returned Lazy is started via Get/Await/AwaitVia, matching the
// original's async_lock::lock returning a lazy_result.
func (m *Mutex) Lock(resumeExecutor Executor) result.Lazy[ScopedLock] {
	return result.NewLazyAsync(func() result.Result[ScopedLock] {
		inner := m.acquire(resumeExecutor)
		promise := result.NewPromise[ScopedLock]()
		inner.Await(func() {
			_, _ = inner.Get()
			promise.SetResult(ScopedLock{lock: m, owns: true})
		})
		return promise.Result()
	})
}

// TryLock makes a single non-blocking acquisition attempt. Unlike Lock,
// this never suspends, so it returns a plain bool rather than a Result.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases the mutex. If a waiter is queued, ownership is handed
// off directly to it (the locked flag is never cleared in that case) and
// it is resumed on its own nominated executor; otherwise the mutex
// becomes free. Unlocking an unlocked Mutex is a programming error and
// panics, matching the original's documented precondition.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	if !m.locked {
		m.mu.Unlock()
		panic("asyncsync: Unlock of unlocked Mutex")
	}
	if len(m.awaiters) == 0 {
		m.locked = false
		m.mu.Unlock()
		return
	}
	next := m.awaiters[0]
	m.awaiters = m.awaiters[1:]
	m.mu.Unlock()
	dispatch(next.executor, next.resume)
}

// Lock returns a lazy result that, once awaited, re-acquires s's mutex
// after an explicit Unlock/Release, resuming on resumeExecutor once
// acquired. The preconditions (s must have an associated mutex it does
// not already own) are checked eagerly, at call time, since they are
// programming errors rather than part of the deferred acquisition
// attempt; the attempt itself waits for the first Get/Await/AwaitVia.
func (s *ScopedLock) Lock(resumeExecutor Executor) result.Lazy[struct{}] {
	if s.lock == nil {
		panic("asyncsync: Lock called on a ScopedLock with no mutex")
	}
	if s.owns {
		panic("asyncsync: Lock called on a ScopedLock that already owns its mutex")
	}
	lock := s.lock
	return result.NewLazyAsync(func() result.Result[struct{}] {
		inner := lock.acquire(resumeExecutor)
		promise := result.NewPromise[struct{}]()
		inner.Await(func() {
			_, _ = inner.Get()
			s.owns = true
			promise.SetResult(struct{}{})
		})
		return promise.Result()
	})
}

// TryLock makes a single non-blocking re-acquisition attempt on s's
// mutex, setting owns on success.
func (s *ScopedLock) TryLock() bool {
	if s.lock == nil || s.owns {
		return false
	}
	if s.lock.TryLock() {
		s.owns = true
		return true
	}
	return false
}

// Unlock releases s's ownership of its mutex. Panics if s does not
// currently own it.
func (s *ScopedLock) Unlock() {
	if !s.owns {
		panic("asyncsync: Unlock called on a ScopedLock that does not own its mutex")
	}
	s.owns = false
	s.lock.Unlock()
}

// OwnsLock reports whether s currently owns its mutex.
func (s *ScopedLock) OwnsLock() bool { return s.owns }

// Mutex returns the Mutex s is associated with, or nil.
func (s *ScopedLock) Mutex() *Mutex { return s.lock }

// Release disassociates s from its mutex without unlocking it, returning
// the mutex so the caller can manage it manually. s no longer owns
// anything afterward.
func (s *ScopedLock) Release() *Mutex {
	m := s.lock
	s.lock = nil
	s.owns = false
	return m
}

// Swap exchanges s's and other's mutex/ownership state.
func (s *ScopedLock) Swap(other *ScopedLock) {
	s.lock, other.lock = other.lock, s.lock
	s.owns, other.owns = other.owns, s.owns
}
