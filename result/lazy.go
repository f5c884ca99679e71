package result

import "sync"

// Lazy is a cold result: the producer is not started until the first
// Get/Await/AwaitVia call (Status does not start it), matching spec.md
// §4.2's lazy result
// ("initial_suspend always suspends"). Starting it runs the producer
// directly on the resuming goroutine — Go's closest analogue to
// "symmetric transfer to the producer coroutine", since no scheduler trip
// is involved — and the Result it returns (which may itself already be
// complete, or may complete later through its own Promise) becomes what
// every subsequent call on this Lazy delegates to.
//
// A Lazy that is never started and is simply dropped "destroys the
// suspended frame" for free, via ordinary GC; there is nothing to do.
type Lazy[T any] struct {
	state *lazyState[T]
}

type lazyState[T any] struct {
	mu      sync.Mutex
	started bool
	start   func() Result[T]
	inner   Result[T]
}

// NewLazy wraps fn as a cold, single-consumer computation that runs to
// completion synchronously once started.
func NewLazy[T any](fn func() (T, error)) Lazy[T] {
	return NewLazyAsync(func() Result[T] {
		p := NewPromise[T]()
		v, err := fn()
		if err != nil {
			p.SetException(err)
		} else {
			p.SetResult(v)
		}
		return p.Result()
	})
}

// NewLazyAsync wraps start as a cold computation whose body kicks off
// whatever asynchronous operation it represents (arming a timer, joining
// a lock's wait queue, ...) only once started, returning the Result that
// will eventually resolve it. This is the form spec.md §4.9/§4.10 call
// for: "returns a lazy result that, when awaited, schedules ..." rather
// than a value computed synchronously.
func NewLazyAsync[T any](start func() Result[T]) Lazy[T] {
	return Lazy[T]{state: &lazyState[T]{start: start}}
}

func (l Lazy[T]) ensureStarted() Result[T] {
	s := l.state
	s.mu.Lock()
	if s.started {
		inner := s.inner
		s.mu.Unlock()
		return inner
	}
	s.started = true
	start := s.start
	s.mu.Unlock()

	inner := start()

	s.mu.Lock()
	s.inner = inner
	s.mu.Unlock()
	return inner
}

// Status reports StatusIdle until the lazy result has been started.
func (l Lazy[T]) Status() Status {
	s := l.state
	s.mu.Lock()
	started := s.started
	inner := s.inner
	s.mu.Unlock()
	if !started {
		return StatusIdle
	}
	return inner.Status()
}

// Get starts the computation if needed, then blocks for its result.
func (l Lazy[T]) Get() (T, error) {
	return l.ensureStarted().Get()
}

// Await starts the computation if needed and registers fn to run on
// completion, inline.
func (l Lazy[T]) Await(fn func()) bool {
	return l.ensureStarted().Await(fn)
}

// AwaitVia starts the computation if needed and registers fn to run on
// completion, resumed via executor.
func (l Lazy[T]) AwaitVia(executor Executor, fn func(), forceReschedule bool) bool {
	return l.ensureStarted().AwaitVia(executor, fn, forceReschedule)
}
