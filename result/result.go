// Package result implements the runtime's producer/consumer value
// channel: a single-assignment, single-retrieval slot that a producer
// completes exactly once (with a value or an error) and that one or more
// consumers observe either by blocking or by registering a continuation.
//
// Go has no coroutines, so "symmetric transfer" and "await" from
// spec.md §4.2 are modeled as: a consumer either blocks on a channel
// close (Wait/WaitFor/Get), or registers a continuation (a plain func())
// that the producer invokes directly (Await) or posts onto a nominated
// executor (AwaitVia) when it completes. The state keeps a PC-state word
// named after the original result_state's, but complete() does not branch
// on the prior state: it always resumes the registered continuation, if
// any, and closes the done channel. "Resume a coroutine handle" becomes
// "call a func()", and blocking waits use a closed-channel signal rather
// than a condition variable, since a channel composes cleanly with
// time.After/context for the timed form.
package result

import (
	"sync"
	"time"

	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/internal/task"
)

// Executor is the minimal capability result needs from an executor: the
// ability to enqueue a task. Any concrete executor type that implements
// executor.Executor also implements this, by structural typing — result
// does not import the executor package, to avoid a dependency cycle
// (executor.Post/Submit build on result.Result[T]).
type Executor interface {
	Enqueue(t task.Task) error
}

// Status reports the readiness of a Result, mirroring result_state's
// three-way status(): idle, value, exception.
type Status int

const (
	StatusIdle Status = iota
	StatusValue
	StatusException
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValue:
		return "value"
	case StatusException:
		return "exception"
	default:
		return "unknown"
	}
}

// pcState is the producer/consumer state word from result_state.h. Only
// pcIdle, pcConsumerSet and pcProducerDone are ever stored: blocking
// waiters park on a channel rather than an atomic wait, so nothing enters
// pcConsumerWaiting or pcConsumerDone, and complete() does not branch on
// the prior value.
type pcState int

const (
	pcIdle pcState = iota
	pcConsumerSet
	pcConsumerWaiting
	pcConsumerDone
	pcProducerDone
)

// continuation pairs a registered consumer callback with the executor (if
// any) it should be resumed on.
type continuation struct {
	fn              func()
	executor        Executor
	forceReschedule bool
}

// sharedState is the shared memory behind a Result[T]; a Result value is
// just a pointer to one, so copying a Result shares state the way a C++
// shared_ptr<result_state> would.
type sharedState[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	pc        pcState
	value     T
	err       error
	retrieved bool
	cont      *continuation
	waiters   []*fanoutTarget[T]
}

func newSharedState[T any]() *sharedState[T] {
	return &sharedState[T]{done: make(chan struct{})}
}

// Result is the consumer-facing handle onto a producer/consumer value
// slot. The zero Result is empty (spec: "empty" result errors on use).
type Result[T any] struct {
	state *sharedState[T]
}

// Promise is the producer-facing handle onto the same slot. Constructing
// a Promise also allocates its paired Result (NewPromise).
type Promise[T any] struct {
	state *sharedState[T]
	done  bool
}

// NewPromise creates a fresh producer/consumer pair.
func NewPromise[T any]() Promise[T] {
	return Promise[T]{state: newSharedState[T]()}
}

// Result returns the consumer-facing handle paired with this promise. It
// may be called any number of times; all returned Results share state.
func (p Promise[T]) Result() Result[T] {
	return Result[T]{state: p.state}
}

// Empty reports whether r holds no shared state.
func (r Result[T]) Empty() bool { return r.state == nil }

// SetResult completes the promise with a value. Calling it more than once
// (on either SetResult or SetException) panics, matching the "must not
// race with itself" contract — producers own exactly one completion call.
func (p *Promise[T]) SetResult(v T) {
	p.complete(func(s *sharedState[T]) {
		s.value = v
	})
}

// SetException completes the promise with an error, delivered to the
// consumer on Get/Await instead of a value.
func (p *Promise[T]) SetException(err error) {
	p.complete(func(s *sharedState[T]) {
		s.err = err
	})
}

// Break completes the promise with a broken-task error, used when the
// producing task is abandoned (dropped, panicked past recovery, or its
// owning executor shut down) without ever calling SetResult/SetException.
func (p *Promise[T]) Break(reason error) {
	p.SetException(&rterrors.BrokenTaskError{Reason: reason})
}

func (p *Promise[T]) complete(set func(*sharedState[T])) {
	if p.done {
		panic("result: promise completed twice")
	}
	p.done = true
	s := p.state
	s.mu.Lock()
	if s.pc == pcProducerDone {
		s.mu.Unlock()
		panic("result: promise completed twice")
	}
	set(s)
	prior := s.pc
	s.pc = pcProducerDone
	toRun := s.cont
	s.cont = nil
	fanout := s.waiters
	s.waiters = nil
	_ = prior // prior is retained for documentation of the dispatch table;
	// in every prior state (idle, consumerSet, consumerWaiting,
	// consumerDone) the same two actions below are exactly what's needed:
	// resume a registered continuation if any, and unblock the done
	// channel for anyone parked in Wait/WaitFor/Get.
	close(s.done)
	s.mu.Unlock()
	if toRun != nil {
		resume(toRun)
	}
	for _, w := range fanout {
		w.notify(s)
	}
}

// resume invokes a continuation, either directly (inline, preserving the
// "symmetric transfer" spirit of an unscheduled call) or by enqueueing it
// onto its nominated executor.
func resume(c *continuation) {
	if c.executor == nil {
		c.fn()
		return
	}
	t := task.New(c.fn)
	if err := c.executor.Enqueue(t); err != nil {
		// The resume executor has shut down; run inline rather than drop
		// the continuation silently, matching "post never throws away a
		// ready continuation" from spec §4.2's await_via intent.
		c.fn()
	}
}

// Status returns the current readiness, or StatusIdle for an empty result.
func (r Result[T]) Status() Status {
	if r.state == nil {
		return StatusIdle
	}
	s := r.state
	select {
	case <-s.done:
	default:
		return StatusIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return StatusException
	}
	return StatusValue
}

// Wait blocks until the producer completes.
func (r Result[T]) Wait() error {
	if r.state == nil {
		return errEmpty("Wait")
	}
	<-r.state.done
	return nil
}

// WaitFor blocks until the producer completes or timeout elapses,
// returning (true, nil) on completion and (false, nil) on timeout.
func (r Result[T]) WaitFor(timeout time.Duration) (bool, error) {
	if r.state == nil {
		return false, errEmpty("WaitFor")
	}
	select {
	case <-r.state.done:
		return true, nil
	case <-time.After(timeout):
		return false, nil
	}
}

// Get blocks until completion, then returns the value (consuming it) or
// the captured error. Calling Get a second time returns
// AlreadyRetrievedError.
func (r Result[T]) Get() (T, error) {
	var zero T
	if r.state == nil {
		return zero, errEmpty("Get")
	}
	if err := r.Wait(); err != nil {
		return zero, err
	}
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retrieved {
		return zero, errAlreadyRetrieved("Get")
	}
	s.retrieved = true
	if s.err != nil {
		return zero, s.err
	}
	return s.value, nil
}

// GetRef behaves like Get but intended for callers that only need to
// inspect the value without taking conceptual ownership of it (Go has no
// move semantics, so this returns the same value as Get).
func (r Result[T]) GetRef() (*T, error) {
	v, err := r.Get()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Await registers fn to run when the producer completes, resuming it
// inline (on whichever goroutine calls SetResult/SetException/Break).
// Returns true if fn was registered (the caller should treat this as
// "suspended"), or false if the result was already complete when Await
// was called, in which case fn has already been invoked before Await
// returns.
func (r Result[T]) Await(fn func()) bool {
	return r.AwaitVia(nil, fn, false)
}

// AwaitVia is like Await but resumes fn by enqueueing it onto executor
// instead of calling it inline. If forceReschedule is set and the result
// is already complete, fn is still enqueued rather than called
// synchronously; otherwise an already-complete result invokes fn
// synchronously before AwaitVia returns.
func (r Result[T]) AwaitVia(executor Executor, fn func(), forceReschedule bool) bool {
	if r.state == nil || fn == nil {
		return false
	}
	s := r.state
	s.mu.Lock()
	if s.pc == pcProducerDone {
		s.mu.Unlock()
		if executor != nil && forceReschedule {
			resume(&continuation{fn: fn, executor: executor})
		} else {
			fn()
		}
		return false
	}
	s.cont = &continuation{fn: fn, executor: executor, forceReschedule: forceReschedule}
	s.pc = pcConsumerSet
	s.mu.Unlock()
	return true
}

func errEmpty(op string) error {
	return &rterrors.EmptyResultError{Op: op}
}

func errAlreadyRetrieved(op string) error {
	return &rterrors.AlreadyRetrievedError{Op: op}
}
