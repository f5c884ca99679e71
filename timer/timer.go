// Package timer implements spec.md §4.9's timer queue: a single worker
// goroutine servicing a deadline-ordered set of periodic and one-shot
// timers, firing each by posting its callable onto the timer's own
// executor, and a delay-object helper that returns a lazy result which,
// once awaited, arms a one-shot timer and resolves when it fires.
//
// Grounded on original_source/source/timers/timer_queue.cpp: the public
// surface appends {timer, add|remove} requests under a lock and wakes the
// worker; the worker drains the request queue once per iteration, then
// fires every expired timer, reinserting periodic ones at now+frequency.
// Go has no condition-variable timed wait, so the worker's bounded idle
// wait and deadline wait are both modeled with a buffered "something
// changed" channel raced against a time.Timer, instead of
// sync.Cond.wait_for/wait_until.
package timer

import (
	"sync/atomic"
	"time"

	"github.com/concurrencpp-go/runtime/internal/logctx"
	"github.com/concurrencpp-go/runtime/internal/task"
)

// Executor is the minimal capability the timer queue needs to fire a
// timer's callable. Any concrete executor.Executor satisfies this by
// structural typing; timer does not import the executor package.
type Executor interface {
	Enqueue(t task.Task) error
}

// timerState is the shared state behind a Timer handle and the queue's
// internal deadline-ordered set, mirroring concurrencpp's timer_state:
// due time, an atomically-mutable frequency, the next deadline, the
// owning executor, a weak reference to the queue (an ordinary pointer
// here — Go's GC makes the original's weak_ptr cycle-avoidance moot),
// the one-shot flag, an atomic cancelled flag, and the callable.
type timerState struct {
	dueTime   time.Duration
	frequency atomic.Int64 // nanoseconds; read fresh on every reinsertion
	deadline  time.Time
	executor  Executor
	queue     *Queue
	oneshot   bool
	cancelled atomic.Bool
	callable  func()

	// brokenFn, when set (only by MakeDelayObject), is invoked instead of
	// callable if the timer is dropped by a queue shutdown before firing.
	brokenFn func()

	// heapIndex is maintained by timerHeap's Swap/Push/Pop so removal by
	// index (heap.Remove) is O(log N) without a separate iterator map —
	// the Go equivalent of the original's multiset-iterator + pointer map.
	heapIndex int
}

func newTimerState(q *Queue, dueTime, frequency time.Duration, executor Executor, oneshot bool, callable func()) *timerState {
	st := &timerState{
		dueTime:   dueTime,
		executor:  executor,
		queue:     q,
		oneshot:   oneshot,
		callable:  callable,
		deadline:  time.Now().Add(dueTime),
		heapIndex: -1,
	}
	st.frequency.Store(int64(frequency))
	return st
}

// fire posts the timer's callable onto its executor as a one-shot task.
// If the executor has shut down, the failure is swallowed: the timer
// itself (if periodic and not cancelled) remains valid for future fires.
func (st *timerState) fire() {
	if err := st.executor.Enqueue(task.New(st.callable)); err != nil {
		logctx.Named(st.queue.name).Debug().Err(err).Log("timer fire: executor rejected enqueue")
	}
}

// notifyBroken runs brokenFn (if any) when the timer is discarded by a
// queue shutdown instead of firing normally.
func (st *timerState) notifyBroken() {
	st.cancelled.Store(true)
	if st.brokenFn != nil {
		st.brokenFn()
	}
}

// Timer is a handle to a scheduled timer, jointly owned by the caller and
// the queue until cancelled or (for one-shot timers) fired.
type Timer struct {
	state *timerState
}

// Valid reports whether t refers to a real timer (as opposed to the zero
// Timer returned alongside a construction error).
func (t Timer) Valid() bool { return t.state != nil }

// Cancel marks the timer cancelled and asks the queue to remove it. Once
// cancelled, a pending fire is skipped and, for a periodic timer, it is
// dropped instead of being reinserted. Cancelling an already-cancelled or
// already-fired one-shot timer is a harmless no-op.
func (t Timer) Cancel() {
	if t.state == nil {
		return
	}
	if t.state.cancelled.CompareAndSwap(false, true) {
		t.state.queue.removeTimer(t.state)
	}
}

// Cancelled reports whether the timer has been cancelled (or fired, for a
// one-shot timer — the cancelled flag is also used as the dropped marker
// in that case) or is the invalid zero Timer.
func (t Timer) Cancelled() bool {
	if t.state == nil {
		return true
	}
	return t.state.cancelled.Load()
}

// SetFrequency stores a new period, observed on the timer's *next*
// reinsertion; no in-place reordering of the already-scheduled deadline
// happens as a result of calling this.
func (t Timer) SetFrequency(frequency time.Duration) {
	if t.state == nil {
		return
	}
	t.state.frequency.Store(int64(frequency))
}

// Frequency returns the timer's current period.
func (t Timer) Frequency() time.Duration {
	if t.state == nil {
		return 0
	}
	return time.Duration(t.state.frequency.Load())
}

// OneShot reports whether the timer fires at most once.
func (t Timer) OneShot() bool {
	if t.state == nil {
		return true
	}
	return t.state.oneshot
}
