package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/concurrencpp-go/runtime/internal/logctx"
	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/internal/threadname"
)

// Queue is a single-worker, deadline-ordered timer service. It is idle
// (no worker goroutine running) until the first timer is added; a worker
// that sits idle with no scheduled timers for maxWorkerIdleTime exits,
// and the next add spawns a fresh one, exactly mirroring
// timer_queue::ensure_worker_thread's spawn-and-join-the-old-one dance.
type Queue struct {
	name           string
	maxWaitingTime time.Duration
	onStart        func(threadName string)
	onTerminate    func(threadName string)

	mu         sync.Mutex
	requests   []request
	abort      bool
	idle       bool
	workerDone chan struct{} // non-nil while idle == false; closed when that worker exits

	atomicAbort atomic.Bool
	notify      chan struct{} // buffered(1): "requests changed or abort requested"
}

// New constructs an idle timer queue. maxWorkerIdleTime bounds how long
// the worker waits with an empty schedule before retiring.
func New(name string, maxWorkerIdleTime time.Duration) *Queue {
	return NewWithHooks(name, maxWorkerIdleTime, nil, nil)
}

// NewWithHooks is like New but additionally invokes onStart/onTerminate
// (when non-nil) with the worker's thread name each time it is spawned
// and each time it retires.
func NewWithHooks(name string, maxWorkerIdleTime time.Duration, onStart, onTerminate func(threadName string)) *Queue {
	return &Queue{
		name:           name,
		maxWaitingTime: maxWorkerIdleTime,
		onStart:        onStart,
		onTerminate:    onTerminate,
		idle:           true,
		notify:         make(chan struct{}, 1),
	}
}

func (q *Queue) Name() string { return q.name }

// MaxWorkerIdleTime returns the configured idle-exit bound.
func (q *Queue) MaxWorkerIdleTime() time.Duration { return q.maxWaitingTime }

// ShutdownRequested reports whether Shutdown has been called.
func (q *Queue) ShutdownRequested() bool { return q.atomicAbort.Load() }

// MakeTimer schedules a periodic timer: callable fires every frequency,
// starting after dueTime, until cancelled.
func (q *Queue) MakeTimer(dueTime, frequency time.Duration, executor Executor, callable func()) (Timer, error) {
	if executor == nil {
		return Timer{}, &rterrors.NullArgumentError{Arg: "executor"}
	}
	if callable == nil {
		return Timer{}, &rterrors.NullArgumentError{Arg: "callable"}
	}
	st := newTimerState(q, dueTime, frequency, executor, false, callable)
	if err := q.addTimer(st); err != nil {
		return Timer{}, err
	}
	return Timer{state: st}, nil
}

// MakeOneshotTimer schedules a timer that fires exactly once after
// dueTime, unless cancelled first.
func (q *Queue) MakeOneshotTimer(dueTime time.Duration, executor Executor, callable func()) (Timer, error) {
	if executor == nil {
		return Timer{}, &rterrors.NullArgumentError{Arg: "executor"}
	}
	if callable == nil {
		return Timer{}, &rterrors.NullArgumentError{Arg: "callable"}
	}
	st := newTimerState(q, dueTime, 0, executor, true, callable)
	if err := q.addTimer(st); err != nil {
		return Timer{}, err
	}
	return Timer{state: st}, nil
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// ensureWorker must be called with q.mu held. If the queue currently has
// no running worker, it spawns one and returns the previous worker's done
// channel (which the caller should join on after unlocking, so that the
// caller does not return while the old worker is still exiting; the new
// worker is already running by then); otherwise it returns nil.
func (q *Queue) ensureWorker() chan struct{} {
	if !q.idle {
		return nil
	}
	old := q.workerDone
	done := make(chan struct{})
	q.workerDone = done
	q.idle = false
	go q.workLoop(done)
	return old
}

func (q *Queue) addTimer(st *timerState) error {
	q.mu.Lock()
	if q.abort {
		q.mu.Unlock()
		return &rterrors.RuntimeShutdownError{Executor: q.name}
	}
	oldDone := q.ensureWorker()
	q.requests = append(q.requests, request{timer: st, kind: requestAdd})
	q.mu.Unlock()

	q.signal()
	if oldDone != nil {
		<-oldDone
	}
	return nil
}

func (q *Queue) removeTimer(st *timerState) {
	q.mu.Lock()
	if q.abort {
		q.mu.Unlock()
		return
	}
	q.requests = append(q.requests, request{timer: st, kind: requestRemove})
	q.mu.Unlock()
	q.signal()
}

// Shutdown stops the worker and discards every scheduled or pending
// timer. After Shutdown, MakeTimer/MakeOneshotTimer fail with
// RuntimeShutdownError immediately, and a MakeDelayObject result started
// (awaited) after Shutdown resolves with the same error. Idempotent.
func (q *Queue) Shutdown() {
	if !q.atomicAbort.CompareAndSwap(false, true) {
		return
	}

	q.mu.Lock()
	q.abort = true
	var done chan struct{}
	if !q.idle {
		done = q.workerDone
	}
	pending := q.requests
	q.requests = nil
	q.mu.Unlock()

	q.signal()
	if done != nil {
		<-done
	}
	for _, r := range pending {
		if r.kind == requestAdd {
			r.timer.notifyBroken()
		}
	}

	logctx.Named(q.name).Info().Log("timer queue shut down")
}

// workLoop is the single servicing thread: wait for either a request (add
// or remove) or the next deadline/idle-timeout to elapse, apply pending
// requests, fire whatever has expired, and loop. sync.Cond offers no
// timed wait in Go, so the wait is instead a select between the buffered
// notify channel and a time.Timer, which composes cleanly with both the
// bounded idle wait and the bounded deadline wait.
func (q *Queue) workLoop(done chan struct{}) {
	name := threadname.WorkerName(q.name)
	threadname.Set(name)
	if q.onStart != nil {
		q.onStart(name)
	}
	defer func() {
		if q.onTerminate != nil {
			q.onTerminate(name)
		}
		close(done)
	}()
	log := logctx.Named(q.name)

	var set timerSet
	nextDeadline := time.Now()

	for {
		var waitTimer *time.Timer
		if set.empty() {
			waitTimer = time.NewTimer(q.maxWaitingTime)
		} else {
			d := time.Until(nextDeadline)
			if d < 0 {
				d = 0
			}
			waitTimer = time.NewTimer(d)
		}

		select {
		case <-q.notify:
			waitTimer.Stop()
		case <-waitTimer.C:
			if set.empty() {
				q.mu.Lock()
				idleExit := len(q.requests) == 0 && !q.abort
				if idleExit {
					q.idle = true
				}
				q.mu.Unlock()
				if idleExit {
					log.Debug().Log("timer queue worker idle, retiring")
					return
				}
			}
			// Deadline elapsed with timers scheduled (or a request raced
			// in just as the timer fired): fall through and process.
		}

		q.mu.Lock()
		if q.abort {
			pending := q.requests
			q.requests = nil
			q.mu.Unlock()
			abortOutstanding(&set, pending)
			return
		}
		reqs := q.requests
		q.requests = nil
		q.mu.Unlock()

		nextDeadline = set.processTimers(reqs, time.Now())
	}
}

// abortOutstanding discards every timer the worker still held (scheduled
// in the heap, or queued for addition but never applied) when the queue
// shuts down, notifying each that supplied a brokenFn (MakeDelayObject
// awaiters) that they were cancelled rather than fired.
func abortOutstanding(set *timerSet, pending []request) {
	for _, r := range pending {
		if r.kind == requestAdd {
			r.timer.notifyBroken()
		}
	}
	for _, st := range set.h {
		st.notifyBroken()
	}
	set.h = nil
}
