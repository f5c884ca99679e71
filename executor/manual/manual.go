// Package manual implements spec.md §4.8's manually-driven executor: a
// single FIFO queue that nothing runs until the owner explicitly calls
// LoopOnce/LoopOnceTimeout/Loop, useful for tests and single-threaded drivers
// that want full control over when posted work actually executes.
package manual

import (
	"math"
	"sync"
	"time"

	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/internal/task"
)

// Executor is a FIFO queue of tasks that only runs when explicitly driven.
type Executor struct {
	name string

	mu    sync.Mutex
	cond  *sync.Cond
	queue []task.Task
	abort bool
}

// New returns an empty manual executor.
func New(name string) *Executor {
	e := &Executor{name: name}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *Executor) Name() string { return e.name }

// MaxConcurrencyLevel is unbounded: queued tasks all run on whichever
// goroutine drives the executor, one at a time.
func (e *Executor) MaxConcurrencyLevel() int { return math.MaxInt32 }

func (e *Executor) ShutdownRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abort
}

func (e *Executor) Enqueue(t task.Task) error {
	return e.EnqueueBatch([]task.Task{t})
}

func (e *Executor) EnqueueBatch(tasks []task.Task) error {
	e.mu.Lock()
	if e.abort {
		e.mu.Unlock()
		return &rterrors.RuntimeShutdownError{Executor: e.name}
	}
	e.queue = append(e.queue, tasks...)
	e.mu.Unlock()
	e.cond.Broadcast()
	return nil
}

// Size returns the number of tasks currently queued.
func (e *Executor) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// LoopOnce pops and runs a single queued task, reporting whether one was
// available.
func (e *Executor) LoopOnce() bool {
	t, ok := e.pop()
	if !ok {
		return false
	}
	t.Run()
	return true
}

// LoopOnceTimeout waits up to timeout for a task to become available,
// then behaves like LoopOnce.
func (e *Executor) LoopOnceTimeout(timeout time.Duration) bool {
	if !e.waitFor(timeout) {
		return false
	}
	return e.LoopOnce()
}

// Loop runs up to maxCount queued tasks, stopping early at the first
// empty observation, and returns how many actually ran.
func (e *Executor) Loop(maxCount int) int {
	ran := 0
	for ran < maxCount {
		if !e.LoopOnce() {
			break
		}
		ran++
	}
	return ran
}

// WaitForTask blocks until at least one task is queued.
func (e *Executor) WaitForTask() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) == 0 && !e.abort {
		e.cond.Wait()
	}
}

// Clear discards every queued task, cancelling each with reason.
func (e *Executor) Clear(reason error) {
	e.mu.Lock()
	pending := e.queue
	e.queue = nil
	e.mu.Unlock()
	for i := range pending {
		pending[i].Cancel(reason)
	}
}

func (e *Executor) pop() (task.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return task.Task{}, false
	}
	t := e.queue[0]
	e.queue = e.queue[1:]
	return t, true
}

// waitFor polls for queued work, bounded by timeout. A plain poll loop
// (rather than a timed condition-variable wait, which sync.Cond does not
// support natively) avoids leaking a helper goroutine parked in
// cond.Wait() forever when nothing ever arrives.
func (e *Executor) waitFor(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	const step = 2 * time.Millisecond
	for {
		if e.Size() > 0 {
			return true
		}
		if e.ShutdownRequested() || time.Now().After(deadline) {
			return e.Size() > 0
		}
		time.Sleep(step)
	}
}

// Shutdown stops accepting new work and discards whatever remains queued.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	if e.abort {
		e.mu.Unlock()
		return
	}
	e.abort = true
	pending := e.queue
	e.queue = nil
	e.mu.Unlock()
	e.cond.Broadcast()

	reason := &rterrors.RuntimeShutdownError{Executor: e.name}
	for i := range pending {
		pending[i].Cancel(reason)
	}
}
