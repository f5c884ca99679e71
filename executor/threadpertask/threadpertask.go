// Package threadpertask implements spec.md §4.5's thread-per-task
// executor: every Enqueue spawns a dedicated goroutine, runs the task,
// and retires.
//
// Grounded on original_source/source/executors/thread_executor.cpp: a
// retiring worker splices itself onto a one-slot "last retired" holder
// and joins whatever was there before it, so Shutdown never has to join
// more than one goroutine directly — the retirement chain does the rest.
package threadpertask

import (
	"math"
	"sync"

	"github.com/concurrencpp-go/runtime/internal/logctx"
	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/internal/task"
	"github.com/concurrencpp-go/runtime/internal/threadname"
)

// Executor spawns one goroutine per enqueued task.
type Executor struct {
	name string

	onStart     func(threadName string)
	onTerminate func(threadName string)

	mu          sync.Mutex
	cond        *sync.Cond
	abort       bool
	workers     int
	lastRetired chan struct{}
	hasLastRetd bool
}

// New returns a ready-to-use thread-per-task executor.
func New(name string) *Executor {
	return NewWithHooks(name, nil, nil)
}

// NewWithHooks is like New but additionally invokes onStart/onTerminate
// (when non-nil) with each spawned goroutine's thread name, right after
// it starts and right before it retires — §6's
// thread_started_callback/thread_terminated_callback.
func NewWithHooks(name string, onStart, onTerminate func(threadName string)) *Executor {
	e := &Executor{name: name, onStart: onStart, onTerminate: onTerminate}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *Executor) Name() string { return e.name }

// MaxConcurrencyLevel is unbounded: there is no cap on simultaneous
// worker goroutines.
func (e *Executor) MaxConcurrencyLevel() int { return math.MaxInt32 }

func (e *Executor) ShutdownRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abort
}

// Enqueue spawns a goroutine that runs t then retires.
func (e *Executor) Enqueue(t task.Task) error {
	e.mu.Lock()
	if e.abort {
		e.mu.Unlock()
		return &rterrors.RuntimeShutdownError{Executor: e.name}
	}
	e.workers++
	e.mu.Unlock()

	e.spawn(t)
	return nil
}

// EnqueueBatch spawns one goroutine per task in tasks.
func (e *Executor) EnqueueBatch(tasks []task.Task) error {
	e.mu.Lock()
	if e.abort {
		e.mu.Unlock()
		return &rterrors.RuntimeShutdownError{Executor: e.name}
	}
	e.workers += len(tasks)
	e.mu.Unlock()

	for i := range tasks {
		e.spawn(tasks[i])
	}
	return nil
}

func (e *Executor) spawn(t task.Task) {
	go func() {
		name := threadname.WorkerName(e.name)
		threadname.Set(name)
		if e.onStart != nil {
			e.onStart(name)
		}
		defer func() {
			if e.onTerminate != nil {
				e.onTerminate(name)
			}
			e.retire()
		}()
		t.Run()
	}()
}

// retire splices the calling goroutine's completion onto the one-slot
// "last retired" holder, waking Shutdown, and blocks on whatever was
// already there before it — so the retirement chain, not Shutdown,
// drains all but the very last worker.
func (e *Executor) retire() {
	e.mu.Lock()
	previous := e.lastRetired
	hadPrevious := e.hasLastRetd
	e.lastRetired = make(chan struct{})
	e.hasLastRetd = true
	mine := e.lastRetired
	e.workers--
	done := e.workers == 0
	e.mu.Unlock()

	if done {
		e.cond.Broadcast()
	}
	close(mine)

	if hadPrevious {
		<-previous
	}
}

// Shutdown waits for every in-flight worker to retire, then returns.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	if e.abort {
		e.mu.Unlock()
		return
	}
	e.abort = true
	for e.workers > 0 {
		e.cond.Wait()
	}
	last := e.lastRetired
	e.mu.Unlock()

	if last != nil {
		<-last
	}
	logctx.Named(e.name).Info().Log("thread-per-task executor shut down")
}
