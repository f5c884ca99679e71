// Package worker implements spec.md §4.6's single dedicated worker-thread
// executor: one goroutine owns a private task list, foreign producers
// push into a public list under a mutex, and the worker drains the
// public list into the private one before running anything from it.
package worker

import (
	"math"
	"sync"

	"github.com/concurrencpp-go/runtime/internal/logctx"
	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/internal/task"
	"github.com/concurrencpp-go/runtime/internal/threadname"
)

// Executor runs every enqueued task on a single dedicated goroutine.
type Executor struct {
	name string

	onStart     func(threadName string)
	onTerminate func(threadName string)

	mu           sync.Mutex
	cond         *sync.Cond
	public       []task.Task
	abortPublic  bool // consulted from outside: Enqueue rejects new work
	abortPrivate bool // consulted from the worker goroutine: drop queued work and exit

	started bool
	done    chan struct{}
}

// New returns a worker executor; its goroutine is spawned lazily on the
// first Enqueue/EnqueueBatch call.
func New(name string) *Executor {
	return NewWithHooks(name, nil, nil)
}

// NewWithHooks is like New but additionally invokes onStart/onTerminate
// (when non-nil) with the worker's thread name at start and exit.
func NewWithHooks(name string, onStart, onTerminate func(threadName string)) *Executor {
	e := &Executor{name: name, done: make(chan struct{}), onStart: onStart, onTerminate: onTerminate}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *Executor) Name() string { return e.name }

// MaxConcurrencyLevel is always 1: exactly one worker goroutine.
func (e *Executor) MaxConcurrencyLevel() int { return 1 }

func (e *Executor) ShutdownRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abortPublic
}

func (e *Executor) Enqueue(t task.Task) error {
	return e.EnqueueBatch([]task.Task{t})
}

func (e *Executor) EnqueueBatch(tasks []task.Task) error {
	e.mu.Lock()
	if e.abortPublic {
		e.mu.Unlock()
		return &rterrors.RuntimeShutdownError{Executor: e.name}
	}
	e.public = append(e.public, tasks...)
	if !e.started {
		e.started = true
		go e.loop()
	}
	e.mu.Unlock()
	e.cond.Signal()
	return nil
}

func (e *Executor) loop() {
	name := threadname.WorkerName(e.name)
	threadname.Set(name)
	if e.onStart != nil {
		e.onStart(name)
	}
	defer func() {
		if e.onTerminate != nil {
			e.onTerminate(name)
		}
		close(e.done)
	}()

	var private []task.Task
	for {
		e.mu.Lock()
		for len(e.public) == 0 && !e.abortPrivate {
			e.cond.Wait()
		}
		if e.abortPrivate {
			e.public = nil
			e.mu.Unlock()
			return
		}
		private = append(private, e.public...)
		e.public = e.public[:0]
		e.mu.Unlock()

		for i := range private {
			private[i].Run()
		}
		private = private[:0]
	}
}

// Shutdown sets both abort flags, wakes the worker, and waits for it to
// exit. Any tasks still queued at that point are discarded (their
// associated results, if any, were never resolved).
func (e *Executor) Shutdown() {
	e.mu.Lock()
	if e.abortPublic {
		e.mu.Unlock()
		return
	}
	e.abortPublic = true
	e.abortPrivate = true
	started := e.started
	e.mu.Unlock()
	e.cond.Broadcast()
	if started {
		<-e.done
	}
	logctx.Named(e.name).Info().Log("worker thread executor shut down")
}
