// Package inline implements spec.md §4.4's inline executor: enqueue runs
// the task synchronously on the caller's own goroutine.
package inline

import (
	"sync/atomic"

	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/internal/task"
)

// Executor runs every enqueued task synchronously, on whatever goroutine
// calls Enqueue/EnqueueBatch. It never spawns a goroutine of its own.
type Executor struct {
	name     string
	shutdown atomic.Bool
}

// New returns a ready-to-use inline executor with the given name, used in
// log lines and shutdown errors.
func New(name string) *Executor {
	return &Executor{name: name}
}

func (e *Executor) Name() string { return e.name }

// Enqueue runs t immediately, on the calling goroutine.
func (e *Executor) Enqueue(t task.Task) error {
	if e.shutdown.Load() {
		return &rterrors.RuntimeShutdownError{Executor: e.name}
	}
	t.Run()
	return nil
}

// EnqueueBatch runs each task in tasks in order, synchronously.
func (e *Executor) EnqueueBatch(tasks []task.Task) error {
	if e.shutdown.Load() {
		return &rterrors.RuntimeShutdownError{Executor: e.name}
	}
	for i := range tasks {
		tasks[i].Run()
	}
	return nil
}

// MaxConcurrencyLevel is always 0: an inline executor never parallelizes.
func (e *Executor) MaxConcurrencyLevel() int { return 0 }

// Shutdown flips the shutdown flag; subsequent Enqueue calls fail.
func (e *Executor) Shutdown() { e.shutdown.Store(true) }

// ShutdownRequested reports whether Shutdown has been called.
func (e *Executor) ShutdownRequested() bool { return e.shutdown.Load() }
