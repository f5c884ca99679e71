// Package executor defines the polymorphic Executor contract every
// executor variant (inline, thread-per-task, worker, thread-pool, manual)
// implements, plus the capability adapters (Post, Submit, BulkPost,
// BulkSubmit) layered above it. These adapters are the only place that
// bridges task.Task and result.Result[T]; the Executor interface itself
// only knows about tasks.
package executor

import (
	"github.com/concurrencpp-go/runtime/internal/logctx"
	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/internal/task"
	"github.com/concurrencpp-go/runtime/result"
)

// Executor is the shared contract spec.md §4.3 describes: enqueue(task),
// enqueue(span<task>), max_concurrency_level(), shutdown(),
// shutdown_requested(), plus a Name used in logging and in
// RuntimeShutdownError messages.
type Executor interface {
	Name() string
	Enqueue(t task.Task) error
	EnqueueBatch(tasks []task.Task) error
	MaxConcurrencyLevel() int
	Shutdown()
	ShutdownRequested() bool
}

// Post enqueues fn to run on e, forgetting its result; a panic inside fn
// is recovered, logged as an ExecutorExceptionError, and otherwise
// swallowed, matching spec §4.3's "post forgets the result; exceptions
// raised by the callable are swallowed".
func Post(e Executor, fn func()) error {
	if fn == nil {
		return &rterrors.NullArgumentError{Arg: "fn"}
	}
	return e.Enqueue(task.New(func() {
		runRecovered(e.Name(), fn)
	}))
}

// Submit enqueues fn to run on e and returns a Result[T] that completes
// with fn's return value, or with the recovered panic as an error,
// exactly the "bridging coroutine" spec §4.3 describes for submit.
func Submit[T any](e Executor, fn func() T) (result.Result[T], error) {
	if fn == nil {
		return result.Result[T]{}, &rterrors.NullArgumentError{Arg: "fn"}
	}
	p := result.NewPromise[T]()
	t := task.NewCancelable(func() {
		runSubmitted(e.Name(), fn, &p)
	}, func(reason error) { p.Break(reason) })
	if err := e.Enqueue(t); err != nil {
		return result.Result[T]{}, err
	}
	return p.Result(), nil
}

// BulkPost behaves like Post for each of fns, but constructs all N tasks
// first and passes them as one batch to EnqueueBatch, matching spec
// §4.3's "bulk_post ... for batched wakeups".
func BulkPost(e Executor, fns []func()) error {
	tasks := make([]task.Task, 0, len(fns))
	for _, fn := range fns {
		if fn == nil {
			return &rterrors.NullArgumentError{Arg: "fn"}
		}
		fn := fn
		tasks = append(tasks, task.New(func() {
			runRecovered(e.Name(), fn)
		}))
	}
	return e.EnqueueBatch(tasks)
}

// BulkSubmit behaves like Submit for each of fns, batching the underlying
// enqueue via EnqueueBatch.
func BulkSubmit[T any](e Executor, fns []func() T) ([]result.Result[T], error) {
	tasks := make([]task.Task, 0, len(fns))
	results := make([]result.Result[T], 0, len(fns))
	for _, fn := range fns {
		if fn == nil {
			return nil, &rterrors.NullArgumentError{Arg: "fn"}
		}
		fn := fn
		p := result.NewPromise[T]()
		tasks = append(tasks, task.NewCancelable(func() {
			runSubmitted(e.Name(), fn, &p)
		}, func(reason error) { p.Break(reason) }))
		results = append(results, p.Result())
	}
	if err := e.EnqueueBatch(tasks); err != nil {
		return nil, err
	}
	return results, nil
}

func runRecovered(executorName string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(executorName, r)
		}
	}()
	fn()
}

func runSubmitted[T any](executorName string, fn func() T, p *result.Promise[T]) {
	defer func() {
		if r := recover(); r != nil {
			p.SetException(panicToError(r))
		}
	}()
	p.SetResult(fn())
}

func logPanic(executorName string, r any) {
	err := &rterrors.ExecutorExceptionError{Executor: executorName, Cause: panicToError(r)}
	logctx.Named(executorName).Err().Err(err).Log("recovered panic in posted task")
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValueError{value: r}
}

type panicValueError struct{ value any }

func (e *panicValueError) Error() string {
	return "panic: " + formatAny(e.value)
}

func formatAny(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "non-error panic value"
}
