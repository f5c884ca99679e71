package result

import (
	"sync"

	"github.com/concurrencpp-go/runtime/internal/task"
)

// Shared is a multi-consumer fanout over a Result's completion, modeling
// spec.md §4.2's shared result: after Share, any number of subscribers
// may be registered, and completion pushes each queued subscriber onto
// its nominated executor (or calls it inline if none is given). A
// subscriber registered after completion runs immediately.
type Shared[T any] struct {
	state *sharedState[T]
}

// Share converts r into a multi-consumer fanout. r and the returned
// Shared continue to refer to the same underlying state.
func (r Result[T]) Share() Shared[T] {
	return Shared[T]{state: r.state}
}

// Result returns a single-consumer handle back onto the shared state.
func (s Shared[T]) Result() Result[T] {
	return Result[T]{state: s.state}
}

// Empty reports whether s holds no shared state.
func (s Shared[T]) Empty() bool { return s.state == nil }

// Subscribe registers fn to observe the eventual Result once the producer
// completes. If executor is non-nil, fn is enqueued on it; otherwise fn
// runs on whichever goroutine completes the producer (or, for an
// already-complete shared result, on the calling goroutine).
func (s Shared[T]) Subscribe(executor Executor, fn func(Result[T])) {
	if s.state == nil || fn == nil {
		return
	}
	st := s.state
	target := &fanoutTarget[T]{fn: fn, executor: executor}
	st.mu.Lock()
	if st.pc == pcProducerDone {
		st.mu.Unlock()
		target.notify(st)
		return
	}
	st.waiters = append(st.waiters, target)
	st.mu.Unlock()
}

type fanoutTarget[T any] struct {
	fn       func(Result[T])
	executor Executor
}

func (w *fanoutTarget[T]) notify(s *sharedState[T]) {
	rv := Result[T]{state: s}
	if w.executor == nil {
		w.fn(rv)
		return
	}
	t := task.New(func() { w.fn(rv) })
	if err := w.executor.Enqueue(t); err != nil {
		w.fn(rv)
	}
}

// WhenAnyResult is the value produced by WhenAny: the index of the first
// result to complete (within the slice passed to WhenAny) and that
// result's handle.
type WhenAnyResult[T any] struct {
	Index  int
	Result Result[T]
}

// WhenAny returns a Result that completes as soon as the first of
// results completes, carrying its index and handle. The remaining
// results are left untouched and may still be awaited individually.
// Passing an empty results is a programmer error; WhenAny returns a
// Result that never completes in that case.
func WhenAny[T any](executor Executor, results ...Result[T]) Result[WhenAnyResult[T]] {
	p := NewPromise[WhenAnyResult[T]]()
	if len(results) == 0 {
		return p.Result()
	}
	var once sync.Once
	for i, r := range results {
		i, r := i, r
		r.AwaitVia(executor, func() {
			once.Do(func() {
				p.SetResult(WhenAnyResult[T]{Index: i, Result: r})
			})
		}, false)
	}
	return p.Result()
}

// WhenAll returns a Result that completes once every entry in results has
// completed, carrying the same slice back to the caller so each value or
// error can be retrieved individually via Get.
func WhenAll[T any](executor Executor, results ...Result[T]) Result[[]Result[T]] {
	p := NewPromise[[]Result[T]]()
	if len(results) == 0 {
		p.SetResult(nil)
		return p.Result()
	}
	var (
		mu        sync.Mutex
		remaining = len(results)
	)
	for _, r := range results {
		r := r
		r.AwaitVia(executor, func() {
			mu.Lock()
			remaining--
			done := remaining == 0
			mu.Unlock()
			if done {
				p.SetResult(results)
			}
		}, false)
	}
	return p.Result()
}
