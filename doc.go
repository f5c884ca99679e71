// Package concurrencpp provides task, result, executor, timer, and
// async-synchronization primitives for structuring concurrent Go programs
// around a small set of composable executors rather than raw goroutines.
//
// A Runtime owns a fixed set of built-in executors (an inline executor, two
// work-stealing thread pools, a thread-per-task executor) and a timer
// queue; callers submit work and get back a result.Result[T] that resolves
// once, whether the producer succeeds, fails, or the task is cancelled.
// Additional dedicated or manually-driven executors can be created through
// the runtime's factories and are torn down along with the built-ins on
// Shutdown.
//
//	rt, err := concurrencpp.New()
//	if err != nil {
//		...
//	}
//	defer rt.Shutdown()
//
//	r, err := executor.Submit(rt.ThreadPoolExecutor(), func() int {
//		return 42
//	})
//	if err != nil {
//		...
//	}
//	v, err := r.Get()
package concurrencpp
