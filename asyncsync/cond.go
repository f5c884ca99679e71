package asyncsync

import (
	"sync"

	"github.com/concurrencpp-go/runtime/result"
)

// Cond is an async condition variable: NotifyOne/NotifyAll wake waiters
// suspended in Await rather than signal blocked OS threads. The zero Cond
// is ready to use.
//
// Grounded on
// original_source/include/concurrencpp/threads/async_condition_variable.h
// and its .cpp: notify pops/drains the wait list under the cv's own
// mutex and resumes outside it, so a notifier never needs the associated
// scoped lock held.
type Cond struct {
	mu       sync.Mutex
	awaiters []func()
}

// Await requires lock.OwnsLock(). It atomically releases lock and
// suspends the caller by queueing onto the cv's wait list; once woken by
// a Notify*, it reacquires lock (resumed on resumeExecutor) before the
// returned Result completes.
func (c *Cond) Await(resumeExecutor Executor, lock *ScopedLock) result.Result[struct{}] {
	if !lock.OwnsLock() {
		panic("asyncsync: Cond.Await called with a lock that is not held")
	}

	promise := result.NewPromise[struct{}]()
	woken := func() {
		lock.Lock(resumeExecutor).Await(func() {
			promise.SetResult(struct{}{})
		})
	}

	c.mu.Lock()
	c.awaiters = append(c.awaiters, woken)
	c.mu.Unlock()

	lock.Unlock()

	return promise.Result()
}

// AwaitUntil is the predicate-checking form: it re-checks pred (with lock
// held) after every wakeup, looping until pred returns true, making it
// safe against spurious wakeups. lock must be held on entry and is held
// again once the returned Result completes.
func (c *Cond) AwaitUntil(resumeExecutor Executor, lock *ScopedLock, pred func() bool) result.Result[struct{}] {
	promise := result.NewPromise[struct{}]()
	var step func()
	step = func() {
		if pred() {
			promise.SetResult(struct{}{})
			return
		}
		c.Await(resumeExecutor, lock).Await(step)
	}
	step()
	return promise.Result()
}

// NotifyOne wakes a single waiter, the one that has been queued longest.
func (c *Cond) NotifyOne() {
	c.mu.Lock()
	if len(c.awaiters) == 0 {
		c.mu.Unlock()
		return
	}
	next := c.awaiters[0]
	c.awaiters = c.awaiters[1:]
	c.mu.Unlock()
	next()
}

// NotifyAll wakes every currently-queued waiter, in FIFO order.
func (c *Cond) NotifyAll() {
	c.mu.Lock()
	all := c.awaiters
	c.awaiters = nil
	c.mu.Unlock()
	for _, fn := range all {
		fn()
	}
}
