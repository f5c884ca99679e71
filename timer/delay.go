package timer

import (
	"time"

	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/concurrencpp-go/runtime/result"
)

// MakeDelayObject returns a lazy result that, when first awaited, arms a
// one-shot timer after due and resolves once it fires, with the fire
// itself posted onto executor — spec §4.9's "make_delay_object(due,
// executor) returns a lazy result that, when awaited, schedules a
// one-shot timer", not an eagerly-armed one. If the queue has shut down
// by the time the result is started, or shuts down before the timer
// fires, it resolves with an error instead (a RuntimeShutdownError in the
// former case, a BrokenTaskError in the latter, matching
// timer_queue::make_delay_object's cancellation contract).
func MakeDelayObject(q *Queue, due time.Duration, executor Executor) (result.Lazy[struct{}], error) {
	if executor == nil {
		return result.Lazy[struct{}]{}, &rterrors.NullArgumentError{Arg: "executor"}
	}

	lazy := result.NewLazyAsync(func() result.Result[struct{}] {
		promise := result.NewPromise[struct{}]()
		st := newTimerState(q, due, 0, executor, true, func() {
			promise.SetResult(struct{}{})
		})
		st.brokenFn = func() {
			promise.Break(&rterrors.RuntimeShutdownError{Executor: q.name})
		}

		if err := q.addTimer(st); err != nil {
			promise.SetException(err)
		}
		return promise.Result()
	})
	return lazy, nil
}
