package result

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultEmpty(t *testing.T) {
	var r Result[int]
	assert.True(t, r.Empty())
	assert.Equal(t, StatusIdle, r.Status())
	_, err := r.Get()
	require.Error(t, err)
}

func TestPromiseSetResultThenGet(t *testing.T) {
	p := NewPromise[int]()
	r := p.Result()
	assert.Equal(t, StatusIdle, r.Status())

	p.SetResult(42)

	assert.Equal(t, StatusValue, r.Status())
	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = r.Get()
	assert.Error(t, err, "second Get must fail with already-retrieved")
}

func TestPromiseSetExceptionThenGet(t *testing.T) {
	p := NewPromise[int]()
	r := p.Result()
	boom := errors.New("boom")
	p.SetException(boom)

	assert.Equal(t, StatusException, r.Status())
	_, err := r.Get()
	assert.ErrorIs(t, err, boom)
}

func TestPromiseCompleteTwicePanics(t *testing.T) {
	p := NewPromise[int]()
	p.SetResult(1)
	assert.Panics(t, func() { p.SetResult(2) })
}

func TestResultWaitBlocksUntilComplete(t *testing.T) {
	p := NewPromise[int]()
	r := p.Result()

	done := make(chan struct{})
	go func() {
		_ = r.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before completion")
	case <-time.After(20 * time.Millisecond):
	}

	p.SetResult(7)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after completion")
	}
}

func TestResultWaitForTimesOut(t *testing.T) {
	p := NewPromise[int]()
	r := p.Result()
	ok, err := r.WaitFor(10 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	p.SetResult(1)
	ok, err = r.WaitFor(time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResultAwaitAlreadyComplete(t *testing.T) {
	p := NewPromise[int]()
	p.SetResult(5)
	r := p.Result()

	var called int32
	suspended := r.Await(func() { atomic.AddInt32(&called, 1) })
	assert.False(t, suspended)
	assert.EqualValues(t, 1, atomic.LoadInt32(&called))
}

func TestResultAwaitBeforeComplete(t *testing.T) {
	p := NewPromise[int]()
	r := p.Result()

	var wg sync.WaitGroup
	wg.Add(1)
	suspended := r.Await(func() { wg.Done() })
	assert.True(t, suspended)

	p.SetResult(9)
	wg.Wait()
}

func TestWhenAnyPicksFastestAndIgnoresRest(t *testing.T) {
	p1 := NewPromise[int]()
	p2 := NewPromise[int]()

	combined := WhenAny[int](nil, p1.Result(), p2.Result())

	p2.SetResult(2)
	v, err := combined.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v.Index)
	got, err := v.Result.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	p1.SetResult(1) // ignored by WhenAny, but must not panic or deadlock
}

func TestWhenAllWaitsForEveryResult(t *testing.T) {
	p1 := NewPromise[int]()
	p2 := NewPromise[int]()
	p3 := NewPromise[int]()

	combined := WhenAll[int](nil, p1.Result(), p2.Result(), p3.Result())

	ok, _ := combined.WaitFor(10 * time.Millisecond)
	assert.False(t, ok)

	p1.SetResult(1)
	p2.SetResult(2)
	p3.SetResult(3)

	results, err := combined.Get()
	require.NoError(t, err)
	require.Len(t, results, 3)
	sum := 0
	for _, r := range results {
		v, err := r.Get()
		require.NoError(t, err)
		sum += v
	}
	assert.Equal(t, 6, sum)
}

func TestSharedFanoutNotifiesAllSubscribers(t *testing.T) {
	p := NewPromise[string]()
	shared := p.Result().Share()

	var wg sync.WaitGroup
	const n = 5
	wg.Add(n)
	for i := 0; i < n; i++ {
		shared.Subscribe(nil, func(r Result[string]) {
			v, err := r.Get()
			if err == nil {
				assert.Equal(t, "hi", v)
			}
			wg.Done()
		})
	}

	p.SetResult("hi")
	wg.Wait()
}

func TestLazyNotStartedUntilAwaited(t *testing.T) {
	var started int32
	l := NewLazy(func() (int, error) {
		atomic.AddInt32(&started, 1)
		return 3, nil
	})

	assert.Equal(t, StatusIdle, l.Status())
	assert.EqualValues(t, 0, atomic.LoadInt32(&started))

	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.EqualValues(t, 1, atomic.LoadInt32(&started))

	// a second Get does not re-invoke fn (the computation already ran),
	// but the value has already been retrieved, so it reports that.
	_, err = l.Get()
	assert.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&started))
}
