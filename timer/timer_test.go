package timer_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/concurrencpp-go/runtime/executor/inline"
	"github.com/concurrencpp-go/runtime/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneshotTimerFiresOnce(t *testing.T) {
	q := timer.New("timers", 50*time.Millisecond)
	defer q.Shutdown()
	ex := inline.New("fire")

	var fires atomic.Int32
	_, err := q.MakeOneshotTimer(10*time.Millisecond, ex, func() { fires.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fires.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load())
}

func TestCancelBeforeDeadlinePreventsFire(t *testing.T) {
	q := timer.New("timers", 50*time.Millisecond)
	defer q.Shutdown()
	ex := inline.New("fire")

	var fires atomic.Int32
	tm, err := q.MakeOneshotTimer(50*time.Millisecond, ex, func() { fires.Add(1) })
	require.NoError(t, err)

	tm.Cancel()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())
	assert.True(t, tm.Cancelled())
}

func TestPeriodicTimerFrequencyChange(t *testing.T) {
	q := timer.New("timers", 200*time.Millisecond)
	defer q.Shutdown()
	ex := inline.New("fire")

	var fires atomic.Int32
	tm, err := q.MakeTimer(10*time.Millisecond, 10*time.Millisecond, ex, func() { fires.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fires.Load() >= 3 }, time.Second, time.Millisecond)

	tm.SetFrequency(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, tm.Frequency())

	tm.Cancel()
}

func TestMakeDelayObjectResolvesAfterDueTime(t *testing.T) {
	q := timer.New("timers", 50*time.Millisecond)
	defer q.Shutdown()
	ex := inline.New("resume")

	start := time.Now()
	r, err := timer.MakeDelayObject(q, 20*time.Millisecond, ex)
	require.NoError(t, err)

	_, err = r.Get()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMakeDelayObjectBrokenOnShutdown(t *testing.T) {
	q := timer.New("timers", 50*time.Millisecond)
	ex := inline.New("resume")

	r, err := timer.MakeDelayObject(q, time.Hour, ex)
	require.NoError(t, err)

	q.Shutdown()

	_, err = r.Get()
	require.Error(t, err)
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := timer.New("timers", 50*time.Millisecond)
	ex := inline.New("fire")
	q.Shutdown()

	_, err := q.MakeOneshotTimer(time.Millisecond, ex, func() {})
	assert.Error(t, err)
	assert.True(t, q.ShutdownRequested())
}

func TestWorkerRetiresWhenIdleThenRespawns(t *testing.T) {
	q := timer.New("timers", 20*time.Millisecond)
	defer q.Shutdown()
	ex := inline.New("fire")

	var first atomic.Int32
	_, err := q.MakeOneshotTimer(time.Millisecond, ex, func() { first.Add(1) })
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return first.Load() == 1 }, time.Second, time.Millisecond)

	// Give the worker time to decide it's idle and retire.
	time.Sleep(60 * time.Millisecond)

	var second atomic.Int32
	_, err = q.MakeOneshotTimer(time.Millisecond, ex, func() { second.Add(1) })
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, time.Millisecond)
}

func TestMultipleTimersFireInDeadlineOrder(t *testing.T) {
	q := timer.New("timers", 200*time.Millisecond)
	defer q.Shutdown()
	ex := inline.New("fire")

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	wg.Add(3)
	for i, due := range []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		i := i
		_, err := q.MakeOneshotTimer(due, ex, func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
		require.NoError(t, err)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 0}, order)
}
