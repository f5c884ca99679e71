package threadpool_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/concurrencpp-go/runtime/executor"
	"github.com/concurrencpp-go/runtime/executor/threadpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadPoolRunsTasksOnMultipleWorkers(t *testing.T) {
	e := threadpool.New("cpu", 4, 50*time.Millisecond)
	defer e.Shutdown()

	const n = 200
	var sum atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		require.NoError(t, executor.Post(e, func() {
			sum.Add(int64(i))
			wg.Done()
		}))
	}
	wg.Wait()
	expected := int64(n * (n - 1) / 2)
	assert.Equal(t, expected, sum.Load())
}

func TestThreadPoolSubmitReturnsValues(t *testing.T) {
	e := threadpool.New("cpu", 4, 50*time.Millisecond)
	defer e.Shutdown()

	r, err := executor.Submit(e, func() int { return 21 * 2 })
	require.NoError(t, err)
	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestThreadPoolMaxConcurrencyLevelIsWorkerCount(t *testing.T) {
	e := threadpool.New("cpu", 6, 50*time.Millisecond)
	defer e.Shutdown()
	assert.Equal(t, 6, e.MaxConcurrencyLevel())
}

func TestThreadPoolSurvivesIdlePeriod(t *testing.T) {
	// With no work at all, all workers should cycle through idle waits
	// without the pool ever spinning; this just exercises that the pool
	// survives an idle period and still accepts work afterward.
	e := threadpool.New("cpu", 2, 10*time.Millisecond)
	defer e.Shutdown()

	time.Sleep(50 * time.Millisecond)

	r, err := executor.Submit(e, func() int { return 7 })
	require.NoError(t, err)
	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestThreadPoolShutdownCancelsPendingTasks(t *testing.T) {
	e := threadpool.New("cpu", 1, 50*time.Millisecond)

	block := make(chan struct{})
	require.NoError(t, executor.Post(e, func() { <-block }))

	r, err := executor.Submit(e, func() int { return 1 })
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
		e.Shutdown()
	}()

	_, _ = r.WaitFor(2 * time.Second)
	assert.True(t, e.ShutdownRequested())
}

func TestThreadPoolRejectsAfterShutdown(t *testing.T) {
	e := threadpool.New("cpu", 2, 50*time.Millisecond)
	e.Shutdown()
	_, err := executor.Submit(e, func() int { return 1 })
	assert.Error(t, err)
}

// TestThreadPoolSelfEnqueueStaysLocal submits a task from inside a task
// already running on the pool's single worker and checks that it runs.
// With only one worker, the self-dispatch LIFO path and round-robin
// dispatch both land on that worker's own deque, so the test does not
// tell the two paths apart.
func TestThreadPoolSelfEnqueueStaysLocal(t *testing.T) {
	e := threadpool.New("cpu", 1, 50*time.Millisecond)
	defer e.Shutdown()

	done := make(chan struct{})
	require.NoError(t, executor.Post(e, func() {
		assert.NoError(t, executor.Post(e, func() {
			close(done)
		}))
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task submitted from within a worker never ran")
	}
}

// TestThreadPoolEnqueueBatchSpreadsAcrossWorkers submits one big batch to
// a multi-worker pool and checks that more than one worker actually ran
// a task from it, confirming the batch does not all run on a single
// worker.
func TestThreadPoolEnqueueBatchSpreadsAcrossWorkers(t *testing.T) {
	e := threadpool.New("cpu", 4, 50*time.Millisecond)
	defer e.Shutdown()

	const n = 64
	var mu sync.Mutex
	seen := make(map[uint64]struct{})
	var wg sync.WaitGroup
	wg.Add(n)
	fns := make([]func(), n)
	for i := range fns {
		fns[i] = func() {
			defer wg.Done()
			mu.Lock()
			seen[callerGoroutineID()] = struct{}{}
			mu.Unlock()
		}
	}
	require.NoError(t, executor.BulkPost(e, fns))
	wg.Wait()

	mu.Lock()
	count := len(seen)
	mu.Unlock()
	assert.Greater(t, count, 1, "expected the batch to be spread across more than one worker")
}

// callerGoroutineID extracts the calling goroutine's numeric ID from the
// runtime's stack dump header, purely to tell worker goroutines apart
// within this test.
func callerGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
