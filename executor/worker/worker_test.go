package worker_test

import (
	"testing"
	"time"

	"github.com/concurrencpp-go/runtime/executor"
	"github.com/concurrencpp-go/runtime/executor/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerRunsTasksInFIFOOrder(t *testing.T) {
	e := worker.New("worker")
	defer e.Shutdown()

	results := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		require.NoError(t, executor.Post(e, func() { results <- i }))
	}

	for i := 1; i <= 3; i++ {
		select {
		case v := <-results:
			assert.Equal(t, i, v)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for task")
		}
	}
}

func TestWorkerSubmitReturnsValue(t *testing.T) {
	e := worker.New("worker")
	defer e.Shutdown()

	r, err := executor.Submit(e, func() int { return 99 })
	require.NoError(t, err)
	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestWorkerMaxConcurrencyLevelIsOne(t *testing.T) {
	e := worker.New("worker")
	defer e.Shutdown()
	assert.Equal(t, 1, e.MaxConcurrencyLevel())
}

func TestWorkerShutdownRejectsFurtherWork(t *testing.T) {
	e := worker.New("worker")
	e.Shutdown()
	assert.True(t, e.ShutdownRequested())
	err := executor.Post(e, func() {})
	assert.Error(t, err)
}
