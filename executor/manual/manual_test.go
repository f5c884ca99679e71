package manual_test

import (
	"testing"
	"time"

	"github.com/concurrencpp-go/runtime/executor"
	"github.com/concurrencpp-go/runtime/executor/manual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualDoesNothingUntilDriven(t *testing.T) {
	e := manual.New("manual")
	var ran bool
	require.NoError(t, executor.Post(e, func() { ran = true }))
	assert.False(t, ran)
	assert.Equal(t, 1, e.Size())

	assert.True(t, e.LoopOnce())
	assert.True(t, ran)
	assert.Equal(t, 0, e.Size())
}

func TestManualLoopOnceFalseWhenEmpty(t *testing.T) {
	e := manual.New("manual")
	assert.False(t, e.LoopOnce())
}

func TestManualLoopRunsUpToMaxCount(t *testing.T) {
	e := manual.New("manual")
	count := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, executor.Post(e, func() { count++ }))
	}
	ran := e.Loop(3)
	assert.Equal(t, 3, ran)
	assert.Equal(t, 3, count)
	assert.Equal(t, 2, e.Size())
}

func TestManualLoopOnceTimeoutWaitsForWork(t *testing.T) {
	e := manual.New("manual")
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = executor.Post(e, func() {})
	}()
	assert.True(t, e.LoopOnceTimeout(time.Second))
}

func TestManualLoopOnceTimeoutExpires(t *testing.T) {
	e := manual.New("manual")
	assert.False(t, e.LoopOnceTimeout(10*time.Millisecond))
}

func TestManualWaitForTaskBlocksUntilPosted(t *testing.T) {
	e := manual.New("manual")
	done := make(chan struct{})
	go func() {
		e.WaitForTask()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitForTask returned before any task was posted")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, executor.Post(e, func() {}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForTask did not return after a task was posted")
	}
}

func TestManualClearCancelsQueuedTasks(t *testing.T) {
	e := manual.New("manual")
	require.NoError(t, executor.Post(e, func() {}))
	e.Clear(nil)
	assert.Equal(t, 0, e.Size())
}

func TestManualShutdownRejectsFurtherWork(t *testing.T) {
	e := manual.New("manual")
	e.Shutdown()
	assert.True(t, e.ShutdownRequested())
	err := executor.Post(e, func() {})
	assert.Error(t, err)
}
