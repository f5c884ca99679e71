package idleset_test

import (
	"testing"

	"github.com/concurrencpp-go/runtime/internal/idleset"
	"github.com/stretchr/testify/assert"
)

func TestNewStartsAllActive(t *testing.T) {
	s := idleset.New(4)
	assert.Equal(t, 4, s.Len())
	for i := 0; i < 4; i++ {
		assert.False(t, s.IsIdle(i))
	}
	assert.Equal(t, int64(0), s.ApproxIdleCount())
}

func TestSetIdleThenActiveRoundTrips(t *testing.T) {
	s := idleset.New(2)
	s.SetIdle(0)
	assert.True(t, s.IsIdle(0))
	assert.Equal(t, int64(1), s.ApproxIdleCount())

	s.SetActive(0)
	assert.False(t, s.IsIdle(0))
	assert.Equal(t, int64(0), s.ApproxIdleCount())
}

func TestSetIdleIsIdempotent(t *testing.T) {
	s := idleset.New(1)
	s.SetIdle(0)
	s.SetIdle(0)
	assert.Equal(t, int64(1), s.ApproxIdleCount())
}

func TestTryClaimForWakeOnlyWinsOnce(t *testing.T) {
	s := idleset.New(1)
	s.SetIdle(0)

	assert.True(t, s.TryClaimForWake(0))
	assert.False(t, s.IsIdle(0))
	assert.False(t, s.TryClaimForWake(0))
}

func TestTryClaimForWakeFailsWhenAlreadyActive(t *testing.T) {
	s := idleset.New(1)
	assert.False(t, s.TryClaimForWake(0))
}
