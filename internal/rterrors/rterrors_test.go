package rterrors_test

import (
	"errors"
	"testing"

	"github.com/concurrencpp-go/runtime/internal/rterrors"
	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchViaErrorsIs(t *testing.T) {
	assert.ErrorIs(t, &rterrors.EmptyResultError{Op: "get"}, rterrors.ErrEmptyResult)
	assert.ErrorIs(t, &rterrors.AlreadyRetrievedError{Op: "get"}, rterrors.ErrAlreadyRetrieved)
	assert.ErrorIs(t, &rterrors.RuntimeShutdownError{Executor: "cpu"}, rterrors.ErrRuntimeShutdown)
	assert.ErrorIs(t, &rterrors.BrokenTaskError{}, rterrors.ErrBrokenTask)
	assert.ErrorIs(t, &rterrors.NullArgumentError{Arg: "executor"}, rterrors.ErrNullArgument)
	assert.ErrorIs(t, &rterrors.ExecutorExceptionError{Executor: "cpu"}, rterrors.ErrExecutorException)
}

func TestRuntimeShutdownErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := &rterrors.RuntimeShutdownError{Executor: "cpu", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestBrokenTaskErrorUnwrapsReason(t *testing.T) {
	reason := errors.New("cancelled")
	err := &rterrors.BrokenTaskError{Reason: reason}
	assert.ErrorIs(t, err, reason)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestWrapErrorPreservesChain(t *testing.T) {
	cause := rterrors.ErrEmptyResult
	wrapped := rterrors.WrapError("submit", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "submit")
}

func TestErrorMessagesIncludeContext(t *testing.T) {
	assert.Contains(t, (&rterrors.NullArgumentError{Arg: "callable"}).Error(), "callable")
	assert.Contains(t, (&rterrors.RuntimeShutdownError{Executor: "background"}).Error(), "background")
	assert.Equal(t, "concurrencpp: runtime has shut down", (&rterrors.RuntimeShutdownError{}).Error())
}
