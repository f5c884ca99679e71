package concurrencpp

import "github.com/concurrencpp-go/runtime/internal/rterrors"

// The runtime's failure taxonomy (spec §7). These are type aliases onto
// internal/rterrors, which both this package and the lower-level
// result/executor packages depend on, so an error produced deep inside a
// thread-pool worker or a result's state machine is exactly the same type
// a caller matches against here with errors.As.
type (
	EmptyResultError       = rterrors.EmptyResultError
	AlreadyRetrievedError  = rterrors.AlreadyRetrievedError
	RuntimeShutdownError   = rterrors.RuntimeShutdownError
	BrokenTaskError        = rterrors.BrokenTaskError
	NullArgumentError      = rterrors.NullArgumentError
	ExecutorExceptionError = rterrors.ExecutorExceptionError
)

// WrapError wraps message around cause such that errors.Is(result, cause)
// still succeeds, for call sites that need to add context to one of the
// sentinel error types above without losing the chain.
func WrapError(message string, cause error) error {
	return rterrors.WrapError(message, cause)
}

// Sentinel instances usable with errors.Is for the common no-payload case.
var (
	ErrEmptyResult       = rterrors.ErrEmptyResult
	ErrAlreadyRetrieved  = rterrors.ErrAlreadyRetrieved
	ErrRuntimeShutdown   = rterrors.ErrRuntimeShutdown
	ErrBrokenTask        = rterrors.ErrBrokenTask
	ErrNullArgument      = rterrors.ErrNullArgument
	ErrExecutorException = rterrors.ErrExecutorException
)
