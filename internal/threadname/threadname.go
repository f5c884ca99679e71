// Package threadname best-effort names the calling OS thread, mirroring
// concurrencpp's details::thread, which sets a native thread name of
// "<executor-name> worker" and silently tolerates naming failures.
//
// Go does not expose a portable "name the current OS thread" primitive in
// the standard library, and a goroutine is not pinned to an OS thread
// unless it calls runtime.LockOSThread. Callers that want the name to
// stick must LockOSThread first; Set is a no-op-on-failure best effort,
// exactly as spec.md §6 requires.
package threadname

// Set names the calling OS thread. Callers must have called
// runtime.LockOSThread beforehand for the name to apply to a stable
// thread. Failures (including "unsupported platform") are swallowed.
func Set(name string) {
	setThreadName(name)
}

// WorkerName formats the "<executor-name> worker" convention spec.md §4.5
// and §4.6 use for thread-per-task and worker-thread executors.
func WorkerName(executorName string) string {
	return executorName + " worker"
}
