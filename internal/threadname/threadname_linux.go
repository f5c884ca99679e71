//go:build linux

package threadname

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxThreadNameLen is the number of usable bytes under the Linux
// PR_SET_NAME limit: TASK_COMM_LEN (16) minus the NUL terminator.
const maxThreadNameLen = 15

func setThreadName(name string) {
	if len(name) > maxThreadNameLen {
		name = name[:maxThreadNameLen]
	}
	buf := append([]byte(name), 0)
	// PR_SET_NAME failures (e.g. called from a goroutine not locked to its
	// OS thread, or on a kernel without prctl support) are tolerated.
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}
