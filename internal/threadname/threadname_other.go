//go:build !linux

package threadname

func setThreadName(string) {
	// No portable thread-naming primitive on this platform; tolerated per
	// spec.md §6 ("naming failure is silently tolerated").
}
