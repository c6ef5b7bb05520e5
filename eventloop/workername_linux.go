//go:build linux

package eventloop

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// setWorkerThreadName pins the calling goroutine to its current OS thread
// and names that thread via prctl(PR_SET_NAME), the same mechanism
// pthread_setname_np wraps in glibc. Must be called from the worker
// goroutine itself before it starts serving ticks.
func setWorkerThreadName(name string) error {
	runtime.LockOSThread()
	namePtr, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(namePtr)), 0, 0, 0)
}
