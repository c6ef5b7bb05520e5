//go:build !linux

package eventloop

// setWorkerThreadName is a no-op outside Linux; this module ships no
// kqueue/IOCP-side thread-naming syscall, only the Linux prctl one.
func setWorkerThreadName(name string) error { return nil }
