package eventloop

import "runtime"

// currentGoroutineID parses the calling goroutine's ID out of a
// runtime.Stack trace, since the runtime does not otherwise expose one.
// Grounded on joeycumines-go-utilpkg/eventloop's getGoroutineID, used here
// to back EventLoop.InEventLoop without requiring every task to carry a
// context value.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
