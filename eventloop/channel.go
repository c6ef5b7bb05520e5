package eventloop

import "github.com/Swind/go-eventloop/selector"

// Channel is a selectable I/O resource an EventLoop drives readiness
// dispatch for. Implementations wrap a file descriptor (a TCP connection,
// a listener, a pipe) and translate the loop's read/write readiness calls
// into their own protocol-level behavior.
type Channel interface {
	// Open reports whether the channel still wants readiness dispatch. The
	// loop checks this immediately after each readiness callback,
	// deregistering and dropping the channel once it reports false;
	// Register and Reregister do not check it.
	Open() bool

	// OnReadable is invoked when the channel's registration reports read
	// readiness.
	OnReadable()

	// OnWritable is invoked when the channel's registration reports write
	// readiness.
	OnWritable()

	// Registration returns the selector.Registration identifying this
	// channel to the Selector.
	Registration() *selector.Registration

	// Interest returns the channel's current interest mask. The loop
	// consults this only when the channel is registered or reregistered;
	// it does not poll it every tick.
	Interest() selector.Interest
}
