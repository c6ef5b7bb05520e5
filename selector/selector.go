// Package selector defines the Selector interface — the abstraction over
// kernel I/O readiness multiplexing (epoll/kqueue/IOCP) that EventLoop
// drives — plus a production epoll-backed implementation for Linux and an
// in-memory implementation usable from tests and on any platform.
package selector

import "time"

// Interest is a readiness flag set.
type Interest uint8

const (
	// InterestNone indicates no readiness.
	InterestNone Interest = 0
	// InterestRead indicates the registration is ready to read.
	InterestRead Interest = 1 << 0
	// InterestWrite indicates the registration is ready to write.
	InterestWrite Interest = 1 << 1
	// InterestBoth indicates both read and write readiness.
	InterestBoth = InterestRead | InterestWrite
)

func (i Interest) String() string {
	switch i {
	case InterestNone:
		return "none"
	case InterestRead:
		return "read"
	case InterestWrite:
		return "write"
	case InterestBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Registration is the discriminator a Selector hands back with every
// Event, identifying which registered selectable the event belongs to.
// Kind is opaque to the Selector (e.g. "listening" vs "connected") and
// exists purely for the caller's dispatch logic.
type Registration struct {
	FD   int
	Kind any
}

// Event is one readiness notification produced by Wait.
type Event struct {
	Registration *Registration
	Readiness    Interest
}

// StrategyKind enumerates the three blocking strategies a tick may select.
type StrategyKind int

const (
	// StrategyBlock waits indefinitely for an I/O event or a wakeup.
	StrategyBlock StrategyKind = iota
	// StrategyPollNow returns immediately, reporting only already-ready events.
	StrategyPollNow
	// StrategyBlockFor waits up to Duration for an I/O event or a wakeup.
	StrategyBlockFor
)

// Strategy is the blocking strategy for one call to Wait, computed by the
// EventLoop from the TimerQueue's earliest deadline.
type Strategy struct {
	Kind     StrategyKind
	Duration time.Duration
}

// Block waits indefinitely.
func Block() Strategy { return Strategy{Kind: StrategyBlock} }

// PollNow returns immediately.
func PollNow() Strategy { return Strategy{Kind: StrategyPollNow} }

// BlockFor waits up to d.
func BlockFor(d time.Duration) Strategy { return Strategy{Kind: StrategyBlockFor, Duration: d} }

// Selector is the external collaborator EventLoop drives for I/O
// readiness. All methods except Wakeup are called only from the bound
// loop's worker thread; Wakeup is the one operation safe to call from any
// thread, and must be idempotent — spurious wakeups are tolerated as a
// no-op at the next Wait.
type Selector interface {
	// Register begins reporting readiness events for reg with the given
	// interest set.
	Register(reg *Registration, interests Interest) error

	// Deregister stops reporting readiness events for reg.
	Deregister(reg *Registration) error

	// Reregister changes reg's interest set.
	Reregister(reg *Registration, interests Interest) error

	// Wait blocks according to strategy, then invokes handler once per
	// ready event. Returns after handling all events currently ready (or
	// immediately, for StrategyPollNow with nothing ready).
	Wait(strategy Strategy, handler func(Event)) error

	// Wakeup causes a concurrently blocked Wait to return promptly.
	Wakeup() error

	// Close releases all resources held by the selector. No further
	// calls are valid afterward.
	Close() error
}
