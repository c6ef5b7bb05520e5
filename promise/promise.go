// Package promise implements the Future/Promise asynchronous result
// primitive: a single-assignment cell bound to one EventLoop, with
// callbacks always delivered on that loop.
//
// Grounded on Swind-go-task-runner's core/task_and_reply.go
// happens-before pattern (a result delivered back through a runner) and
// joeycumines-go-utilpkg/eventloop's promise.go state machine, reshaped
// from Promise/A+ Then/Catch/Finally naming into the spec's
// map/flatMap/cascade/and/andAll/whenSuccess/whenFailure/whenComplete API.
package promise

import (
	"fmt"
	"sync"

	"github.com/Swind/go-eventloop/logging"
)

// State is the lifecycle state of a Promise.
type State int32

const (
	// Pending means the promise has not yet been resolved.
	Pending State = iota
	// Fulfilled means the promise completed with a value.
	Fulfilled
	// Rejected means the promise completed with an error.
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Promise is the write side of a single-assignment result cell bound to
// one EventLoop. Once Succeed or Fail is called, the promise is settled
// and further attempts are silently ignored (and logged).
type Promise struct {
	loop     Loop
	logger   logging.Logger
	registry *Registry
	id       uint64

	mu        sync.Mutex
	state     State
	value     any
	err       error
	callbacks []func()
}

// New creates a Promise bound to loop. If registry is non-nil, the
// promise registers itself so that a loop shutdown can fail it if it is
// still pending. If logger is nil, a NoOpLogger is used.
func New(loop Loop, registry *Registry, logger logging.Logger) *Promise {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	p := &Promise{loop: loop, logger: logger, registry: registry}
	if registry != nil {
		p.id = registry.register(p)
	}
	return p
}

// Future returns the read-side handle for this promise.
func (p *Promise) Future() *Future { return &Future{p: p} }

// State returns the promise's current state.
func (p *Promise) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Succeed fulfills the promise with value. Returns false if the promise
// was already settled, in which case the call is a no-op beyond a logged
// warning.
func (p *Promise) Succeed(value any) bool {
	return p.settle(Fulfilled, value, nil)
}

// Fail rejects the promise with err. Returns false if the promise was
// already settled.
func (p *Promise) Fail(err error) bool {
	return p.settle(Rejected, nil, err)
}

func (p *Promise) settle(state State, value any, err error) bool {
	p.mu.Lock()
	if p.state != Pending {
		prev := p.state
		p.mu.Unlock()
		p.logger.Warn("promise: ignoring duplicate resolution",
			logging.F("previousState", prev.String()),
			logging.F("attemptedState", state.String()))
		return false
	}
	p.state = state
	p.value = value
	p.err = err
	cbs := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	if p.registry != nil {
		p.registry.unregister(p.id)
	}

	for _, cb := range cbs {
		p.deliver(cb)
	}
	return true
}

// rejectIfPending fails the promise with err only if it is still pending.
// Used exclusively by Registry.RejectAll at loop shutdown.
func (p *Promise) rejectIfPending(err error) {
	p.Fail(err)
}

// snapshot returns the settled value/error. Must only be called after the
// promise has settled (callbacks are only ever invoked post-settle).
func (p *Promise) snapshot() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// addCallback registers cb to run once the promise settles, honoring the
// delivery rule: cb always ends up running via deliver, either
// immediately (if already settled) or queued for when it settles.
func (p *Promise) addCallback(cb func()) {
	p.mu.Lock()
	if p.state == Pending {
		p.callbacks = append(p.callbacks, cb)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.deliver(cb)
}

// deliver implements the callback delivery rule: run synchronously if the
// calling goroutine is already the bound loop's worker goroutine,
// otherwise post as an immediate task on that loop.
func (p *Promise) deliver(cb func()) {
	if p.loop.InEventLoop() {
		cb()
		return
	}
	p.loop.Execute(cb)
}

// safeCall invokes fn(v), recovering any panic into an error so that
// composition operators (Map/FlatMap) never throw.
func safeCall(fn func(any) (any, error), v any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("promise: callback panicked: %v", r)
		}
	}()
	return fn(v)
}

// safeCallFuture is safeCall's variant for FlatMap, whose callback
// returns a *Future instead of a value.
func safeCallFuture(fn func(any) *Future, v any) (result *Future, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("promise: callback panicked: %v", r)
		}
	}()
	return fn(v), nil
}
