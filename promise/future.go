package promise

import "sync"

// Future is the read-side handle over a Promise's cell. All callbacks
// registered on a Future are delivered on the bound promise's loop,
// per the rule documented on Promise.deliver.
type Future struct {
	p *Promise
}

// State returns the underlying promise's current state.
func (f *Future) State() State { return f.p.State() }

// WhenSuccess registers cb to run with the fulfilled value, if and when
// the promise succeeds.
func (f *Future) WhenSuccess(cb func(value any)) {
	f.WhenComplete(func(v any, err error) {
		if err == nil {
			cb(v)
		}
	})
}

// WhenFailure registers cb to run with the failure, if and when the
// promise fails.
func (f *Future) WhenFailure(cb func(err error)) {
	f.WhenComplete(func(v any, err error) {
		if err != nil {
			cb(err)
		}
	})
}

// WhenComplete registers cb to run with the eventual (value, error)
// outcome regardless of which it is. Callbacks registered before
// resolution fire in registration order; callbacks registered after
// resolution fire immediately under the same delivery rule.
func (f *Future) WhenComplete(cb func(value any, err error)) {
	f.p.addCallback(func() {
		v, err := f.p.snapshot()
		cb(v, err)
	})
}

// Map derives a new Future by applying fn to this Future's value once it
// succeeds. A failure of this Future, or a failure returned/panicked from
// fn, becomes the failure of the derived Future. The derived Future is
// bound to the same loop as the source.
func (f *Future) Map(fn func(value any) (any, error)) *Future {
	derived := New(f.p.loop, f.p.registry, f.p.logger)
	f.WhenComplete(func(v any, err error) {
		if err != nil {
			derived.Fail(err)
			return
		}
		result, mapErr := safeCall(fn, v)
		if mapErr != nil {
			derived.Fail(mapErr)
			return
		}
		derived.Succeed(result)
	})
	return derived.Future()
}

// FlatMap is Map's then-style variant: fn itself returns a Future, whose
// eventual outcome becomes the outcome of the derived Future.
func (f *Future) FlatMap(fn func(value any) *Future) *Future {
	derived := New(f.p.loop, f.p.registry, f.p.logger)
	f.WhenComplete(func(v any, err error) {
		if err != nil {
			derived.Fail(err)
			return
		}
		next, callErr := safeCallFuture(fn, v)
		if callErr != nil {
			derived.Fail(callErr)
			return
		}
		next.Cascade(derived)
	})
	return derived.Future()
}

// Cascade fulfills or fails to with this Future's eventual outcome.
func (f *Future) Cascade(to *Promise) {
	f.WhenComplete(func(v any, err error) {
		if err != nil {
			to.Fail(err)
			return
		}
		to.Succeed(v)
	})
}

// And combines f with other: the derived Future resolves with []any{v, otherV}
// once both succeed, or fails with whichever's failure is observed first.
func (f *Future) And(other *Future) *Future {
	return AndAll([]*Future{f, other})
}

// AndAll resolves once every Future in futures has succeeded, with a
// []any of their values in the same order as futures. It fails with the
// first observed failure among them; once the derived outcome is decided,
// later failures/successes are ignored.
func AndAll(futures []*Future) *Future {
	if len(futures) == 0 {
		panic("promise: AndAll requires at least one future")
	}
	loop := futures[0].p.loop
	registry := futures[0].p.registry
	logger := futures[0].p.logger
	derived := New(loop, registry, logger)

	var mu sync.Mutex
	values := make([]any, len(futures))
	remaining := len(futures)
	done := false

	for i, fut := range futures {
		i := i
		fut.WhenComplete(func(v any, err error) {
			mu.Lock()
			if done {
				mu.Unlock()
				return
			}
			if err != nil {
				done = true
				mu.Unlock()
				derived.Fail(err)
				return
			}
			values[i] = v
			remaining--
			finished := remaining == 0
			if finished {
				done = true
			}
			mu.Unlock()
			if finished {
				derived.Succeed(values)
			}
		})
	}

	return derived.Future()
}

// Wait blocks the calling goroutine until the future settles and returns
// its outcome. Intended only for use off the bound loop's thread, and
// only at shutdown boundaries (per the specification) — calling it from
// the bound loop's own worker goroutine would deadlock a synchronous
// resolution path, since the loop would never get to run the resolving
// task while blocked here. An already-settled future returns at once
// without posting anything to the loop, so Wait keeps working after the
// bound loop has shut down.
func (f *Future) Wait() (any, error) {
	p := f.p
	p.mu.Lock()
	if p.state != Pending {
		value, err := p.value, p.err
		p.mu.Unlock()
		return value, err
	}
	resultCh := make(chan struct{})
	p.callbacks = append(p.callbacks, func() { close(resultCh) })
	p.mu.Unlock()
	<-resultCh
	return p.snapshot()
}
