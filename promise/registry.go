package promise

import "sync"

// registrant is the subset of *Promise the debug registry needs in order
// to fail still-pending promises at loop shutdown.
type registrant interface {
	rejectIfPending(err error)
}

// Registry is the "debug promise-creation registry" described by the
// specification: a mutex-guarded map from an incrementing ID to every
// Promise created on one EventLoop, consulted only at shutdown to fail
// every promise still pending. The mutex is held only across
// register/unregister, never across callback execution.
//
// Grounded on joeycumines-go-utilpkg/eventloop's registry.go, simplified:
// that implementation uses Go's weak package and ring-buffer scavenging to
// let settled promises be garbage collected without ever being explicitly
// removed. This registry instead removes a promise explicitly as soon as
// it settles (Promise.Succeed/Fail call unregister), since the spec asks
// for a debug bookkeeping structure, not a GC-aware leak detector.
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]registrant
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pending: make(map[uint64]registrant)}
}

// register adds r to the registry and returns its ID.
func (reg *Registry) register(r registrant) uint64 {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.nextID++
	id := reg.nextID
	reg.pending[id] = r
	return id
}

// unregister removes the entry for id, if present. A no-op for id == 0
// (the reserved "never registered" sentinel).
func (reg *Registry) unregister(id uint64) {
	if id == 0 {
		return
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.pending, id)
}

// RejectAll fails every still-pending promise tracked by the registry with
// err, then clears the registry. Called once, from the owning loop's
// shutdown path.
func (reg *Registry) RejectAll(err error) {
	reg.mu.Lock()
	entries := reg.pending
	reg.pending = make(map[uint64]registrant)
	reg.mu.Unlock()

	for _, r := range entries {
		r.rejectIfPending(err)
	}
}

// Len reports how many promises are currently tracked as pending. Intended
// for tests and diagnostics, not the hot path.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.pending)
}
