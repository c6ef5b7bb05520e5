package selector

import (
	"sync"
	"time"
)

// MemorySelector is a deterministic, platform-independent Selector used
// by tests (and as the Selector for non-Linux builds, since this module
// ships no kqueue/IOCP implementation, only epoll for Linux). It tracks
// registrations in a map and lets tests drive readiness directly via
// Trigger, rather than talking to real file descriptors.
type MemorySelector struct {
	mu     sync.Mutex
	regs   map[int]*Registration
	ready  []Event
	wake   chan struct{}
	closed bool
}

var _ Selector = (*MemorySelector)(nil)

// NewMemorySelector creates an empty MemorySelector.
func NewMemorySelector() *MemorySelector {
	return &MemorySelector{
		regs: make(map[int]*Registration),
		wake: make(chan struct{}, 1),
	}
}

func (s *MemorySelector) Register(reg *Registration, interests Interest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[reg.FD] = reg
	return nil
}

func (s *MemorySelector) Deregister(reg *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regs, reg.FD)
	return nil
}

func (s *MemorySelector) Reregister(reg *Registration, interests Interest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[reg.FD] = reg
	return nil
}

// Trigger makes fd report readiness the next time Wait is called, and
// wakes up a blocked Wait immediately. Intended for tests driving the
// EventLoop's I/O dispatch path without a real kernel selector.
func (s *MemorySelector) Trigger(fd int, readiness Interest) {
	s.mu.Lock()
	reg, ok := s.regs[fd]
	if ok {
		s.ready = append(s.ready, Event{Registration: reg, Readiness: readiness})
	}
	s.mu.Unlock()
	_ = s.Wakeup()
}

func (s *MemorySelector) Wait(strategy Strategy, handler func(Event)) error {
	s.mu.Lock()
	pending := s.ready
	s.ready = nil
	s.mu.Unlock()

	if len(pending) > 0 {
		for _, ev := range pending {
			handler(ev)
		}
		return nil
	}

	switch strategy.Kind {
	case StrategyPollNow:
		return nil
	case StrategyBlockFor:
		select {
		case <-s.wake:
		case <-time.After(strategy.Duration):
		}
	case StrategyBlock:
		<-s.wake
	}
	return nil
}

func (s *MemorySelector) Wakeup() error {
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *MemorySelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
