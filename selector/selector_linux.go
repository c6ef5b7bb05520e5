//go:build linux

package selector

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const maxEpollEvents = 256

// EpollSelector is the production Selector implementation for Linux,
// backed by raw epoll syscalls. Grounded on gotcp-epoll's epoll.go (the
// EpollCreate1/EpollCtl/EpollWait call shape, edge-triggered interest
// flags) and joeycumines-go-utilpkg/eventloop's wakeup_linux.go (an
// eventfd used purely for cross-thread wakeup, registered for read
// interest on the same epoll instance).
type EpollSelector struct {
	epfd int

	mu   sync.Mutex
	regs map[int]*Registration

	wakeFD int

	events [maxEpollEvents]unix.EpollEvent
}

var _ Selector = (*EpollSelector)(nil)

// NewEpollSelector creates an epoll instance and registers its wakeup
// eventfd.
func NewEpollSelector() (*EpollSelector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("selector: epoll_create1: %w", err)
	}

	wakeFD, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("selector: eventfd: %w", err)
	}

	s := &EpollSelector{
		epfd:   epfd,
		regs:   make(map[int]*Registration),
		wakeFD: wakeFD,
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFD)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &ev); err != nil {
		unix.Close(wakeFD)
		unix.Close(epfd)
		return nil, fmt.Errorf("selector: epoll_ctl(wakeFD): %w", err)
	}

	return s, nil
}

func interestToEpollEvents(i Interest) uint32 {
	var events uint32 = unix.EPOLLET
	if i&InterestRead != 0 {
		events |= unix.EPOLLIN
	}
	if i&InterestWrite != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

func (s *EpollSelector) Register(reg *Registration, interests Interest) error {
	s.mu.Lock()
	s.regs[reg.FD] = reg
	s.mu.Unlock()

	ev := unix.EpollEvent{Events: interestToEpollEvents(interests), Fd: int32(reg.FD)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, reg.FD, &ev); err != nil {
		return fmt.Errorf("selector: epoll_ctl(ADD, fd=%d): %w", reg.FD, err)
	}
	return nil
}

func (s *EpollSelector) Deregister(reg *Registration) error {
	s.mu.Lock()
	delete(s.regs, reg.FD)
	s.mu.Unlock()

	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, reg.FD, nil); err != nil {
		return fmt.Errorf("selector: epoll_ctl(DEL, fd=%d): %w", reg.FD, err)
	}
	return nil
}

func (s *EpollSelector) Reregister(reg *Registration, interests Interest) error {
	ev := unix.EpollEvent{Events: interestToEpollEvents(interests), Fd: int32(reg.FD)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, reg.FD, &ev); err != nil {
		return fmt.Errorf("selector: epoll_ctl(MOD, fd=%d): %w", reg.FD, err)
	}
	return nil
}

func (s *EpollSelector) Wait(strategy Strategy, handler func(Event)) error {
	timeout := strategyTimeoutMillis(strategy)

	n, err := unix.EpollWait(s.epfd, s.events[:], timeout)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("selector: epoll_wait: %w", err)
	}

	for i := 0; i < n; i++ {
		ev := s.events[i]
		fd := int(ev.Fd)

		if fd == s.wakeFD {
			s.drainWake()
			continue
		}

		s.mu.Lock()
		reg, ok := s.regs[fd]
		s.mu.Unlock()
		if !ok {
			continue
		}

		handler(Event{Registration: reg, Readiness: epollEventsToInterest(ev.Events)})
	}
	return nil
}

func epollEventsToInterest(events uint32) Interest {
	var i Interest
	if events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		i |= InterestRead
	}
	if events&unix.EPOLLOUT != 0 {
		i |= InterestWrite
	}
	return i
}

// strategyTimeoutMillis converts a Strategy into epoll_wait's millisecond
// timeout argument: -1 blocks indefinitely, 0 polls without blocking, and
// a positive duration is rounded up to the next whole millisecond so a
// sub-millisecond deadline never degenerates into a busy poll loop.
func strategyTimeoutMillis(strategy Strategy) int {
	switch strategy.Kind {
	case StrategyBlock:
		return -1
	case StrategyPollNow:
		return 0
	case StrategyBlockFor:
		ms := strategy.Duration.Milliseconds()
		if strategy.Duration%time.Millisecond != 0 {
			ms++
		}
		if ms <= 0 {
			return 0
		}
		return int(ms)
	default:
		return -1
	}
}

func (s *EpollSelector) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(s.wakeFD, buf[:])
}

func (s *EpollSelector) Wakeup() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(s.wakeFD, buf[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("selector: wakeup write: %w", err)
	}
	return nil
}

func (s *EpollSelector) Close() error {
	unix.Close(s.wakeFD)
	return unix.Close(s.epfd)
}
