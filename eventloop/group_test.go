package eventloop

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Swind/go-eventloop/clock"
	"github.com/Swind/go-eventloop/selector"
)

var errSelectorBoom = errors.New("selector construction failed")

func newTestGroup(t *testing.T, size int) *EventLoopGroup {
	t.Helper()
	group, err := NewGroup(size, DefaultGroupConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = group.SyncShutdownGracefully()
	})
	return group
}

// Next distributes calls across the group's loops in an even round robin.
func TestNextIsApproximatelyUniformRoundRobin(t *testing.T) {
	group := newTestGroup(t, 3)

	counts := make(map[*EventLoop]int)
	const calls = 300
	for i := 0; i < calls; i++ {
		counts[group.Next()]++
	}

	require.Len(t, counts, 3, "expected all 3 loops to be selected")
	for loop, n := range counts {
		require.Equal(t, calls/3, n, "loop %s got an uneven share", loop.Name())
	}
}

// A graceful group shutdown fails every pending task across every loop
// in the group and fires the completion callback exactly once.
func TestGroupShutdownGracefullyFailsAllPendingAndFiresOnce(t *testing.T) {
	group, err := NewGroup(3, DefaultGroupConfig())
	require.NoError(t, err)

	scheduled := make([]*Scheduled, 0, group.Size())
	for i := 0; i < group.Size(); i++ {
		loop := group.loops[i]
		scheduled = append(scheduled, loop.ScheduleTask(clock.FromDuration(10*time.Second), func() (any, error) { return nil, nil }))
	}

	var callbackCount int
	done := make(chan error, 1)
	group.ShutdownGracefully(func(fn func()) { callbackCount++; fn() }, func(err error) { done <- err })

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("group shutdown did not complete")
	}
	require.Equal(t, 1, callbackCount, "the completion callback must fire exactly once")

	for i, s := range scheduled {
		_, err := s.Future().Wait()
		require.ErrorIsf(t, err, ErrShutdown, "loop %d", i)
	}

	for i, loop := range group.loops {
		future := loop.Submit(func() (any, error) { return nil, nil })
		_, err := future.Wait()
		require.ErrorIsf(t, err, ErrShutdown, "loop %d", i)
	}
}

func TestSyncShutdownGracefullyBlocksUntilDone(t *testing.T) {
	group, err := NewGroup(2, DefaultGroupConfig())
	require.NoError(t, err)

	require.NoError(t, group.SyncShutdownGracefully())
}

func TestGroupShutdownGracefullyReportsErrShutdownFailedOnSelectorCloseError(t *testing.T) {
	cfg := DefaultGroupConfig()
	cfg.NewSelector = func(int) (selector.Selector, error) {
		return &closeFailingSelector{MemorySelector: selector.NewMemorySelector()}, nil
	}
	group, err := NewGroup(2, cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	group.ShutdownGracefully(func(fn func()) { fn() }, func(err error) { done <- err })

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrShutdownFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("group shutdown did not complete")
	}
}

func TestNewGroupPropagatesSelectorConstructionError(t *testing.T) {
	cfg := DefaultGroupConfig()
	cfg.NewSelector = func(idx int) (selector.Selector, error) {
		if idx == 1 {
			return nil, errSelectorBoom
		}
		return selector.NewMemorySelector(), nil
	}

	_, err := NewGroup(3, cfg)
	require.ErrorIs(t, err, errSelectorBoom)
}
