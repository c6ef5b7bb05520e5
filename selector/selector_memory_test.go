package selector

import (
	"testing"
	"time"
)

func TestMemorySelectorDeliversTriggeredEvents(t *testing.T) {
	s := NewMemorySelector()
	reg := &Registration{FD: 1, Kind: "connected"}
	if err := s.Register(reg, InterestBoth); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s.Trigger(1, InterestRead)

	var got []Event
	if err := s.Wait(PollNow(), func(ev Event) { got = append(got, ev) }); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if len(got) != 1 || got[0].Registration.FD != 1 || got[0].Readiness != InterestRead {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestMemorySelectorBlockForTimesOutWithoutEvent(t *testing.T) {
	s := NewMemorySelector()

	start := time.Now()
	if err := s.Wait(BlockFor(30*time.Millisecond), func(Event) {
		t.Fatal("no event should have been delivered")
	}); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("expected Wait to actually block, elapsed %v", elapsed)
	}
}

func TestMemorySelectorWakeupUnblocksBlockingWait(t *testing.T) {
	s := NewMemorySelector()

	done := make(chan struct{})
	go func() {
		_ = s.Wait(Block(), func(Event) {})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := s.Wakeup(); err != nil {
		t.Fatalf("Wakeup: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wakeup did not unblock Wait")
	}
}

func TestMemorySelectorDeregisterDropsEvents(t *testing.T) {
	s := NewMemorySelector()
	reg := &Registration{FD: 7}
	_ = s.Register(reg, InterestRead)
	_ = s.Deregister(reg)

	s.Trigger(7, InterestRead)

	called := false
	if err := s.Wait(PollNow(), func(Event) { called = true }); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if called {
		t.Fatal("expected no event for a deregistered fd")
	}
}
