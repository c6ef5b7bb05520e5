package timerqueue

import "testing"

func pushTask(q *TimerQueue, readyTime int64) *ScheduledTask {
	t := NewScheduledTask(func() {}, func(error) {}, readyTime, q.NextSeq())
	q.Push(t)
	return t
}

func TestOrderingByDeadline(t *testing.T) {
	q := NewTimerQueue()
	a := pushTask(q, 50)
	b := pushTask(q, 10)
	c := pushTask(q, 30)

	if got := q.Pop(); got != b {
		t.Fatalf("expected b first, got deadline %d", got.ReadyTime())
	}
	if got := q.Pop(); got != c {
		t.Fatalf("expected c second, got deadline %d", got.ReadyTime())
	}
	if got := q.Pop(); got != a {
		t.Fatalf("expected a third, got deadline %d", got.ReadyTime())
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got len %d", q.Len())
	}
}

func TestStableTieBreak(t *testing.T) {
	q := NewTimerQueue()
	a := pushTask(q, 100)
	b := pushTask(q, 100)
	c := pushTask(q, 100)

	if got := q.Pop(); got != a {
		t.Fatal("expected insertion order a, b, c for equal deadlines")
	}
	if got := q.Pop(); got != b {
		t.Fatal("expected b second")
	}
	if got := q.Pop(); got != c {
		t.Fatal("expected c third")
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := NewTimerQueue()
	a := pushTask(q, 10)

	if q.Peek() != a {
		t.Fatal("peek should return the earliest task")
	}
	if q.Len() != 1 {
		t.Fatal("peek must not remove the task")
	}
}

func TestRemoveByIdentity(t *testing.T) {
	q := NewTimerQueue()
	a := pushTask(q, 10)
	b := pushTask(q, 20)
	c := pushTask(q, 30)

	if !q.Remove(b) {
		t.Fatal("expected removal of b to succeed")
	}
	if q.Len() != 2 {
		t.Fatalf("expected len 2 after removal, got %d", q.Len())
	}

	// b must not reappear.
	first := q.Pop()
	second := q.Pop()
	if first != a || second != c {
		t.Fatal("expected remaining order a, c after removing b")
	}
}

func TestRemoveAlreadyPoppedIsNoop(t *testing.T) {
	q := NewTimerQueue()
	a := pushTask(q, 10)
	_ = q.Pop()

	if q.Remove(a) {
		t.Fatal("expected Remove on an already-popped task to report false")
	}
}

func TestRemoveNeverPushedIsNoop(t *testing.T) {
	q := NewTimerQueue()
	other := NewScheduledTask(func() {}, func(error) {}, 10, 0)

	if q.Remove(other) {
		t.Fatal("expected Remove on a task never pushed to this queue to report false")
	}
}

func TestIdentityNotStructuralEquality(t *testing.T) {
	q := NewTimerQueue()
	a := pushTask(q, 10)
	b := pushTask(q, 10) // same deadline, distinct task

	if a == b {
		t.Fatal("test setup invariant violated: a and b must be distinct pointers")
	}
	if !q.Remove(b) {
		t.Fatal("expected to remove b specifically, not a lookalike")
	}
	if q.Len() != 1 || q.Peek() != a {
		t.Fatal("removing b must not have affected a")
	}
}
