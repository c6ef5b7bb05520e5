// Package timerqueue implements ScheduledTask and the min-heap TimerQueue
// that orders tasks by absolute deadline.
package timerqueue

// ScheduledTask is an immutable record of a callable and a failure
// callback, due to run at or after readyTime. Equality is identity, not
// structural: two tasks with the same deadline are still distinct tasks.
type ScheduledTask struct {
	run       func()
	fail      func(error)
	readyTime int64 // absolute deadline in nanoseconds; EventLoop uses wall-clock time.Now().UnixNano()

	seq   int64 // insertion sequence, used to break readyTime ties deterministically
	index int   // position in the heap, maintained by container/heap callbacks; -1 when not queued
}

// NewScheduledTask constructs a ScheduledTask. seq must be unique and
// monotonically increasing across tasks created by the same TimerQueue, to
// guarantee a stable tie-break order.
func NewScheduledTask(run func(), fail func(error), readyTime int64, seq int64) *ScheduledTask {
	return &ScheduledTask{
		run:       run,
		fail:      fail,
		readyTime: readyTime,
		seq:       seq,
		index:     -1,
	}
}

// ReadyTime returns the task's absolute deadline in nanoseconds, on the
// clock the caller supplied it in (EventLoop uses Unix wall-clock
// nanoseconds, which carry no monotonic reading).
func (t *ScheduledTask) ReadyTime() int64 { return t.readyTime }

// Run invokes the task's success callable. Must be invoked at most once.
func (t *ScheduledTask) Run() {
	if t.run != nil {
		t.run()
	}
}

// Fail invokes the task's failure callback with err. Must be invoked at
// most once, and never together with Run.
func (t *ScheduledTask) Fail(err error) {
	if t.fail != nil {
		t.fail(err)
	}
}

// queued reports whether the task is currently linked into a TimerQueue.
func (t *ScheduledTask) queued() bool { return t.index >= 0 }
