package eventloop

import (
	"time"

	"github.com/Swind/go-eventloop/promise"
	"github.com/Swind/go-eventloop/timerqueue"
)

// Scheduled is the handle returned by EventLoop.ScheduleTask: a Future for
// the task's eventual result plus the ability to cancel it before it runs.
type Scheduled struct {
	future *promise.Future
	loop   *EventLoop
	task   *timerqueue.ScheduledTask
}

// Future returns the Future that will settle with the task's outcome, or
// with ErrCancelled if Cancel wins the race against execution.
func (s *Scheduled) Future() *promise.Future { return s.future }

// Cancel attempts to remove the task before it runs. Safe to call from any
// goroutine: the actual removal always happens on the bound loop's worker
// thread, so it can never race the loop's own TimerQueue access. If the
// task has already been popped for execution (or already ran) by the time
// the cancellation reaches the loop, Cancel has no effect and the task
// runs to completion as normal.
func (s *Scheduled) Cancel() {
	if s.task == nil {
		return
	}
	// Posted via enqueue, not the public Execute, so cancellation keeps
	// working during the closing window too — Execute now rejects any
	// call once the loop has left stateOpen.
	s.loop.enqueue(func() {
		s.loop.timersMu.Lock()
		removed := s.loop.timers.Remove(s.task)
		s.loop.timersMu.Unlock()
		if removed {
			s.task.Fail(ErrCancelled)
		}
	}, time.Now().UnixNano())
}
