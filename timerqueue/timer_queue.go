package timerqueue

import "container/heap"

// TimerQueue is a binary min-heap of *ScheduledTask ordered by readyTime,
// with insertion sequence as a stable tie-break, plus an identity index
// enabling O(log n) removal of a specific task. It is not thread-safe on
// its own; callers (EventLoop) guard it with their own mutex, held only
// across enqueue/dequeue/remove, never across task execution.
type TimerQueue struct {
	h    taskHeap
	next int64
}

// NewTimerQueue creates an empty TimerQueue.
func NewTimerQueue() *TimerQueue {
	q := &TimerQueue{}
	heap.Init(&q.h)
	return q
}

// NextSeq returns the next insertion sequence number and advances the
// counter. Callers use this to construct ScheduledTask values with a
// stable tie-break before pushing them.
func (q *TimerQueue) NextSeq() int64 {
	seq := q.next
	q.next++
	return seq
}

// Push inserts a task into the queue.
func (q *TimerQueue) Push(t *ScheduledTask) {
	heap.Push(&q.h, t)
}

// Peek returns the task with the smallest readyTime without removing it,
// or nil if the queue is empty.
func (q *TimerQueue) Peek() *ScheduledTask {
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0]
}

// Pop removes and returns the task with the smallest readyTime, or nil if
// the queue is empty.
func (q *TimerQueue) Pop() *ScheduledTask {
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*ScheduledTask)
}

// Remove removes t from the queue if it is still present, reporting
// whether it was found. Safe to call with a task that has already been
// popped or was never pushed: it is simply a no-op in that case.
func (q *TimerQueue) Remove(t *ScheduledTask) bool {
	if !t.queued() || t.index < 0 || t.index >= len(q.h) || q.h[t.index] != t {
		return false
	}
	heap.Remove(&q.h, t.index)
	return true
}

// Len returns the number of tasks currently queued.
func (q *TimerQueue) Len() int { return len(q.h) }

// taskHeap implements container/heap.Interface over *ScheduledTask,
// ordered by (readyTime, seq).
type taskHeap []*ScheduledTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].readyTime != h[j].readyTime {
		return h[i].readyTime < h[j].readyTime
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*ScheduledTask)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
