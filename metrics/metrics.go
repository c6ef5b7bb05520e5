// Package metrics defines the observability interface EventLoop and
// EventLoopGroup report through, generalized from
// Swind-go-task-runner's core.Metrics (task-runner-name-keyed) to the
// per-loop-index keying that fits N independent worker threads.
package metrics

import "time"

// Metrics collects event-loop execution metrics. All methods must be
// non-blocking and safe to call from the loop's worker thread on every
// tick; implementations should treat a nil receiver as a no-op, mirroring
// Swind-go-task-runner's core.Metrics contract.
type Metrics interface {
	// RecordTaskDuration records how long one task took to run on the
	// loop identified by loopIdx.
	RecordTaskDuration(loopIdx int, d time.Duration)

	// RecordTaskPanic records that a task on loopIdx panicked and was
	// recovered.
	RecordTaskPanic(loopIdx int)

	// RecordQueueDepth records the current TimerQueue depth for loopIdx.
	RecordQueueDepth(loopIdx int, depth int)

	// RecordSelectorWait records how long one Selector.Wait call blocked
	// for, tagged with the strategy that was used ("block", "poll-now",
	// "block-for").
	RecordSelectorWait(loopIdx int, strategy string, d time.Duration)
}

// NilMetrics is the default no-op Metrics implementation.
type NilMetrics struct{}

func (NilMetrics) RecordTaskDuration(loopIdx int, d time.Duration)                  {}
func (NilMetrics) RecordTaskPanic(loopIdx int)                                     {}
func (NilMetrics) RecordQueueDepth(loopIdx int, depth int)                          {}
func (NilMetrics) RecordSelectorWait(loopIdx int, strategy string, d time.Duration) {}
