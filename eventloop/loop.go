// Package eventloop implements the single-worker-thread EventLoop and the
// fixed-size EventLoopGroup that owns a set of them, generalized from
// Swind-go-task-runner's core.SingleThreadTaskRunner (dedicated-goroutine
// sequential execution) into a loop that additionally multiplexes I/O
// readiness through a selector.Selector and serializes delayed work
// through a single timerqueue.TimerQueue.
package eventloop

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Swind/go-eventloop/clock"
	"github.com/Swind/go-eventloop/logging"
	"github.com/Swind/go-eventloop/metrics"
	"github.com/Swind/go-eventloop/promise"
	"github.com/Swind/go-eventloop/selector"
	"github.com/Swind/go-eventloop/timerqueue"
)

const (
	stateOpen int32 = iota
	stateClosing
	stateClosed
)

// EventLoop owns one worker goroutine, one Selector, and one TimerQueue.
// It implements promise.Loop, so Promises created through it deliver
// their callbacks under the rule described in that package.
type EventLoop struct {
	idx            int
	name           string
	logger         logging.Logger
	metrics        metrics.Metrics
	sel            selector.Selector
	registry       *promise.Registry
	drainBatchSize int

	timersMu sync.Mutex
	timers   *timerqueue.TimerQueue

	chMu     sync.Mutex
	channels map[*selector.Registration]Channel

	closingMu      sync.Mutex
	closingPromise *promise.Promise

	state               atomic.Int32
	loopGoroutineID     atomic.Uint64
	done                chan struct{}
	selectorCloseFailed atomic.Bool
}

var _ promise.Loop = (*EventLoop)(nil)

// maxWorkerNameBytes bounds the worker thread name to the limit
// pthread_setname_np imposes on Linux (16 bytes including the trailing
// NUL), so the name stays valid once setWorkerThreadName hands it to the
// kernel.
const maxWorkerNameBytes = 15

// New constructs an EventLoop and immediately starts its worker goroutine.
func New(idx int, config Config) (*EventLoop, error) {
	config = config.withDefaults()
	sel, err := config.NewSelector(idx)
	if err != nil {
		return nil, fmt.Errorf("eventloop: building selector: %w", err)
	}

	l := &EventLoop{
		idx:            idx,
		name:           truncateWorkerName(fmt.Sprintf(config.WorkerNamePattern, idx)),
		logger:         config.Logger,
		metrics:        config.Metrics,
		sel:            sel,
		registry:       promise.NewRegistry(),
		drainBatchSize: config.TimerDrainBatchSize,
		timers:         timerqueue.NewTimerQueue(),
		channels:       make(map[*selector.Registration]Channel),
		done:           make(chan struct{}),
	}
	l.state.Store(stateOpen)

	go l.run()
	return l, nil
}

// Name returns the loop's worker thread name, assigned at construction
// from Config.WorkerNamePattern.
func (l *EventLoop) Name() string { return l.name }

// InEventLoop reports whether the calling goroutine is this loop's
// worker goroutine.
func (l *EventLoop) InEventLoop() bool {
	id := l.loopGoroutineID.Load()
	return id != 0 && id == currentGoroutineID()
}

func (l *EventLoop) assertOnLoop() {
	if !l.InEventLoop() {
		panic("eventloop: operation requires the loop's own worker goroutine")
	}
}

// Execute enqueues fn as an immediate task. Safe to call from any
// goroutine; fn will run on this loop's worker goroutine. Dropped with a
// warning once the loop has left the open state, consistently with
// Submit/ScheduleTask rejecting in the same window — Execute has no
// Future through which to report the rejection.
func (l *EventLoop) Execute(fn func()) {
	if l.state.Load() != stateOpen {
		l.logger.Warn("eventloop: Execute dropped after shutdown")
		return
	}
	l.enqueue(fn, time.Now().UnixNano())
}

func (l *EventLoop) enqueue(fn func(), readyTime int64) *timerqueue.ScheduledTask {
	l.timersMu.Lock()
	seq := l.timers.NextSeq()
	task := timerqueue.NewScheduledTask(fn, nil, readyTime, seq)
	l.timers.Push(task)
	depth := l.timers.Len()
	l.timersMu.Unlock()

	l.metrics.RecordQueueDepth(l.idx, depth)
	if !l.InEventLoop() {
		l.wakeupOrRetry()
	}
	return task
}

// wakeupOrRetry asks the Selector to wake a blocked Wait. A Wakeup failure
// is logged, never panicked into the caller's goroutine — the caller may
// not be this loop's own worker, and a panic there would crash unrelated
// code. If the immediate call fails, a background retry keeps trying
// until it succeeds or the loop has already finished running, so the
// worker goroutine can never be left blocked in Wait forever over a
// single transient failure.
func (l *EventLoop) wakeupOrRetry() {
	err := l.sel.Wakeup()
	if err == nil {
		return
	}
	l.logger.Error("eventloop: wakeup failed, retrying in background", logging.F("error", err))
	go l.retryWakeup()
}

func (l *EventLoop) retryWakeup() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			if err := l.sel.Wakeup(); err != nil {
				l.logger.Error("eventloop: wakeup retry failed", logging.F("error", err))
				continue
			}
			return
		}
	}
}

// Submit wraps fn as an immediate task, returning a Future for its
// eventual outcome. Rejects with ErrShutdown once the loop has left the
// open state.
func (l *EventLoop) Submit(fn func() (any, error)) *promise.Future {
	if l.state.Load() != stateOpen {
		return promise.Failed(l, ErrShutdown)
	}
	p, run := l.wrapTask(fn)
	l.enqueue(run, time.Now().UnixNano())
	return p.Future()
}

// ScheduleTask wraps fn as a task due no earlier than now+in, returning a
// handle exposing both its Future and a Cancel operation.
func (l *EventLoop) ScheduleTask(in clock.TimeAmount, fn func() (any, error)) *Scheduled {
	if l.state.Load() != stateOpen {
		p := promise.New(l, nil, l.logger)
		p.Fail(ErrShutdown)
		return &Scheduled{future: p.Future(), loop: l}
	}
	p, run := l.wrapTask(fn)
	readyTime := time.Now().Add(in.Duration()).UnixNano()

	l.timersMu.Lock()
	seq := l.timers.NextSeq()
	task := timerqueue.NewScheduledTask(run, func(err error) { p.Fail(err) }, readyTime, seq)
	l.timers.Push(task)
	depth := l.timers.Len()
	l.timersMu.Unlock()

	l.metrics.RecordQueueDepth(l.idx, depth)
	if !l.InEventLoop() {
		l.wakeupOrRetry()
	}
	return &Scheduled{future: p.Future(), loop: l, task: task}
}

// NewPromise creates a Promise bound to this loop, tracked by the loop's
// debug registry so a shutdown can fail it if still pending.
func (l *EventLoop) NewPromise() *promise.Promise {
	return promise.New(l, l.registry, l.logger)
}

// NewSucceededFuture returns a Future already fulfilled with value.
func (l *EventLoop) NewSucceededFuture(value any) *promise.Future {
	return promise.Succeeded(l, value)
}

// NewFailedFuture returns a Future already failed with err.
func (l *EventLoop) NewFailedFuture(err error) *promise.Future {
	return promise.Failed(l, err)
}

// wrapTask adapts a fallible callable into a ScheduledTask run closure
// that resolves p, recovering any panic into a *PanicError failure and
// recording duration/panic metrics uniformly for immediate and delayed
// tasks alike.
func (l *EventLoop) wrapTask(fn func() (any, error)) (*promise.Promise, func()) {
	p := l.NewPromise()
	run := func() {
		start := time.Now()
		defer func() {
			l.metrics.RecordTaskDuration(l.idx, time.Since(start))
			if r := recover(); r != nil {
				l.metrics.RecordTaskPanic(l.idx)
				p.Fail(&PanicError{Value: r})
			}
		}()
		value, err := fn()
		if err != nil {
			p.Fail(err)
			return
		}
		p.Succeed(value)
	}
	return p, run
}

// Register begins dispatching readiness events to ch. Must be called from
// this loop's worker goroutine.
func (l *EventLoop) Register(ch Channel) error {
	l.assertOnLoop()
	reg := ch.Registration()
	if err := l.sel.Register(reg, ch.Interest()); err != nil {
		return err
	}
	l.chMu.Lock()
	l.channels[reg] = ch
	l.chMu.Unlock()
	return nil
}

// Deregister stops dispatching readiness events to ch. Must be called
// from this loop's worker goroutine.
func (l *EventLoop) Deregister(ch Channel) error {
	l.assertOnLoop()
	reg := ch.Registration()
	l.chMu.Lock()
	delete(l.channels, reg)
	remaining := len(l.channels)
	l.chMu.Unlock()

	err := l.sel.Deregister(reg)
	l.maybeResolveClosing(remaining)
	return err
}

// Reregister changes ch's interest set. Must be called from this loop's
// worker goroutine.
func (l *EventLoop) Reregister(ch Channel) error {
	l.assertOnLoop()
	return l.sel.Reregister(ch.Registration(), ch.Interest())
}

// CloseGently transitions the loop from open to closing and returns a
// Future that resolves once every registered channel has been
// deregistered. Returns an already-failed Future with ErrAlreadyClosed if
// the loop was not open.
func (l *EventLoop) CloseGently() *promise.Future {
	if !l.state.CompareAndSwap(stateOpen, stateClosing) {
		return promise.Failed(l, ErrAlreadyClosed)
	}

	p := promise.New(l, nil, l.logger)
	l.closingMu.Lock()
	l.closingPromise = p
	l.closingMu.Unlock()

	// Posted via enqueue, not the public Execute, since Execute now
	// rejects once the loop has left stateOpen — this probe runs
	// precisely because the loop just transitioned to stateClosing.
	l.enqueue(func() {
		l.chMu.Lock()
		empty := len(l.channels) == 0
		l.chMu.Unlock()
		if empty {
			l.resolveClosing()
		}
	}, time.Now().UnixNano())
	return p.Future()
}

func (l *EventLoop) maybeResolveClosing(remainingChannels int) {
	if remainingChannels == 0 && l.state.Load() == stateClosing {
		l.resolveClosing()
	}
}

func (l *EventLoop) resolveClosing() {
	l.closingMu.Lock()
	p := l.closingPromise
	l.closingMu.Unlock()
	if p != nil {
		p.Succeed(nil)
	}
}

// terminate transitions the loop straight to closed and wakes the worker
// goroutine so it can observe the transition and exit its run loop.
func (l *EventLoop) terminate() {
	l.state.Store(stateClosed)
	l.wakeupOrRetry()
}

// ShutdownGracefully closes gently, waits for the drain to finish, then
// terminates the loop, delivering callback's result on queue once the
// worker goroutine has actually exited — since the loop cannot deliver
// its own death notice through its own Future machinery.
func (l *EventLoop) ShutdownGracefully(queue Queue, callback func(error)) {
	if queue == nil {
		queue = func(fn func()) { go fn() }
	}
	closing := l.CloseGently()
	go func() {
		_, err := closing.Wait()
		l.terminate()
		<-l.done
		if err == nil && l.closeFailed() {
			err = ErrShutdownFailed
		}
		queue(func() { callback(err) })
	}()
}

func truncateWorkerName(name string) string {
	if len(name) <= maxWorkerNameBytes {
		return name
	}
	return name[:maxWorkerNameBytes]
}

// run is the loop's entire worker goroutine body.
func (l *EventLoop) run() {
	l.loopGoroutineID.Store(currentGoroutineID())
	if err := setWorkerThreadName(l.name); err != nil {
		l.logger.Warn("eventloop: setting worker thread name failed", logging.F("error", err))
	}
	defer l.finish()

	for l.state.Load() != stateClosed {
		l.tick()
	}
}

func (l *EventLoop) tick() {
	strategy := l.computeStrategy()

	waitStart := time.Now()
	if err := l.sel.Wait(strategy, l.dispatchEvent); err != nil {
		l.logger.Error("eventloop: selector wait failed", logging.F("error", err))
	}
	l.metrics.RecordSelectorWait(l.idx, strategyLabel(strategy.Kind), time.Since(waitStart))

	l.drainTimers()
}

func (l *EventLoop) computeStrategy() selector.Strategy {
	l.timersMu.Lock()
	next := l.timers.Peek()
	l.timersMu.Unlock()

	if next == nil {
		return selector.Block()
	}
	now := time.Now().UnixNano()
	if next.ReadyTime() <= now {
		return selector.PollNow()
	}
	return selector.BlockFor(time.Duration(next.ReadyTime() - now))
}

func (l *EventLoop) dispatchEvent(ev selector.Event) {
	ch, ok := l.channelFor(ev.Registration)
	if !ok {
		return
	}

	if ev.Readiness&selector.InterestWrite != 0 {
		ch.OnWritable()
		if !ch.Open() {
			l.dropChannel(ch)
			return
		}
	}
	if ev.Readiness&selector.InterestRead != 0 {
		ch.OnReadable()
		if !ch.Open() {
			l.dropChannel(ch)
		}
	}
}

func (l *EventLoop) channelFor(reg *selector.Registration) (Channel, bool) {
	l.chMu.Lock()
	defer l.chMu.Unlock()
	ch, ok := l.channels[reg]
	return ch, ok
}

func (l *EventLoop) dropChannel(ch Channel) {
	reg := ch.Registration()
	l.chMu.Lock()
	delete(l.channels, reg)
	remaining := len(l.channels)
	l.chMu.Unlock()

	if err := l.sel.Deregister(reg); err != nil {
		l.logger.Warn("eventloop: deregister on close failed", logging.F("error", err))
	}
	l.maybeResolveClosing(remaining)
}

// drainTimers repeatedly pops and runs every task whose deadline is at or
// before a single snapshot of now taken when the drain starts. A task
// added during the drain that is already due by that snapshot is caught
// by a later pass of the same drain; one due only after it (such as a
// task that resubmits itself via Execute) waits for the next tick, so the
// Selector is consulted between such resubmissions. Each pass collects at
// most drainBatchSize tasks per TimerQueue lock acquisition, releasing the
// lock between batches rather than holding it for one unbounded
// pop-everything pass when a large backlog is due at once.
func (l *EventLoop) drainTimers() {
	now := time.Now().UnixNano()
	for {
		l.timersMu.Lock()
		var batch []*timerqueue.ScheduledTask
		for len(batch) < l.drainBatchSize {
			next := l.timers.Peek()
			if next == nil || next.ReadyTime() > now {
				break
			}
			batch = append(batch, l.timers.Pop())
		}
		depth := l.timers.Len()
		l.timersMu.Unlock()

		l.metrics.RecordQueueDepth(l.idx, depth)
		if len(batch) == 0 {
			return
		}
		for _, t := range batch {
			t.Run()
		}
	}
}

// finish runs once, after run's loop exits: every task still queued fails
// with ErrShutdown, every still-pending registered promise is rejected,
// and the Selector is closed.
func (l *EventLoop) finish() {
	l.timersMu.Lock()
	var remaining []*timerqueue.ScheduledTask
	for l.timers.Len() > 0 {
		remaining = append(remaining, l.timers.Pop())
	}
	l.timersMu.Unlock()

	for _, t := range remaining {
		t.Fail(ErrShutdown)
	}
	l.registry.RejectAll(ErrShutdown)

	if err := l.sel.Close(); err != nil {
		l.logger.Error("eventloop: selector close failed", logging.F("error", err))
		l.selectorCloseFailed.Store(true)
	}
	close(l.done)
}

// closeFailed reports whether this loop's Selector failed to close during
// finish. Only meaningful after l.done has been closed.
func (l *EventLoop) closeFailed() bool { return l.selectorCloseFailed.Load() }

func strategyLabel(kind selector.StrategyKind) string {
	switch kind {
	case selector.StrategyBlock:
		return "block"
	case selector.StrategyPollNow:
		return "poll-now"
	case selector.StrategyBlockFor:
		return "block-for"
	default:
		return "unknown"
	}
}
