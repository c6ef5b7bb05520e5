package eventloop

import (
	"github.com/Swind/go-eventloop/logging"
	"github.com/Swind/go-eventloop/metrics"
	"github.com/Swind/go-eventloop/selector"
)

// SelectorFactory builds the Selector for one EventLoop, given the loop's
// index within its group (0-based). Exists so an EventLoopGroup can hand
// each loop its own Selector instance without the group needing to know
// how a Selector is constructed.
type SelectorFactory func(loopIdx int) (selector.Selector, error)

// Queue is an off-loop executor used to deliver the final notification of
// a graceful shutdown, since the loop that just terminated cannot use its
// own task queue to tell the world it is dead. Defaults to running the
// function on a new goroutine.
type Queue func(fn func())

// Config holds construction-time options for a single EventLoop.
// Grounded on Swind-go-task-runner's core/interfaces.go
// TaskSchedulerConfig/DefaultTaskSchedulerConfig shape: a plain struct of
// optional collaborators with a constructor filling in defaults.
type Config struct {
	// Logger receives structured log events for lifecycle transitions,
	// panics, and selector errors. Defaults to a NoOpLogger.
	Logger logging.Logger

	// Metrics receives queue-depth, task-duration, panic, and
	// selector-wait measurements. Defaults to metrics.NilMetrics.
	Metrics metrics.Metrics

	// NewSelector builds the Selector this loop will drive. Defaults to
	// selector.NewMemorySelector wrapped to ignore loopIdx, since the
	// memory selector needs no fd; production callers wanting the epoll
	// Selector pass selector.NewEpollSelector (ignoring loopIdx) instead.
	NewSelector SelectorFactory

	// WorkerNamePattern is a fmt.Sprintf pattern taking the loop's index,
	// used to name the worker thread/goroutine for diagnostics.
	WorkerNamePattern string

	// TimerDrainBatchSize bounds how many due tasks drainTimers collects
	// per lock acquisition, so a tick with a large backlog of immediately
	// ready work releases the TimerQueue's mutex periodically instead of
	// holding it for one unbounded pop-everything pass. Defaults to
	// defaultTimerDrainBatchSize.
	TimerDrainBatchSize int
}

// defaultTimerDrainBatchSize is the batch size DefaultConfig fills in.
const defaultTimerDrainBatchSize = 256

// DefaultConfig returns a Config with sane defaults: no-op logging and
// metrics, and an in-memory Selector (safe on every platform, the right
// choice unless the caller specifically wants epoll-backed I/O).
func DefaultConfig() Config {
	return Config{
		Logger:              logging.NewNoOpLogger(),
		Metrics:             metrics.NilMetrics{},
		NewSelector:         func(int) (selector.Selector, error) { return selector.NewMemorySelector(), nil },
		WorkerNamePattern:   "eventloop-worker-%d",
		TimerDrainBatchSize: defaultTimerDrainBatchSize,
	}
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = logging.NewNoOpLogger()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NilMetrics{}
	}
	if c.NewSelector == nil {
		c.NewSelector = func(int) (selector.Selector, error) { return selector.NewMemorySelector(), nil }
	}
	if c.WorkerNamePattern == "" {
		c.WorkerNamePattern = "eventloop-worker-%d"
	}
	if c.TimerDrainBatchSize <= 0 {
		c.TimerDrainBatchSize = defaultTimerDrainBatchSize
	}
	return c
}

// GroupConfig holds construction-time options for an EventLoopGroup.
type GroupConfig struct {
	Config

	// ShutdownQueue is the off-loop executor used to deliver the group's
	// final shutdown callback. Defaults to running it on a new goroutine.
	ShutdownQueue Queue
}

// DefaultGroupConfig returns a GroupConfig with sane defaults.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{
		Config:        DefaultConfig(),
		ShutdownQueue: func(fn func()) { go fn() },
	}
}

func (c GroupConfig) withDefaults() GroupConfig {
	c.Config = c.Config.withDefaults()
	if c.ShutdownQueue == nil {
		c.ShutdownQueue = func(fn func()) { go fn() }
	}
	return c
}
