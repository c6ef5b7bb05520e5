// Package prometheus adapts metrics.Metrics to Prometheus collectors.
// Grounded on Swind-go-task-runner's
// observability/prometheus/metrics_exporter.go, with labels rekeyed from
// "runner name" to "loop index" to fit EventLoopGroup's fixed N worker
// threads.
package prometheus

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Swind/go-eventloop/metrics"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// Exporter adapts metrics.Metrics to Prometheus collectors.
type Exporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	queueDepth          *prom.GaugeVec
	selectorWaitSeconds *prom.HistogramVec
}

var _ metrics.Metrics = (*Exporter)(nil)

// NewExporter creates and registers Prometheus collectors backing a
// metrics.Metrics implementation.
func NewExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*Exporter, error) {
	if namespace == "" {
		namespace = "eventloop"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"loop"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of recovered task panics.",
	}, []string{"loop"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current TimerQueue depth.",
	}, []string{"loop"})
	selectorWaitVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "selector_wait_seconds",
		Help:      "Selector.Wait call duration in seconds.",
		Buckets:   buckets,
	}, []string{"loop", "strategy"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if selectorWaitVec, err = registerCollector(reg, selectorWaitVec); err != nil {
		return nil, err
	}

	return &Exporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		queueDepth:          queueDepthVec,
		selectorWaitSeconds: selectorWaitVec,
	}, nil
}

func (e *Exporter) RecordTaskDuration(loopIdx int, d time.Duration) {
	if e == nil {
		return
	}
	e.taskDurationSeconds.WithLabelValues(loopLabel(loopIdx)).Observe(d.Seconds())
}

func (e *Exporter) RecordTaskPanic(loopIdx int) {
	if e == nil {
		return
	}
	e.taskPanicTotal.WithLabelValues(loopLabel(loopIdx)).Inc()
}

func (e *Exporter) RecordQueueDepth(loopIdx int, depth int) {
	if e == nil {
		return
	}
	e.queueDepth.WithLabelValues(loopLabel(loopIdx)).Set(float64(depth))
}

func (e *Exporter) RecordSelectorWait(loopIdx int, strategy string, d time.Duration) {
	if e == nil {
		return
	}
	e.selectorWaitSeconds.WithLabelValues(loopLabel(loopIdx), strategy).Observe(d.Seconds())
}

func loopLabel(loopIdx int) string {
	return strconv.Itoa(loopIdx)
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
