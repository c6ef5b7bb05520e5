package prometheus

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExporterRecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewExporter("eventloop", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}

	exporter.RecordTaskDuration(0, 50*time.Millisecond)
	exporter.RecordTaskPanic(0)
	exporter.RecordQueueDepth(0, 3)
	exporter.RecordSelectorWait(0, "block-for", 10*time.Millisecond)

	if got := testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("0")); got != 1 {
		t.Fatalf("task panic total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.queueDepth.WithLabelValues("0")); got != 3 {
		t.Fatalf("queue depth = %v, want 3", got)
	}
}

func TestExporterAlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewExporter("eventloop", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewExporter: %v", err)
	}
	second, err := NewExporter("eventloop", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewExporter: %v", err)
	}

	first.RecordTaskPanic(1)
	if got := testutil.ToFloat64(second.taskPanicTotal.WithLabelValues("1")); got != 1 {
		t.Fatalf("expected the second exporter to observe the first's writes through the shared registry, got %v", got)
	}
}

func TestExporterNilReceiverIsNoop(t *testing.T) {
	var exporter *Exporter
	exporter.RecordTaskDuration(0, time.Second)
	exporter.RecordTaskPanic(0)
	exporter.RecordQueueDepth(0, 1)
	exporter.RecordSelectorWait(0, "block", time.Second)
}
