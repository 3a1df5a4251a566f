package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// OperationMetrics aggregates the observed outcomes of one service operation.
type OperationMetrics struct {
	SuccessTotal    int64   `json:"success_total"`
	ErrorTotal      int64   `json:"error_total"`
	DurationMSTotal float64 `json:"duration_ms_total"`
}

var expvarSeq uint64

// ExpvarMetricsRecorder is a MetricsRecorder for deployments that want
// process-local metrics without a scrape endpoint. Counters and total latency
// are aggregated per operation and published through expvar.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]OperationMetrics
}

// NewExpvarMetricsRecorder publishes a recorder under name. An empty name
// gets a generated one, since expvar panics on duplicate registration.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("colonyledger_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]OperationMetrics)}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the aggregated metrics keyed by operation.
func (r *ExpvarMetricsRecorder) Snapshot() map[string]OperationMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]OperationMetrics, len(r.ops))
	for op, m := range r.ops {
		out[op] = m
	}
	return out
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	m := r.ops[operation]
	if success {
		m.SuccessTotal++
	} else {
		m.ErrorTotal++
	}
	m.DurationMSTotal += float64(duration) / float64(time.Millisecond)
	r.ops[operation] = m
	r.mu.Unlock()
}

// JSONTraceEntry is one completed span as emitted by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// JSONTraceTracer is a Tracer that writes finished spans as JSON lines and
// retains them in memory for inspection.
type JSONTraceTracer struct {
	mu    sync.Mutex
	spans []JSONTraceEntry
	enc   *json.Encoder
}

// NewJSONTracer constructs a tracer writing to w. A nil writer retains spans
// without emitting them.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of all finished spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.spans))
	copy(out, t.spans)
	return out
}

// Start implements Tracer. The returned span records itself on End.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	started := time.Now().UTC()
	return ctx, spanFunc(func(err error) {
		t.record(operation, started, err)
	})
}

type spanFunc func(error)

func (f spanFunc) End(err error) { f(err) }

func (t *JSONTraceTracer) record(operation string, started time.Time, err error) {
	entry := JSONTraceEntry{
		Operation:  operation,
		Status:     "success",
		DurationMS: float64(time.Now().UTC().Sub(started)) / float64(time.Millisecond),
		StartedAt:  started,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	t.mu.Lock()
	t.spans = append(t.spans, entry)
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
	t.mu.Unlock()
}
