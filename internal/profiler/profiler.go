// Package profiler records wall-clock time spent in declared operations and
// renders a plain-text report. Only operations declared when the Profiler is
// built are timed; decorators such as page.TimedFetcher refuse to wrap an
// operation the profiler does not know about.
package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// ErrNotProfiled is returned when a decorator is built for an undeclared operation
var ErrNotProfiled = errors.New("operation is not declared for profiling")

// Operation identifies a timed method by its declaring type and method name
type Operation struct {
	Type   string
	Method string
}

func (o Operation) String() string {
	return o.Type + "#" + o.Method
}

// Profiler accumulates total invocation time per operation
type Profiler struct {
	now       func() time.Time
	startTime time.Time
	declared  map[Operation]struct{}

	mu     sync.Mutex
	totals map[Operation]time.Duration
}

// New creates a profiler that times the given operations. now is the clock
// used both for the report header and for measuring calls.
func New(now func() time.Time, ops ...Operation) *Profiler {
	if now == nil {
		now = time.Now
	}
	declared := make(map[Operation]struct{}, len(ops))
	for _, op := range ops {
		declared[op] = struct{}{}
	}
	return &Profiler{
		now:       now,
		startTime: now(),
		declared:  declared,
		totals:    make(map[Operation]time.Duration),
	}
}

// Profiled reports whether op was declared for timing
func (p *Profiler) Profiled(op Operation) bool {
	_, ok := p.declared[op]
	return ok
}

// Start begins timing op and returns the function that stops the timer.
// Calls for undeclared operations are not recorded.
func (p *Profiler) Start(op Operation) func() {
	if !p.Profiled(op) {
		return func() {}
	}
	start := p.now()
	return func() {
		p.Record(op, p.now().Sub(start))
	}
}

// Record adds d to the total for op
func (p *Profiler) Record(op Operation, d time.Duration) {
	if !p.Profiled(op) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totals[op] += d
}

// Total returns the accumulated time for op
func (p *Profiler) Total(op Operation) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals[op]
}

// StartTime returns the time the profiler was created
func (p *Profiler) StartTime() time.Time {
	return p.startTime
}

// WriteData writes the report: a "Run at" header followed by one line per
// recorded operation, sorted by operation name.
func (p *Profiler) WriteData(w io.Writer) error {
	p.mu.Lock()
	ops := make([]Operation, 0, len(p.totals))
	for op := range p.totals {
		ops = append(ops, op)
	}
	totals := make(map[Operation]time.Duration, len(p.totals))
	for op, d := range p.totals {
		totals[op] = d
	}
	p.mu.Unlock()

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].String() < ops[j].String()
	})

	if _, err := fmt.Fprintf(w, "Run at %s\n", p.startTime.Format(time.RFC1123)); err != nil {
		return fmt.Errorf("failed to write profile header: %w", err)
	}
	for _, op := range ops {
		if _, err := fmt.Fprintf(w, "%s took %s\n", op, formatDuration(totals[op])); err != nil {
			return fmt.Errorf("failed to write profile entry: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return fmt.Errorf("failed to write profile footer: %w", err)
	}
	return nil
}

// WriteFile appends the report to the file at path, creating it if needed
func (p *Profiler) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open profile output: %w", err)
	}
	if err := p.WriteData(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// formatDuration renders d as "<minutes>m <seconds>s <millis>ms"
func formatDuration(d time.Duration) string {
	minutes := int64(d / time.Minute)
	seconds := int64((d % time.Minute) / time.Second)
	millis := int64((d % time.Second) / time.Millisecond)
	return fmt.Sprintf("%dm %ds %dms", minutes, seconds, millis)
}
