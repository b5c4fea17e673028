// Package debug provides the tick-budget profiler used by the analysis
// and metronome drivers.
package debug

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FrameBudget is the time one analysis tick may take before it risks
// stalling the display path.
const FrameBudget = 16 * time.Millisecond

// Profiler records durations of named pipeline stages. Disabled it
// costs one atomic load per stage.
type Profiler struct {
	mu      sync.RWMutex
	stages  map[string]*Stats
	budget  time.Duration
	enabled atomic.Bool
}

// Stats holds the accumulated timings of one stage
type Stats struct {
	Count    uint64
	Total    time.Duration
	Min      time.Duration
	Max      time.Duration
	Last     time.Duration
	Overruns uint64 // completions that exceeded the budget
}

// Average returns the mean duration per completion
func (s Stats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// NewProfiler creates an enabled profiler with the standard frame budget
func NewProfiler() *Profiler {
	p := &Profiler{
		stages: make(map[string]*Stats),
		budget: FrameBudget,
	}
	p.enabled.Store(true)
	return p
}

// SetBudget sets the per-stage overrun threshold
func (p *Profiler) SetBudget(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.budget = d
	}
}

// SetEnabled turns measurement on or off
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Start begins timing a named stage. The returned func stops the timer
// and reports whether the stage overran the budget.
func (p *Profiler) Start(name string) func() bool {
	if !p.enabled.Load() {
		return func() bool { return false }
	}

	start := time.Now()
	return func() bool {
		return p.record(name, time.Since(start))
	}
}

func (p *Profiler) record(name string, elapsed time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.stages[name]
	if !ok {
		s = &Stats{Min: elapsed, Max: elapsed}
		p.stages[name] = s
	}

	s.Count++
	s.Total += elapsed
	s.Last = elapsed
	if elapsed < s.Min {
		s.Min = elapsed
	}
	if elapsed > s.Max {
		s.Max = elapsed
	}

	over := elapsed > p.budget
	if over {
		s.Overruns++
	}
	return over
}

// Stage returns a copy of the stats for one stage
func (p *Profiler) Stage(name string) (Stats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.stages[name]
	if !ok {
		return Stats{}, false
	}
	return *s, true
}

// Reset discards all recorded stats
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = make(map[string]*Stats)
}

// Report formats the stats of every stage, sorted by name
func (p *Profiler) Report() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.stages))
	for name := range p.stages {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		s := p.stages[name]
		fmt.Fprintf(&b, "%-16s n=%-8d avg=%-10v min=%-10v max=%-10v overruns=%d\n",
			name, s.Count, s.Average(), s.Min, s.Max, s.Overruns)
	}
	return b.String()
}
