package debug

import (
	"strings"
	"testing"
	"time"
)

func TestProfilerRecordsStats(t *testing.T) {
	p := NewProfiler()

	for i := 0; i < 3; i++ {
		stop := p.Start("detect")
		time.Sleep(time.Millisecond)
		stop()
	}

	s, ok := p.Stage("detect")
	if !ok {
		t.Fatal("stage not recorded")
	}
	if s.Count != 3 {
		t.Errorf("count = %d, want 3", s.Count)
	}
	if s.Min <= 0 || s.Max < s.Min || s.Average() < s.Min || s.Average() > s.Max {
		t.Errorf("inconsistent stats: min=%v avg=%v max=%v", s.Min, s.Average(), s.Max)
	}
}

func TestProfilerOverruns(t *testing.T) {
	p := NewProfiler()
	p.SetBudget(time.Nanosecond)

	stop := p.Start("tick")
	time.Sleep(time.Millisecond)
	if !stop() {
		t.Error("stage over budget not reported as overrun")
	}

	s, _ := p.Stage("tick")
	if s.Overruns != 1 {
		t.Errorf("overruns = %d, want 1", s.Overruns)
	}
}

func TestProfilerDisabled(t *testing.T) {
	p := NewProfiler()
	p.SetEnabled(false)

	stop := p.Start("detect")
	if stop() {
		t.Error("disabled profiler reported an overrun")
	}
	if _, ok := p.Stage("detect"); ok {
		t.Error("disabled profiler recorded a stage")
	}
}

func TestProfilerReset(t *testing.T) {
	p := NewProfiler()
	p.Start("detect")()
	p.Reset()
	if _, ok := p.Stage("detect"); ok {
		t.Error("stage survived Reset")
	}
}

func TestProfilerReport(t *testing.T) {
	p := NewProfiler()
	p.Start("detect")()
	p.Start("stabilize")()

	report := p.Report()
	if !strings.Contains(report, "detect") || !strings.Contains(report, "stabilize") {
		t.Errorf("report missing stages:\n%s", report)
	}
}
