package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("typeset_initial", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("typeset_initial", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.IncWatchRebuild("change")
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("x", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("x", ResultFatal)
	r.IncBuildOutcome("failed")
	r.IncWatchRebuild("schedule")
}
