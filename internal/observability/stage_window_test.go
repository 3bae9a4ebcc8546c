package observability

import "testing"

func TestStageWindowSnapshot(t *testing.T) {
	w := newStageWindow(16)
	for _, ms := range []float64{10, 20, 30, 40} {
		w.Observe(StageExecute, ms)
	}
	w.ObserveIndicator(IndicatorCacheHit)
	w.ObserveIndicator(IndicatorCacheHit)

	snap := w.Snapshot()
	if snap.WindowSize != 16 {
		t.Fatalf("WindowSize = %d", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("stages = %d, want 1", len(snap.Stages))
	}
	st := snap.Stages[0]
	if st.Stage != StageExecute || st.Samples != 4 {
		t.Fatalf("stage = %+v", st)
	}
	if st.LastMS != 40 || st.AvgMS != 25 || st.P50MS != 25 {
		t.Fatalf("stats = %+v", st)
	}
	if st.TargetP95MS != 250 {
		t.Fatalf("TargetP95MS = %v", st.TargetP95MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("indicators = %+v", snap.Indicators)
	}
}

func TestStageWindowWraps(t *testing.T) {
	w := newStageWindow(4)
	for i := 0; i < 10; i++ {
		w.Observe(StageTotal, float64(i))
	}
	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("stages = %d", len(snap.Stages))
	}
	st := snap.Stages[0]
	if st.Samples != 4 {
		t.Fatalf("Samples = %d, want window size", st.Samples)
	}
	if st.LastMS != 9 {
		t.Fatalf("LastMS = %v", st.LastMS)
	}
	// Only the most recent four observations survive.
	if st.P50MS < 6 {
		t.Fatalf("P50MS = %v, old samples leaked into the window", st.P50MS)
	}
}

func TestStageWindowIgnoresBadInput(t *testing.T) {
	w := newStageWindow(8)
	w.Observe("", 5)
	w.Observe(StageTotal, -1)
	w.ObserveIndicator("  ")

	snap := w.Snapshot()
	if len(snap.Stages) != 0 || len(snap.Indicators) != 0 {
		t.Fatalf("snapshot = %+v, want empty", snap)
	}
}

func TestQuantileInterpolates(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	if got := quantile(sorted, 0.5); got != 25 {
		t.Fatalf("quantile(0.5) = %v", got)
	}
	if got := quantile(sorted, 0); got != 10 {
		t.Fatalf("quantile(0) = %v", got)
	}
	if got := quantile(sorted, 1); got != 40 {
		t.Fatalf("quantile(1) = %v", got)
	}
	if got := quantile(nil, 0.5); got != 0 {
		t.Fatalf("quantile(nil) = %v", got)
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveStage(StageTotal, 0)
	m.ObserveIndicator(IndicatorTemplateHit)
	if snap := m.SnapshotStages(); len(snap.Stages) != 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
