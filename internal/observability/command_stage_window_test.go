package observability

import "testing"

func TestCommandStageWindowSnapshot(t *testing.T) {
	w := newCommandStageWindow(8)
	w.Observe("command_total", 50)
	w.Observe("command_total", 70)
	w.Observe("command_total", 90)
	w.ObserveIndicator("window_timeout")
	w.ObserveIndicator("window_timeout")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != "command_total" {
		t.Fatalf("Stage = %q, want %q", s.Stage, "command_total")
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 90 {
		t.Fatalf("LastMS = %.2f, want 90", s.LastMS)
	}
	if s.P50MS != 70 {
		t.Fatalf("P50MS = %.2f, want 70", s.P50MS)
	}
	if s.P95MS <= 70 || s.P95MS > 90 {
		t.Fatalf("P95MS = %.2f, want (70,90]", s.P95MS)
	}
	if s.TargetP95MS != 200 {
		t.Fatalf("TargetP95MS = %.2f, want 200", s.TargetP95MS)
	}
	if s.OverTargetPct != 0 {
		t.Fatalf("OverTargetPct = %.2f, want 0 (all samples under target)", s.OverTargetPct)
	}
	if len(snap.Indicators) != 1 {
		t.Fatalf("len(Indicators) = %d, want 1", len(snap.Indicators))
	}
	if snap.Indicators[0].Name != "window_timeout" {
		t.Fatalf("Indicators[0].Name = %q, want %q", snap.Indicators[0].Name, "window_timeout")
	}
	if snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators[0].Count = %d, want %d", snap.Indicators[0].Count, 2)
	}
}

func TestCommandStageWindowRollover(t *testing.T) {
	w := newCommandStageWindow(4)
	for i := 0; i < 10; i++ {
		w.Observe("transcript_to_intent", float64(i))
	}
	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Samples != 4 {
		t.Fatalf("Samples = %d, want 4", s.Samples)
	}
	if s.LastMS != 9 {
		t.Fatalf("LastMS = %.2f, want 9", s.LastMS)
	}
	// Window holds 6..9ms against the 5ms target.
	if s.OverTargetPct != 100 {
		t.Fatalf("OverTargetPct = %.2f, want 100", s.OverTargetPct)
	}
}

func TestCommandStageWindowOverTargetShare(t *testing.T) {
	w := newCommandStageWindow(8)
	w.Observe("transcript_to_intent", 2)
	w.Observe("transcript_to_intent", 3)
	w.Observe("transcript_to_intent", 12)
	w.Observe("transcript_to_intent", 40)

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.TargetP95MS != 5 {
		t.Fatalf("TargetP95MS = %.2f, want 5", s.TargetP95MS)
	}
	if s.OverTargetPct != 50 {
		t.Fatalf("OverTargetPct = %.2f, want 50", s.OverTargetPct)
	}
}
