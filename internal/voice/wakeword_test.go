package voice

import "testing"

func TestWakeWordGateExactMatch(t *testing.T) {
	g := NewWakeWordGate("ayonix", false, 0.84)

	hit, remainder := g.Detect("Ayonix show dashboard")
	if !hit {
		t.Fatalf("Detect() hit = false, want true")
	}
	if remainder != "show dashboard" {
		t.Fatalf("remainder = %q, want %q", remainder, "show dashboard")
	}

	hit, remainder = g.Detect("Ayonix, show dashboard")
	if !hit || remainder != "show dashboard" {
		t.Fatalf("Detect() = (%v, %q), want (true, %q)", hit, remainder, "show dashboard")
	}
}

func TestWakeWordGateBareWakeWord(t *testing.T) {
	g := NewWakeWordGate("ayonix", false, 0.84)
	hit, remainder := g.Detect("ayonix")
	if !hit {
		t.Fatalf("Detect() hit = false, want true")
	}
	if remainder != "" {
		t.Fatalf("remainder = %q, want empty", remainder)
	}
}

func TestWakeWordGateIgnoresUnrelatedSpeech(t *testing.T) {
	g := NewWakeWordGate("ayonix", true, 0.84)
	for _, text := range []string{
		"show dashboard",
		"the weather is nice today",
		"open settings please",
	} {
		if hit, _ := g.Detect(text); hit {
			t.Fatalf("Detect(%q) hit = true, want false", text)
		}
	}
}

func TestWakeWordGateFuzzyMatch(t *testing.T) {
	g := NewWakeWordGate("ayonix", true, 0.84)
	hit, remainder := g.Detect("ayonics open settings")
	if !hit {
		t.Fatalf("Detect() hit = false, want true")
	}
	if remainder != "open settings" {
		t.Fatalf("remainder = %q, want %q", remainder, "open settings")
	}
}

func TestWakeWordGateFuzzyDisabled(t *testing.T) {
	g := NewWakeWordGate("ayonix", false, 0.84)
	if hit, _ := g.Detect("ayonics open settings"); hit {
		t.Fatalf("Detect() hit = true with fuzzy disabled, want false")
	}
}
