package sentiment

import "testing"

func TestAnalyzePositive(t *testing.T) {
	res := Analyze("thank you, great job")
	if res.Label != LabelPositive {
		t.Fatalf("label = %q, want %q", res.Label, LabelPositive)
	}
	if res.Score <= 0.2 {
		t.Fatalf("score = %v, want > 0.2", res.Score)
	}
}

func TestAnalyzeNegative(t *testing.T) {
	res := Analyze("this is a terrible problem")
	if res.Label != LabelNegative {
		t.Fatalf("label = %q, want %q", res.Label, LabelNegative)
	}
	if res.Score >= -0.2 {
		t.Fatalf("score = %v, want < -0.2", res.Score)
	}
}

func TestAnalyzeNeutralNoHits(t *testing.T) {
	res := Analyze("the sky is blue")
	if res.Label != LabelNeutral {
		t.Fatalf("label = %q, want %q", res.Label, LabelNeutral)
	}
	if res.Score != 0 {
		t.Fatalf("score = %v, want 0", res.Score)
	}
	if res.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", res.Confidence)
	}
}

func TestAnalyzeMixedStaysNeutral(t *testing.T) {
	res := Analyze("good but also bad")
	if res.Label != LabelNeutral {
		t.Fatalf("label = %q, want %q", res.Label, LabelNeutral)
	}
	if res.Score != 0 {
		t.Fatalf("score = %v, want 0", res.Score)
	}
}

func TestAnalyzeConfidenceSaturates(t *testing.T) {
	res := Analyze("great great great great")
	if res.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", res.Confidence)
	}
}

func TestAnalyzeCaseAndPunctuationInsensitive(t *testing.T) {
	a := Analyze("GREAT, thanks!")
	b := Analyze("great thanks")
	if a != b {
		t.Fatalf("results differ: %+v vs %+v", a, b)
	}
}
