// Package sentiment scores transcripts with a fixed keyword-polarity lexicon.
// It is a best-effort heuristic for UI annotation, independent of the command
// pipeline.
package sentiment

import "strings"

type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Result is a pure function of the input text; no state is kept between calls.
type Result struct {
	Score      float64 `json:"score"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "awesome": {}, "amazing": {},
	"wonderful": {}, "fantastic": {}, "perfect": {}, "nice": {}, "happy": {},
	"love": {}, "thanks": {}, "thank": {}, "helpful": {}, "pleased": {},
	"correct": {}, "works": {}, "fast": {}, "easy": {}, "clear": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "horrible": {}, "hate": {},
	"problem": {}, "error": {}, "wrong": {}, "fail": {}, "failed": {},
	"broken": {}, "slow": {}, "poor": {}, "angry": {}, "annoying": {},
	"issue": {}, "useless": {}, "confusing": {}, "stuck": {}, "crash": {},
}

// Analyze counts lexicon hits in the lower-cased text and returns
// score = (pos - neg) / (pos + neg) clamped to [-1, 1]. Zero hits yield a
// neutral result with confidence 0.5. Labels flip at +/-0.2 and confidence
// saturates at three total hits.
func Analyze(text string) Result {
	pos, neg := 0, 0
	for _, word := range tokenize(text) {
		if _, ok := positiveWords[word]; ok {
			pos++
		}
		if _, ok := negativeWords[word]; ok {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return Result{Score: 0, Label: LabelNeutral, Confidence: 0.5}
	}

	score := float64(pos-neg) / float64(total)
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	label := LabelNeutral
	switch {
	case score > 0.2:
		label = LabelPositive
	case score < -0.2:
		label = LabelNegative
	}

	confidence := float64(total) / 3
	if confidence > 1 {
		confidence = 1
	}

	return Result{Score: score, Label: label, Confidence: confidence}
}

func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
