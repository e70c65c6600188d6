package voice

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// WakeWordGate decides whether a transcript addresses the assistant. Exact
// containment is checked first; when fuzzy matching is enabled, tokens that
// sound like the wake word (shared Double Metaphone code and a Jaro-Winkler
// score above the threshold) also count, which tolerates recognizer
// misspellings like "ayonics" for "ayonix".
type WakeWordGate struct {
	word      string
	fuzzy     bool
	threshold float64

	primaryCode string
	altCode     string
}

func NewWakeWordGate(word string, fuzzy bool, threshold float64) *WakeWordGate {
	w := strings.ToLower(strings.TrimSpace(word))
	g := &WakeWordGate{word: w, fuzzy: fuzzy, threshold: threshold}
	g.primaryCode, g.altCode = matchr.DoubleMetaphone(w)
	return g
}

func (g *WakeWordGate) Word() string { return g.word }

// Detect reports whether text contains the wake word and returns the text
// that follows it, so "ayonix show dashboard" can be handled in one breath.
func (g *WakeWordGate) Detect(text string) (bool, string) {
	lowered := strings.ToLower(text)
	if idx := strings.Index(lowered, g.word); idx >= 0 {
		return true, trimLeadPunct(text[idx+len(g.word):])
	}
	if !g.fuzzy {
		return false, ""
	}

	tokens := strings.Fields(text)
	for i, tok := range tokens {
		candidate := strings.ToLower(strings.Trim(tok, ".,!?;:"))
		if candidate == "" {
			continue
		}
		if g.soundsLikeWakeWord(candidate) {
			return true, trimLeadPunct(strings.Join(tokens[i+1:], " "))
		}
	}
	return false, ""
}

func (g *WakeWordGate) soundsLikeWakeWord(token string) bool {
	primary, alt := matchr.DoubleMetaphone(token)
	if !codesOverlap(primary, alt, g.primaryCode, g.altCode) {
		return false
	}
	return matchr.JaroWinkler(token, g.word, false) >= g.threshold
}

func codesOverlap(p1, a1, p2, a2 string) bool {
	for _, x := range []string{p1, a1} {
		if x == "" {
			continue
		}
		for _, y := range []string{p2, a2} {
			if y == "" {
				continue
			}
			if x == y {
				return true
			}
		}
	}
	return false
}

func trimLeadPunct(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, " \t,.!?;:"))
}
