package intent

import (
	"strings"
	"unicode"
)

// Normalize trims and strips punctuation from a transcript so descriptor
// patterns match regardless of recognizer punctuation habits. Apostrophes
// are dropped ("today's" -> "todays"); other punctuation becomes a space and
// runs of whitespace collapse. Case is preserved so captured params keep
// their spoken casing; patterns match case-insensitively.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(trimmed))
	prevSpace := true
	for _, r := range trimmed {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Parse evaluates descriptors against the transcript: contextual descriptors
// for route first, then global descriptors, each tier in registration order.
// The first pattern that matches wins and its capture groups become the
// intent params. When nothing matches the result carries ActionUnknown with
// empty params; parsing never fails.
func (c *Catalog) Parse(route, transcript string) Intent {
	normalized := Normalize(transcript)
	if normalized == "" {
		return Intent{Action: ActionUnknown, Params: []string{}, SourceTranscript: transcript}
	}

	for _, tier := range [][]Descriptor{c.contextual[route], c.global} {
		for _, d := range tier {
			for _, pattern := range d.Patterns {
				m := pattern.FindStringSubmatch(normalized)
				if m == nil {
					continue
				}
				return Intent{
					Action:           d.Action,
					Params:           captureParams(m),
					SourceTranscript: transcript,
				}
			}
		}
	}

	return Intent{Action: ActionUnknown, Params: []string{}, SourceTranscript: transcript}
}

func captureParams(submatches []string) []string {
	params := []string{}
	for _, group := range submatches[1:] {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		params = append(params, group)
	}
	return params
}
