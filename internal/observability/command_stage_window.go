package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type CommandStageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
	// Share of the window above the stage target, in percent. A healthy
	// pipeline keeps this under 5 for every budgeted stage.
	OverTargetPct float64 `json:"over_target_pct,omitempty"`
}

type CommandIndicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CommandStageSnapshot struct {
	GeneratedAt time.Time           `json:"generated_at"`
	WindowSize  int                 `json:"window_size"`
	Stages      []CommandStageStats `json:"stages"`
	Indicators  []CommandIndicator  `json:"indicators,omitempty"`
}

type commandStageWindow struct {
	mu         sync.RWMutex
	maxSamples int
	stages     map[string]*commandStageBuffer
	indicators map[string]int
}

type commandStageBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newCommandStageWindow(maxSamples int) *commandStageWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &commandStageWindow{
		maxSamples: maxSamples,
		stages:     make(map[string]*commandStageBuffer),
		indicators: make(map[string]int),
	}
}

func (w *commandStageWindow) Observe(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.stages[stage]
	if !ok {
		buf = &commandStageBuffer{
			values: make([]float64, w.maxSamples),
		}
		w.stages[stage] = buf
	}
	buf.values[buf.next] = ms
	buf.last = ms
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

func (w *commandStageWindow) Snapshot() CommandStageSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stages := make([]CommandStageStats, 0, len(w.stages))
	keys := make([]string, 0, len(w.stages))
	for stage := range w.stages {
		keys = append(keys, stage)
	}
	sort.Strings(keys)

	for _, stage := range keys {
		buf := w.stages[stage]
		if buf == nil {
			continue
		}
		n := buf.next
		if buf.filled {
			n = len(buf.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, buf.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}

		target := stageTargetP95MS(stage)
		overTarget := 0
		if target > 0 {
			for _, v := range samples {
				if v > target {
					overTarget++
				}
			}
		}

		stages = append(stages, CommandStageStats{
			Stage:         stage,
			Samples:       n,
			LastMS:        round2(buf.last),
			AvgMS:         round2(sum / float64(n)),
			P50MS:         round2(quantile(samples, 0.50)),
			P95MS:         round2(quantile(samples, 0.95)),
			P99MS:         round2(quantile(samples, 0.99)),
			TargetP95MS:   target,
			OverTargetPct: round2(100 * float64(overTarget) / float64(n)),
		})
	}

	indicators := make([]CommandIndicator, 0, len(w.indicators))
	indicatorKeys := make([]string, 0, len(w.indicators))
	for name := range w.indicators {
		indicatorKeys = append(indicatorKeys, name)
	}
	sort.Strings(indicatorKeys)
	for _, name := range indicatorKeys {
		count := w.indicators[name]
		if count <= 0 {
			continue
		}
		indicators = append(indicators, CommandIndicator{
			Name:  name,
			Count: count,
		})
	}

	return CommandStageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Stages:      stages,
		Indicators:  indicators,
	}
}

func (w *commandStageWindow) ObserveIndicator(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

func (w *commandStageWindow) Reset() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stages = make(map[string]*commandStageBuffer)
	w.indicators = make(map[string]int)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func stageTargetP95MS(stage string) float64 {
	switch stage {
	case "transcript_to_intent":
		return 5
	case "intent_to_dispatch":
		return 25
	case "wake_to_window":
		return 10
	case "dispatch_to_speech_start":
		return 150
	case "command_total":
		return 200
	default:
		return 0
	}
}
