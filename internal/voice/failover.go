package voice

import (
	"context"
	"fmt"
	"sync/atomic"
)

// NewFailoverSynthProvider builds a synthesis provider that prefers primary
// and switches to fallback when primary fails. Once fallback succeeds, it
// stays active until fallback fails; then primary is retried. The first
// switch to fallback fires onFallback once, so the user can be told the
// voice changed.
func NewFailoverSynthProvider(primary, fallback SynthProvider, onFallback func()) SynthProvider {
	return &failoverSynthProvider{
		primary:    primary,
		fallback:   fallback,
		onFallback: onFallback,
	}
}

type failoverSynthProvider struct {
	primary  SynthProvider
	fallback SynthProvider

	fallbackActive atomic.Bool
	notified       atomic.Bool
	onFallback     func()
}

func (p *failoverSynthProvider) Speak(ctx context.Context, text string, opts SynthOptions) (Utterance, error) {
	if p.fallbackActive.Load() {
		u, fbErr := p.fallback.Speak(ctx, text, opts)
		if fbErr == nil {
			return u, nil
		}
		// Fallback failed after being active; try primary again.
		u, prErr := p.primary.Speak(ctx, text, opts)
		if prErr == nil {
			p.fallbackActive.Store(false)
			return u, nil
		}
		return nil, fmt.Errorf("synth fallback failed: %v; synth primary failed: %w", fbErr, prErr)
	}

	u, prErr := p.primary.Speak(ctx, text, opts)
	if prErr == nil {
		return u, nil
	}

	u, fbErr := p.fallback.Speak(ctx, text, opts)
	if fbErr != nil {
		return nil, fmt.Errorf("synth primary failed: %v; synth fallback failed: %w", prErr, fbErr)
	}
	p.fallbackActive.Store(true)
	if p.onFallback != nil && p.notified.CompareAndSwap(false, true) {
		p.onFallback()
	}
	return u, nil
}
