package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/faceprint/voicebridge/internal/protocol"
)

var (
	ErrClientGone     = errors.New("client connection unavailable")
	ErrEmptyUtterance = errors.New("empty utterance text")
)

// ClientCaptureProvider drives the browser's recognition facility. Start
// sends a capture_start instruction; the connection handler injects the
// client's transcript and error reports through Deliver.
type ClientCaptureProvider struct {
	sessionID string
	emit      EmitFunc

	mu     sync.Mutex
	events chan CaptureEvent
}

func NewClientCaptureProvider(sessionID string, emit EmitFunc) *ClientCaptureProvider {
	return &ClientCaptureProvider{sessionID: sessionID, emit: emit}
}

func (p *ClientCaptureProvider) Start(ctx context.Context, cfg CaptureConfig) (CaptureStream, <-chan CaptureEvent, error) {
	ch := make(chan CaptureEvent, 64)
	p.mu.Lock()
	p.events = ch
	p.mu.Unlock()

	ok := p.emit(protocol.CaptureStart{
		Type:       protocol.TypeCaptureStart,
		SessionID:  p.sessionID,
		Language:   cfg.Language,
		Continuous: cfg.Continuous,
	})
	if !ok {
		p.release(ch)
		return nil, nil, ErrClientGone
	}
	return &clientCaptureStream{provider: p, events: ch}, ch, nil
}

// Deliver routes a client capture report to the active stream. Events
// arriving while no stream is active are dropped.
func (p *ClientCaptureProvider) Deliver(ev CaptureEvent) {
	p.mu.Lock()
	ch := p.events
	p.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
		// Backpressure: the controller is stalled, dropping is better than
		// blocking the read pump.
	}
}

func (p *ClientCaptureProvider) release(ch chan CaptureEvent) {
	p.mu.Lock()
	if p.events == ch {
		p.events = nil
	}
	p.mu.Unlock()
}

type clientCaptureStream struct {
	provider *ClientCaptureProvider
	events   chan CaptureEvent
	once     sync.Once
}

func (s *clientCaptureStream) Stop() error {
	s.once.Do(func() {
		s.provider.release(s.events)
		s.provider.emit(protocol.CaptureStop{
			Type:      protocol.TypeCaptureStop,
			SessionID: s.provider.sessionID,
		})
	})
	return nil
}

// ClientSynthProvider speaks through the browser's built-in synthesis
// facility. It is always available as long as the connection is, which makes
// it the failover target for remote synthesis.
type ClientSynthProvider struct {
	sessionID string
	emit      EmitFunc
	registry  *UtteranceRegistry
}

func NewClientSynthProvider(sessionID string, emit EmitFunc, registry *UtteranceRegistry) *ClientSynthProvider {
	return &ClientSynthProvider{sessionID: sessionID, emit: emit, registry: registry}
}

func (p *ClientSynthProvider) Speak(ctx context.Context, text string, opts SynthOptions) (Utterance, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyUtterance
	}
	id := uuid.NewString()
	u := newPendingUtterance(id, func() {
		p.registry.drop(id)
		p.emit(protocol.CancelSpeech{
			Type:        protocol.TypeCancelSpeech,
			SessionID:   p.sessionID,
			UtteranceID: id,
		})
	})
	p.registry.track(u)

	ok := p.emit(protocol.SpeakRequest{
		Type:        protocol.TypeSpeakRequest,
		SessionID:   p.sessionID,
		UtteranceID: id,
		Text:        text,
		Rate:        opts.Rate,
		Pitch:       opts.Pitch,
		Voice:       opts.Voice,
	})
	if !ok {
		p.registry.drop(id)
		return nil, ErrClientGone
	}
	return u, nil
}
