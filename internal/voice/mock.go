package voice

import (
	"context"
	"sync"
	"time"
)

// MockCaptureProvider feeds scripted capture events into the engine. Tests
// use it in place of a connected browser.
type MockCaptureProvider struct {
	mu       sync.Mutex
	events   chan CaptureEvent
	started  int
	stopped  int
	startErr error
}

func NewMockCaptureProvider() *MockCaptureProvider {
	return &MockCaptureProvider{}
}

// FailNextStart makes the next Start call return err.
func (p *MockCaptureProvider) FailNextStart(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startErr = err
}

func (p *MockCaptureProvider) Start(_ context.Context, _ CaptureConfig) (CaptureStream, <-chan CaptureEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startErr != nil {
		err := p.startErr
		p.startErr = nil
		return nil, nil, err
	}
	p.started++
	ch := make(chan CaptureEvent, 64)
	p.events = ch
	return &mockCaptureStream{provider: p, events: ch}, ch, nil
}

func (p *MockCaptureProvider) Deliver(ev CaptureEvent) {
	p.mu.Lock()
	ch := p.events
	p.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

func (p *MockCaptureProvider) EmitFinal(text string, confidence float64) {
	p.Deliver(CaptureEvent{
		Type: CaptureEventTranscript,
		Transcript: TranscriptEvent{
			Text:       text,
			Confidence: confidence,
			IsFinal:    true,
			Timestamp:  time.Now().UnixMilli(),
		},
	})
}

func (p *MockCaptureProvider) EmitInterim(text string) {
	p.Deliver(CaptureEvent{
		Type: CaptureEventTranscript,
		Transcript: TranscriptEvent{
			Text:      text,
			Timestamp: time.Now().UnixMilli(),
		},
	})
}

func (p *MockCaptureProvider) EmitError(code, detail string) {
	p.Deliver(CaptureEvent{
		Type: CaptureEventError,
		Err:  CaptureError{Code: code, Detail: detail},
	})
}

func (p *MockCaptureProvider) EmitEnded() {
	p.Deliver(CaptureEvent{Type: CaptureEventEnded})
}

func (p *MockCaptureProvider) StartCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *MockCaptureProvider) StopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *MockCaptureProvider) noteStop(ch chan CaptureEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
	if p.events == ch {
		p.events = nil
	}
}

type mockCaptureStream struct {
	provider *MockCaptureProvider
	events   chan CaptureEvent
	once     sync.Once
}

func (s *mockCaptureStream) Stop() error {
	s.once.Do(func() {
		s.provider.noteStop(s.events)
	})
	return nil
}

// MockSynthProvider records spoken text. With autoComplete set, each
// utterance resolves as soon as it is created.
type MockSynthProvider struct {
	mu           sync.Mutex
	autoComplete bool
	speakErr     error
	spoken       []string
	canceled     int
	last         *pendingUtterance
}

func NewMockSynthProvider(autoComplete bool) *MockSynthProvider {
	return &MockSynthProvider{autoComplete: autoComplete}
}

// FailNextSpeak makes the next Speak call return err.
func (p *MockSynthProvider) FailNextSpeak(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speakErr = err
}

func (p *MockSynthProvider) Speak(_ context.Context, text string, _ SynthOptions) (Utterance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speakErr != nil {
		err := p.speakErr
		p.speakErr = nil
		return nil, err
	}
	p.spoken = append(p.spoken, text)
	u := newPendingUtterance("mock", func() {
		p.mu.Lock()
		p.canceled++
		p.mu.Unlock()
	})
	p.last = u
	if p.autoComplete {
		u.resolve(SynthResult{})
	}
	return u, nil
}

// CompleteLast resolves the most recent utterance, as the client ack would.
func (p *MockSynthProvider) CompleteLast(code string) {
	p.mu.Lock()
	u := p.last
	p.mu.Unlock()
	if u != nil {
		u.resolve(SynthResult{Code: code})
	}
}

func (p *MockSynthProvider) Spoken() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.spoken))
	copy(out, p.spoken)
	return out
}

func (p *MockSynthProvider) SpokenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.spoken)
}

func (p *MockSynthProvider) CancelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canceled
}
