package voice

import (
	"context"
	"sync"
	"time"

	"github.com/faceprint/voicebridge/internal/reliability"
)

// AutoRestartCapture wraps a CaptureProvider and keeps continuous
// recognition alive: recoverable errors and unexpected stream ends trigger a
// silent restart after a short delay. Fatal errors are forwarded downstream
// and terminate the stream.
type AutoRestartCapture struct {
	provider  CaptureProvider
	delay     time.Duration
	onRestart func()
}

func NewAutoRestartCapture(provider CaptureProvider, delay time.Duration, onRestart func()) *AutoRestartCapture {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return &AutoRestartCapture{provider: provider, delay: delay, onRestart: onRestart}
}

func (a *AutoRestartCapture) Start(ctx context.Context, cfg CaptureConfig) (CaptureStream, <-chan CaptureEvent, error) {
	inner, events, err := a.provider.Start(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan CaptureEvent, 64)
	stream := &restartStream{stop: make(chan struct{})}
	stream.setInner(inner)
	go a.run(ctx, cfg, stream, events, out)
	return stream, out, nil
}

func (a *AutoRestartCapture) run(ctx context.Context, cfg CaptureConfig, stream *restartStream, events <-chan CaptureEvent, out chan<- CaptureEvent) {
	defer close(out)
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stream.stopped():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case CaptureEventError:
				if reliability.IsRecoverableCaptureCode(ev.Err.Code) {
					next, ok := a.restart(ctx, cfg, stream, out)
					if !ok {
						return
					}
					events = next
					continue
				}
				if !forward(ev, out, stream.stopped()) {
					return
				}
				return
			case CaptureEventEnded:
				if cfg.Continuous {
					next, ok := a.restart(ctx, cfg, stream, out)
					if !ok {
						return
					}
					events = next
					continue
				}
				forward(ev, out, stream.stopped())
				return
			default:
				if !forward(ev, out, stream.stopped()) {
					return
				}
			}
		}
	}
}

// restart releases the current recognizer, waits the configured delay and
// starts a fresh one. A failed restart is surfaced as a fatal error.
func (a *AutoRestartCapture) restart(ctx context.Context, cfg CaptureConfig, stream *restartStream, out chan<- CaptureEvent) (<-chan CaptureEvent, bool) {
	stream.stopInner()

	select {
	case <-ctx.Done():
		return nil, false
	case <-stream.stopped():
		return nil, false
	case <-time.After(a.delay):
	}

	inner, events, err := a.provider.Start(ctx, cfg)
	if err != nil {
		forward(CaptureEvent{
			Type: CaptureEventError,
			Err:  CaptureError{Code: "restart-failed", Detail: err.Error()},
		}, out, stream.stopped())
		return nil, false
	}
	stream.setInner(inner)
	if a.onRestart != nil {
		a.onRestart()
	}
	return events, true
}

func forward(ev CaptureEvent, out chan<- CaptureEvent, stop <-chan struct{}) bool {
	select {
	case out <- ev:
		return true
	case <-stop:
		return false
	}
}

type restartStream struct {
	mu    sync.Mutex
	inner CaptureStream
	stop  chan struct{}
	once  sync.Once
}

func (s *restartStream) Stop() error {
	s.once.Do(func() {
		close(s.stop)
		s.stopInner()
	})
	return nil
}

func (s *restartStream) stopInner() {
	s.mu.Lock()
	inner := s.inner
	s.inner = nil
	s.mu.Unlock()
	if inner != nil {
		inner.Stop()
	}
}

func (s *restartStream) setInner(inner CaptureStream) {
	s.mu.Lock()
	select {
	case <-s.stop:
		// Stopped while restarting; release the fresh recognizer too.
		s.mu.Unlock()
		inner.Stop()
		return
	default:
	}
	s.inner = inner
	s.mu.Unlock()
}

func (s *restartStream) stopped() <-chan struct{} {
	return s.stop
}
