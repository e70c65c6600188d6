package voice

import (
	"context"
	"log"
	"time"

	"github.com/faceprint/voicebridge/internal/history"
	"github.com/faceprint/voicebridge/internal/intent"
	"github.com/faceprint/voicebridge/internal/observability"
	"github.com/faceprint/voicebridge/internal/session"
)

// Hooks let the embedding host observe dispatched commands in-process, in
// addition to the protocol events every client receives. Hook panics are
// contained and logged.
type Hooks struct {
	Navigate func(path string)
	OnAction func(action string, params []string)
}

// CaptureFactory builds the capture provider for one session.
type CaptureFactory func(sessionID string, emit EmitFunc) CaptureProvider

// SynthFactory builds the synthesis provider for one session.
type SynthFactory func(sessionID string, emit EmitFunc, registry *UtteranceRegistry) SynthProvider

type EngineOptions struct {
	Catalog  *intent.Catalog
	Sessions *session.Manager
	History  history.Store
	Metrics  *observability.Metrics
	Logger   *log.Logger
	Hooks    Hooks

	WakeWordFuzzy          bool
	WakeWordFuzzyThreshold float64
	CommandWindow          time.Duration
	CaptureRestartDelay    time.Duration

	CaptureFactory CaptureFactory
	SynthFactory   SynthFactory
}

// Engine owns the shared pieces of the voice pipeline and runs one
// controller per connected session.
type Engine struct {
	catalog  *intent.Catalog
	sessions *session.Manager
	history  history.Store
	metrics  *observability.Metrics
	logger   *log.Logger
	hooks    Hooks

	wakeFuzzy     bool
	wakeThreshold float64
	commandWindow time.Duration
	restartDelay  time.Duration

	captureFactory CaptureFactory
	synthFactory   SynthFactory
}

func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		catalog:        opts.Catalog,
		sessions:       opts.Sessions,
		history:        opts.History,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		hooks:          opts.Hooks,
		wakeFuzzy:      opts.WakeWordFuzzy,
		wakeThreshold:  opts.WakeWordFuzzyThreshold,
		commandWindow:  opts.CommandWindow,
		restartDelay:   opts.CaptureRestartDelay,
		captureFactory: opts.CaptureFactory,
		synthFactory:   opts.SynthFactory,
	}
	if e.catalog == nil {
		e.catalog = intent.NewCatalog()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.commandWindow <= 0 {
		e.commandWindow = 8 * time.Second
	}
	if e.wakeThreshold <= 0 {
		e.wakeThreshold = 0.84
	}
	if e.captureFactory == nil {
		e.captureFactory = func(sessionID string, emit EmitFunc) CaptureProvider {
			return NewClientCaptureProvider(sessionID, emit)
		}
	}
	if e.synthFactory == nil {
		e.synthFactory = func(sessionID string, emit EmitFunc, registry *UtteranceRegistry) SynthProvider {
			return NewClientSynthProvider(sessionID, emit, registry)
		}
	}
	return e
}

func (e *Engine) Catalog() *intent.Catalog { return e.catalog }

// RunSession drives one session's event loop until the client disconnects or
// ctx is canceled. All state transitions happen on this goroutine.
func (e *Engine) RunSession(ctx context.Context, sess *session.Session, inbound <-chan any, outbound chan<- any) {
	c := newController(e, sess, inbound, outbound)
	c.run(ctx)
}

func (e *Engine) navigateHook(path string) {
	if e.hooks.Navigate == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("navigate hook panicked: %v", r)
		}
	}()
	e.hooks.Navigate(path)
}

func (e *Engine) actionHook(action string, params []string) {
	if e.hooks.OnAction == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("action hook panicked: %v", r)
		}
	}()
	e.hooks.OnAction(action, params)
}
