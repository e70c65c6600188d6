package voice

import (
	"context"
	"strings"
	"time"

	"github.com/faceprint/voicebridge/internal/history"
	"github.com/faceprint/voicebridge/internal/intent"
	"github.com/faceprint/voicebridge/internal/protocol"
	"github.com/faceprint/voicebridge/internal/sentiment"
	"github.com/faceprint/voicebridge/internal/session"
)

// Mode is the engine's listening state, reported to the client on every
// transition so the console can render the microphone indicator.
type Mode string

const (
	ModeIdle          Mode = "idle"
	ModeAwaitingWake  Mode = "awaiting_wake_word"
	ModeCommandWindow Mode = "command_window"
	ModeSpeaking      Mode = "speaking"
)

const historySaveTimeout = 5 * time.Second

// controller is the per-session state machine. It owns all mutable session
// state and runs on a single goroutine; providers and the connection handler
// communicate with it only through channels.
type controller struct {
	engine   *Engine
	sess     *session.Session
	inbound  <-chan any
	outbound chan<- any

	gate     *WakeWordGate
	capture  *AutoRestartCapture
	deliver  func(CaptureEvent)
	synth    SynthProvider
	registry *UtteranceRegistry

	ctx           context.Context
	mode          Mode
	route         string
	lastSpoken    string
	current       Utterance
	afterSpeech   Mode
	stream        CaptureStream
	captureEvents <-chan CaptureEvent
	windowTimer   *time.Timer
	windowCh      <-chan time.Time
}

func newController(e *Engine, sess *session.Session, inbound <-chan any, outbound chan<- any) *controller {
	c := &controller{
		engine:      e,
		sess:        sess,
		inbound:     inbound,
		outbound:    outbound,
		mode:        ModeIdle,
		route:       sess.Route,
		afterSpeech: ModeAwaitingWake,
		registry:    NewUtteranceRegistry(),
	}
	c.gate = NewWakeWordGate(sess.Config.WakeWord, e.wakeFuzzy, e.wakeThreshold)

	emit := func(msg any) bool { return c.emit(msg) }
	raw := e.captureFactory(sess.ID, emit)
	if d, ok := raw.(EventDeliverer); ok {
		c.deliver = d.Deliver
	}
	c.capture = NewAutoRestartCapture(raw, e.restartDelay, func() {
		if m := e.metrics; m != nil {
			m.CaptureRestarts.Inc()
		}
	})
	c.synth = e.synthFactory(sess.ID, emit, c.registry)
	return c
}

func (c *controller) run(ctx context.Context) {
	c.ctx = ctx
	defer c.shutdown()

	c.enableVoice()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.inbound:
			if !ok {
				return
			}
			c.handleClientMessage(msg)
		case ev, ok := <-c.captureEvents:
			if !ok {
				c.captureEvents = nil
				continue
			}
			c.handleCaptureEvent(ev)
		case <-c.windowCh:
			c.handleWindowTimeout()
		case res := <-c.currentDone():
			c.handleSpeechDone(res)
		}
	}
}

func (c *controller) shutdown() {
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
	c.stopWindow()
}

func (c *controller) emit(msg any) bool {
	select {
	case c.outbound <- msg:
		return true
	case <-c.ctxDone():
		return false
	}
}

func (c *controller) ctxDone() <-chan struct{} {
	if c.ctx == nil {
		return nil
	}
	return c.ctx.Done()
}

func (c *controller) currentDone() <-chan SynthResult {
	if c.current == nil {
		return nil
	}
	return c.current.Done()
}

// --- client messages ---

func (c *controller) handleClientMessage(msg any) {
	c.touch()
	switch m := msg.(type) {
	case protocol.TranscriptEvent:
		c.injectCapture(CaptureEvent{
			Type: CaptureEventTranscript,
			Transcript: TranscriptEvent{
				Text:       m.Text,
				Confidence: m.Confidence,
				IsFinal:    m.IsFinal,
				Timestamp:  m.TSMs,
			},
		})
	case protocol.CaptureError:
		c.injectCapture(CaptureEvent{
			Type: CaptureEventError,
			Err:  CaptureError{Code: m.Code, Detail: m.Detail},
		})
	case protocol.CaptureEnded:
		c.injectCapture(CaptureEvent{Type: CaptureEventEnded})
	case protocol.ClientControl:
		c.handleControl(m)
	}
}

func (c *controller) injectCapture(ev CaptureEvent) {
	if c.deliver != nil {
		c.deliver(ev)
	}
}

func (c *controller) handleControl(m protocol.ClientControl) {
	switch m.Action {
	case protocol.ControlRoute:
		c.route = m.Route
		if c.engine.sessions != nil {
			_ = c.engine.sessions.SetRoute(c.sess.ID, m.Route)
		}
	case protocol.ControlDisable:
		c.disableVoice("client_disabled")
	case protocol.ControlEnable:
		c.enableVoice()
	case protocol.ControlSynthDone:
		c.registry.Complete(m.UtteranceID, m.Code)
	}
}

// --- capture events ---

func (c *controller) handleCaptureEvent(ev CaptureEvent) {
	switch ev.Type {
	case CaptureEventTranscript:
		c.handleTranscript(ev.Transcript)
	case CaptureEventError:
		// Recoverable codes were already absorbed by the restart wrapper;
		// anything arriving here ends voice mode.
		c.handleFatalCaptureError(ev.Err)
	case CaptureEventEnded:
		// Non-continuous capture ran out; release the recognizer so an
		// enable control can start a fresh one.
		c.disableVoice("capture_ended")
	}
}

func (c *controller) handleTranscript(t TranscriptEvent) {
	c.touch()
	if strings.TrimSpace(t.Text) == "" {
		return
	}

	if c.mode == ModeSpeaking {
		c.bargeIn()
	}
	if !t.IsFinal {
		return
	}

	c.emitSentiment(t.Text)

	switch c.mode {
	case ModeAwaitingWake:
		hit, remainder := c.gate.Detect(t.Text)
		if !hit {
			return
		}
		c.onWakeWord(remainder)
	case ModeCommandWindow:
		if hit, remainder := c.gate.Detect(t.Text); hit {
			if remainder == "" {
				// Wake word again: keep listening, fresh window.
				c.startWindow()
				return
			}
			c.handleCommand(remainder)
			return
		}
		c.handleCommand(t.Text)
	case ModeIdle:
		// Voice is off; discard.
	}
}

func (c *controller) onWakeWord(remainder string) {
	if m := c.engine.metrics; m != nil {
		m.WakeWordHits.Inc()
	}
	if remainder != "" {
		// Wake word and command in one breath.
		c.handleCommand(remainder)
		return
	}
	c.startWindow()
	c.speak("Yes?", ModeCommandWindow)
}

func (c *controller) bargeIn() {
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
	if c.engine.sessions != nil {
		_ = c.engine.sessions.RecordBargeIn(c.sess.ID)
	}
	if m := c.engine.metrics; m != nil {
		m.BargeIns.Inc()
	}
	// Landing in Idle must release capture the same way a completed
	// utterance would, or the session could never be re-enabled.
	c.enterAfterSpeech(c.afterSpeech)
}

func (c *controller) handleFatalCaptureError(capErr CaptureError) {
	if m := c.engine.metrics; m != nil {
		m.ProviderErrors.WithLabelValues("capture", capErr.Code).Inc()
	}
	c.engine.logger.Printf("session %s: fatal capture error %s: %s", c.sess.ID, capErr.Code, capErr.Detail)
	c.emit(protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: c.sess.ID,
		Code:      capErr.Code,
		Source:    "capture",
		Retryable: false,
		Detail:    capErr.Detail,
	})
	c.disableVoice("capture_error")
}

// --- command parsing and dispatch ---

func (c *controller) handleCommand(text string) {
	c.stopWindow()
	start := time.Now()

	it := c.engine.catalog.Parse(c.route, text)

	if m := c.engine.metrics; m != nil {
		m.IntentsParsed.WithLabelValues(it.Action).Inc()
		m.ObserveCommandStage("transcript_to_intent", time.Since(start))
	}
	c.emit(protocol.IntentEvent{
		Type:       protocol.TypeIntentEvent,
		SessionID:  c.sess.ID,
		Action:     it.Action,
		Params:     it.Params,
		Transcript: text,
	})
	c.saveHistory(text, it)

	if it.Action == intent.ActionUnknown {
		if m := c.engine.metrics; m != nil {
			m.ObserveCommandIndicator("unknown_intent")
		}
		c.speak("Sorry, I did not catch that. Say help to hear what you can say.", ModeAwaitingWake)
		return
	}

	c.dispatch(it)
	if m := c.engine.metrics; m != nil {
		m.ObserveCommandLatency(time.Since(start))
		m.ObserveCommandStage("command_total", time.Since(start))
	}
}

func (c *controller) dispatch(it intent.Intent) {
	switch {
	case strings.HasPrefix(it.Action, "nav_"):
		c.dispatchNavigation(it)
	case it.Action == intent.ActionQueryHelp:
		c.speak(c.helpText(), ModeAwaitingWake)
	case it.Action == intent.ActionQueryReadMenu:
		c.speak("Here is everything you can say. "+strings.Join(c.engine.catalog.Listing(), ". "), ModeAwaitingWake)
	case it.Action == intent.ActionQueryWhere:
		c.speak("You are on the "+pageName(c.route)+" page.", ModeAwaitingWake)
	case it.Action == intent.ActionControlRepeat:
		if c.lastSpoken == "" {
			c.speak("I have not said anything yet.", ModeAwaitingWake)
			return
		}
		c.speak(c.lastSpoken, ModeAwaitingWake)
	case it.Action == intent.ActionControlVoiceOff:
		c.speak("Voice control off.", ModeIdle)
	case it.Action == intent.ActionControlVoiceOn:
		c.speak("Voice control is already on.", ModeAwaitingWake)
	default:
		// Shortcuts and logout belong to the console.
		c.emit(protocol.ActionEvent{
			Type:      protocol.TypeActionEvent,
			SessionID: c.sess.ID,
			Action:    it.Action,
			Params:    it.Params,
		})
		c.engine.actionHook(it.Action, it.Params)
		c.speak("Okay.", ModeAwaitingWake)
	}
}

func (c *controller) dispatchNavigation(it intent.Intent) {
	path, ok := intent.NavigationPath(it.Action)
	if !ok {
		c.speak("Sorry, I cannot open that page.", ModeAwaitingWake)
		return
	}
	c.emit(protocol.Navigate{
		Type:      protocol.TypeNavigate,
		SessionID: c.sess.ID,
		Path:      path,
	})
	c.engine.navigateHook(path)
	c.route = path
	if c.engine.sessions != nil {
		_ = c.engine.sessions.SetRoute(c.sess.ID, path)
	}
	c.speak("Opening "+pageName(path)+".", ModeAwaitingWake)
}

func (c *controller) helpText() string {
	contextual := c.engine.catalog.ContextualCommands(c.route)
	examples := make([]string, 0, len(contextual)+3)
	for _, d := range contextual {
		examples = append(examples, d.Example)
	}
	examples = append(examples, "go to dashboard", "search", "help")
	return "On this page you can say: " + strings.Join(examples, ", ") + "."
}

func (c *controller) saveHistory(text string, it intent.Intent) {
	store := c.engine.history
	if store == nil {
		return
	}
	res := sentiment.Analyze(text)
	rec := history.CommandRecord{
		SessionID:  c.sess.ID,
		UserID:     c.sess.UserID,
		Transcript: text,
		Action:     it.Action,
		Params:     it.Params,
		Sentiment:  string(res.Label),
	}
	logger := c.engine.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historySaveTimeout)
		defer cancel()
		if err := store.SaveCommand(ctx, rec); err != nil {
			logger.Printf("save command history: %v", err)
		}
	}()
}

func (c *controller) emitSentiment(text string) {
	res := sentiment.Analyze(text)
	c.emit(protocol.SentimentEvent{
		Type:       protocol.TypeSentimentEvent,
		SessionID:  c.sess.ID,
		Score:      res.Score,
		Label:      string(res.Label),
		Confidence: res.Confidence,
	})
}

// --- speech ---

// speak starts synthesis and parks the mode the controller should land in
// once the utterance completes or is interrupted.
func (c *controller) speak(text string, after Mode) {
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
	u, err := c.synth.Speak(c.ctx, text, SynthOptions{
		Rate:  c.sess.Config.SpeakingRate,
		Pitch: c.sess.Config.Pitch,
		Voice: c.sess.Config.Voice,
	})
	if err != nil {
		if m := c.engine.metrics; m != nil {
			m.ProviderErrors.WithLabelValues("synth", "speak_failed").Inc()
		}
		c.engine.logger.Printf("session %s: speak failed: %v", c.sess.ID, err)
		c.emit(protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: c.sess.ID,
			Code:      "synth_failed",
			Source:    "synth",
			Retryable: true,
			Detail:    err.Error(),
		})
		c.enterAfterSpeech(after)
		return
	}
	c.lastSpoken = text
	c.current = u
	c.afterSpeech = after
	c.setMode(ModeSpeaking)
}

func (c *controller) handleSpeechDone(res SynthResult) {
	c.current = nil
	if res.Code != "" {
		if m := c.engine.metrics; m != nil {
			m.ProviderErrors.WithLabelValues("synth", res.Code).Inc()
		}
		c.engine.logger.Printf("session %s: synthesis finished with code %s: %s", c.sess.ID, res.Code, res.Detail)
	}
	c.enterAfterSpeech(c.afterSpeech)
}

func (c *controller) enterAfterSpeech(after Mode) {
	switch after {
	case ModeIdle:
		c.disableVoice("voice_off")
	case ModeCommandWindow:
		if c.windowTimer == nil {
			// The window expired while we were speaking.
			c.setMode(ModeAwaitingWake)
			return
		}
		c.setMode(ModeCommandWindow)
	default:
		c.setMode(after)
	}
}

// --- voice on/off and capture lifecycle ---

func (c *controller) enableVoice() {
	if c.stream != nil {
		return
	}
	stream, events, err := c.capture.Start(c.ctx, CaptureConfig{
		Language:   c.sess.Config.Language,
		Continuous: c.sess.Config.Continuous,
	})
	if err != nil {
		c.engine.logger.Printf("session %s: start capture: %v", c.sess.ID, err)
		c.emit(protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: c.sess.ID,
			Code:      "capture_start_failed",
			Source:    "capture",
			Retryable: true,
			Detail:    err.Error(),
		})
		c.setMode(ModeIdle)
		return
	}
	c.stream = stream
	c.captureEvents = events
	c.setMode(ModeAwaitingWake)
}

func (c *controller) disableVoice(reason string) {
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
	c.captureEvents = nil
	c.stopWindow()
	c.emit(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: c.sess.ID,
		Code:      reason,
	})
	c.setMode(ModeIdle)
}

// --- command window ---

func (c *controller) startWindow() {
	c.stopWindow()
	c.windowTimer = time.NewTimer(c.engine.commandWindow)
	c.windowCh = c.windowTimer.C
}

func (c *controller) stopWindow() {
	if c.windowTimer != nil {
		c.windowTimer.Stop()
		c.windowTimer = nil
	}
	c.windowCh = nil
}

func (c *controller) handleWindowTimeout() {
	c.windowTimer = nil
	c.windowCh = nil
	if m := c.engine.metrics; m != nil {
		m.ObserveCommandIndicator("window_timeout")
	}
	switch c.mode {
	case ModeCommandWindow:
		c.setMode(ModeAwaitingWake)
	case ModeSpeaking:
		if c.afterSpeech == ModeCommandWindow {
			c.afterSpeech = ModeAwaitingWake
		}
	}
}

// --- misc ---

func (c *controller) setMode(mode Mode) {
	if c.mode == mode {
		return
	}
	c.mode = mode
	c.emit(protocol.ModeChanged{
		Type:      protocol.TypeModeChanged,
		SessionID: c.sess.ID,
		Mode:      string(mode),
	})
}

func (c *controller) touch() {
	if c.engine.sessions != nil {
		_ = c.engine.sessions.Touch(c.sess.ID)
	}
}

func pageName(route string) string {
	name := strings.TrimPrefix(route, "/")
	name = strings.ReplaceAll(name, "-", " ")
	if name == "" {
		name = "dashboard"
	}
	return name
}
