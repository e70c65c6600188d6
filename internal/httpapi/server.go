package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/faceprint/voicebridge/internal/config"
	"github.com/faceprint/voicebridge/internal/history"
	"github.com/faceprint/voicebridge/internal/intent"
	"github.com/faceprint/voicebridge/internal/observability"
	"github.com/faceprint/voicebridge/internal/protocol"
	"github.com/faceprint/voicebridge/internal/sentiment"
	"github.com/faceprint/voicebridge/internal/session"
)

// SessionRunner drives one connected session's event loop.
type SessionRunner interface {
	RunSession(ctx context.Context, s *session.Session, inbound <-chan any, outbound chan<- any)
}

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	runner   SessionRunner
	catalog  *intent.Catalog
	history  history.Store
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, runner SessionRunner, catalog *intent.Catalog, store history.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		runner:   runner,
		catalog:  catalog,
		history:  store,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so another website cannot drive the user's mic
				// session if the console is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/voice/session", s.handleCreateSession)
	r.Post("/v1/voice/session/{id}/end", s.handleEndSession)
	r.Get("/v1/voice/session/ws", s.handleSessionWS)
	r.Get("/v1/voice/commands", s.handleListCommands)
	r.Post("/v1/voice/sentiment", s.handleSentiment)
	r.Get("/v1/voice/history", s.handleHistory)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"wake_word": s.cfg.WakeWord,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}
	if strings.TrimSpace(req.Route) == "" {
		req.Route = "/dashboard"
	}

	cfg := session.VoiceConfig{
		WakeWord:      s.cfg.WakeWord,
		Language:      s.cfg.Language,
		Continuous:    s.cfg.Continuous,
		SynthProvider: s.cfg.SynthProvider,
		SpeakingRate:  s.cfg.SpeakingRate,
		Pitch:         s.cfg.Pitch,
		Voice:         s.cfg.Voice,
	}
	if v := strings.TrimSpace(req.WakeWord); v != "" {
		cfg.WakeWord = v
	}
	if v := strings.TrimSpace(req.Language); v != "" {
		cfg.Language = v
	}
	if v := strings.TrimSpace(req.Voice); v != "" {
		cfg.Voice = v
	}

	sess := s.sessions.Create(req.UserID, req.Route, cfg)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Status:          sess.Status,
		Route:           sess.Route,
		Config:          sess.Config,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sess)
}

type commandDTO struct {
	Example     string `json:"example"`
	Description string `json:"description"`
	Action      string `json:"action"`
	Route       string `json:"route,omitempty"`
}

func commandDTOs(src []intent.Descriptor) []commandDTO {
	out := make([]commandDTO, 0, len(src))
	for _, d := range src {
		out = append(out, commandDTO{
			Example:     d.Example,
			Description: d.Description,
			Action:      d.Action,
			Route:       d.Route,
		})
	}
	return out
}

// handleListCommands powers the console's "what can I say" panel. With a
// route query parameter the contextual commands for that page are included.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	route := strings.TrimSpace(r.URL.Query().Get("route"))
	resp := map[string]any{
		"global": commandDTOs(s.catalog.GlobalCommands()),
	}
	if route != "" {
		resp["route"] = route
		resp["contextual"] = commandDTOs(s.catalog.ContextualCommands(route))
	}
	respondJSON(w, http.StatusOK, resp)
}

type sentimentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	respondJSON(w, http.StatusOK, sentiment.Analyze(req.Text))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "history store not configured")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = "anonymous"
	}
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be in [1, 500]")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	if records == nil {
		records = []history.CommandRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"commands": records,
	})
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if s.runner == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "engine not configured")
		return
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 256)
	outbound := make(chan any, 256)
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		s.runner.RunSession(ctx, sess, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					s.metrics.WSWriteErrors.WithLabelValues("write_json").Inc()
					cancel()
					return
				}
				t, ok := messageTypeOf(msg)
				if ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(2 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			}
			select {
			case outbound <- errEvent:
				s.metrics.ObserveOutboundMessage(string(protocol.TypeErrorEvent), "queued")
			default:
				// Keep websocket writes single-threaded; drop if outbound queue is saturated.
				s.metrics.ObserveOutboundMessage(string(protocol.TypeErrorEvent), "drop_full")
			}
			continue
		}

		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.TranscriptEvent:
		return m.Type, true
	case protocol.CaptureError:
		return m.Type, true
	case protocol.CaptureEnded:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.CaptureStart:
		return m.Type, true
	case protocol.CaptureStop:
		return m.Type, true
	case protocol.SpeakRequest:
		return m.Type, true
	case protocol.SpeakAudio:
		return m.Type, true
	case protocol.CancelSpeech:
		return m.Type, true
	case protocol.ModeChanged:
		return m.Type, true
	case protocol.IntentEvent:
		return m.Type, true
	case protocol.SentimentEvent:
		return m.Type, true
	case protocol.Navigate:
		return m.Type, true
	case protocol.ActionEvent:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
