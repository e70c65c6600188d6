package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/faceprint/voicebridge/internal/protocol"
	"github.com/faceprint/voicebridge/internal/reliability"
)

const (
	remoteSynthTimeout     = 10 * time.Second
	remoteSynthMaxAttempts = 2
	remoteSynthBackoffBase = 200 * time.Millisecond
	remoteSynthBackoffCap  = 2 * time.Second
)

// RemoteSynthProvider synthesizes speech through an HTTP service and ships
// the resulting audio to the client for playback. Completion still comes
// back as a client ack, same as the built-in path.
type RemoteSynthProvider struct {
	sessionID string
	emit      EmitFunc
	registry  *UtteranceRegistry
	client    *http.Client
	url       string
	apiKey    string
	language  string
}

type RemoteSynthConfig struct {
	URL      string
	APIKey   string
	Language string
}

func NewRemoteSynthProvider(sessionID string, emit EmitFunc, registry *UtteranceRegistry, cfg RemoteSynthConfig) *RemoteSynthProvider {
	return &RemoteSynthProvider{
		sessionID: sessionID,
		emit:      emit,
		registry:  registry,
		client:    &http.Client{Timeout: remoteSynthTimeout},
		url:       strings.TrimSpace(cfg.URL),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		language:  cfg.Language,
	}
}

type remoteSynthRequest struct {
	Text     string  `json:"text"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	Voice    string  `json:"voice,omitempty"`
	Language string  `json:"language,omitempty"`
}

func (p *RemoteSynthProvider) Speak(ctx context.Context, text string, opts SynthOptions) (Utterance, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyUtterance
	}
	if p.url == "" {
		return nil, fmt.Errorf("remote synth: no endpoint configured")
	}

	audio, format, err := p.synthesize(ctx, remoteSynthRequest{
		Text:     text,
		Rate:     opts.Rate,
		Pitch:    opts.Pitch,
		Voice:    opts.Voice,
		Language: p.language,
	})
	if err != nil {
		return nil, err
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

	ok := p.emit(protocol.SpeakAudio{
		Type:        protocol.TypeSpeakAudio,
		SessionID:   p.sessionID,
		UtteranceID: id,
		Format:      format,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
	})
	if !ok {
		p.registry.drop(id)
		return nil, ErrClientGone
	}
	return u, nil
}

func (p *RemoteSynthProvider) synthesize(ctx context.Context, req remoteSynthRequest) ([]byte, string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("remote synth: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < remoteSynthMaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := reliability.ExponentialBackoff(attempt, remoteSynthBackoffBase, remoteSynthBackoffCap)
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		audio, format, retryable, err := p.post(ctx, payload)
		if err == nil {
			return audio, format, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, "", lastErr
}

func (p *RemoteSynthProvider) post(ctx context.Context, payload []byte) ([]byte, string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, "", false, fmt.Errorf("remote synth: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, "", true, fmt.Errorf("remote synth: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := reliability.IsRetryableHTTPStatus(resp.StatusCode)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", retryable, fmt.Errorf("remote synth: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", true, fmt.Errorf("remote synth: read body: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", false, fmt.Errorf("remote synth: empty audio response")
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "audio/mpeg"
	}
	return audio, format, false, nil
}
