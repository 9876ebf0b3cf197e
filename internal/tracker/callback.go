package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

const callbackTimeout = 5 * time.Second

// CallbackPayload is the JSON body posted for each event.
type CallbackPayload struct {
	RunID     string        `json:"runId"`
	Type      EventType     `json:"type"`
	Label     string        `json:"label,omitempty"`
	Step      *CallbackStep `json:"step,omitempty"`
	ElapsedMS int64         `json:"elapsedMs,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// CallbackStep is the step portion of a CallbackPayload.
type CallbackStep struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
	Outcome     string `json:"outcome"`
	Message     string `json:"message,omitempty"`
	DurationMS  int64  `json:"durationMs,omitempty"`
}

// HTTPCallback posts every non-progress event to a URL. Delivery failures
// are logged and never interrupt the run.
type HTTPCallback struct {
	url    string
	client *http.Client
	log    logr.Logger
}

// NewHTTPCallback creates a callback observer. A nil client uses a client with
// a short timeout.
func NewHTTPCallback(url string, client *http.Client, log logr.Logger) *HTTPCallback {
	if client == nil {
		client = &http.Client{Timeout: callbackTimeout}
	}
	return &HTTPCallback{url: url, client: client, log: log}
}

// OnEvent implements Observer.
func (h *HTTPCallback) OnEvent(e Event) {
	if e.Type == EventStepProgress {
		return
	}
	if err := h.post(e); err != nil {
		h.log.Error(err, "callback delivery failed", "url", h.url, "event", string(e.Type))
	}
}

func (h *HTTPCallback) post(e Event) error {
	body, err := json.Marshal(newCallbackPayload(e))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

func newCallbackPayload(e Event) CallbackPayload {
	p := CallbackPayload{
		RunID:     e.RunID,
		Type:      e.Type,
		Label:     e.Label,
		ElapsedMS: e.Elapsed.Milliseconds(),
		Timestamp: e.Timestamp,
	}
	if e.Step.Index > 0 {
		p.Step = &CallbackStep{
			Index:       e.Step.Index,
			Description: e.Step.Description,
			Tag:         e.Step.Tag,
			Outcome:     e.Step.Outcome.String(),
			Message:     e.Step.Message,
			DurationMS:  e.Step.Duration.Milliseconds(),
		}
	}
	return p
}
