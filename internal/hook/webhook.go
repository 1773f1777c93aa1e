package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valyala/bytebufferpool"
)

// WebhookAction is what a webhook endpoint asks the chain to do.
type WebhookAction string

const (
	// ActionAllow lets the pending response through unchanged.
	ActionAllow WebhookAction = "allow"

	// ActionMutate replaces the pending body and optionally the status.
	ActionMutate WebhookAction = "mutate"

	// ActionDeny aborts the chain; the response becomes a canonical error.
	ActionDeny WebhookAction = "deny"
)

// WebhookInput is the JSON document posted to the webhook endpoint.
type WebhookInput struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

// WebhookOutput is the expected webhook response.
type WebhookOutput struct {
	Action     WebhookAction `json:"action"`
	Body       string        `json:"body,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	DenyReason string        `json:"deny_reason,omitempty"`
}

// Webhook is a hook that posts the pending completion to an external HTTP
// endpoint, which may observe, mutate or deny it.
type Webhook struct {
	name     string
	url      string
	retries  int
	failOpen bool
	headers  map[string]string
	client   *http.Client
}

var _ Hook = (*Webhook)(nil)

// WebhookConfig configures a webhook hook.
type WebhookConfig struct {
	Name    string
	URL     string
	Timeout time.Duration
	Retries int

	// FailOpen lets the response through when the endpoint is unreachable.
	// The default fails closed: an unreachable endpoint aborts the chain.
	FailOpen bool

	Headers map[string]string
}

// NewWebhook creates a webhook hook.
func NewWebhook(cfg WebhookConfig) *Webhook {
	return &Webhook{
		name:     cfg.Name,
		url:      cfg.URL,
		retries:  cfg.Retries,
		failOpen: cfg.FailOpen,
		headers:  cfg.Headers,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the hook identifier.
func (w *Webhook) Name() string {
	return w.name
}

// OnSend posts the pending completion and applies the endpoint's verdict.
func (w *Webhook) OnSend(ctx context.Context, s *State) error {
	var lastErr error

	attempts := w.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		output, err := w.doRequest(ctx, s)
		if err == nil {
			return w.apply(output, s)
		}
		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}
	}

	if w.failOpen {
		return nil
	}
	return fmt.Errorf("webhook unreachable: %w", lastErr)
}

func (w *Webhook) doRequest(ctx context.Context, s *State) (*WebhookOutput, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	input := WebhookInput{
		Method:     s.Request.Method,
		Path:       s.Request.URL.Path,
		StatusCode: s.StatusCode,
		Body:       string(s.Body),
	}
	if err := json.NewEncoder(buf).Encode(&input); err != nil {
		return nil, fmt.Errorf("marshal webhook input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(buf.B))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var output WebhookOutput
	if err := json.Unmarshal(respBody, &output); err != nil {
		return nil, fmt.Errorf("unmarshal webhook output: %w", err)
	}

	switch output.Action {
	case ActionAllow, ActionDeny, ActionMutate:
	case "":
		output.Action = ActionAllow
	default:
		return nil, fmt.Errorf("invalid action from webhook: %s", output.Action)
	}

	return &output, nil
}

func (w *Webhook) apply(out *WebhookOutput, s *State) error {
	switch out.Action {
	case ActionMutate:
		s.Body = []byte(out.Body)
		if out.StatusCode != 0 {
			s.StatusCode = out.StatusCode
		}
		return nil
	case ActionDeny:
		reason := out.DenyReason
		if reason == "" {
			reason = "denied by webhook " + w.name
		}
		return fmt.Errorf("%s", reason)
	default:
		return nil
	}
}
