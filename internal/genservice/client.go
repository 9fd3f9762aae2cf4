// Package genservice wraps the external text-generation service behind
// typed conversion operations. Calls are plain request/response with a
// bounded timeout; retry policy belongs to the caller, never here.
package genservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apimorph/pmconv/internal/domain"
	"github.com/apimorph/pmconv/internal/prompt"
)

// maxResponseSize limits the response body read to prevent memory
// exhaustion on a misbehaving endpoint.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client is the set of conversion operations backed by the service.
type Client interface {
	// Convert performs a ground-up conversion of one script fragment.
	Convert(ctx context.Context, fragmentText string, phase domain.Phase) (string, error)
	// ContinueTruncated asks for only the missing suffix needed to
	// complete partial, given the original fragment as ground truth.
	ContinueTruncated(ctx context.Context, partial, original string, phase domain.Phase, defects []string) (string, error)
	// FixSyntax asks for a syntax-only correction preserving logic.
	FixSyntax(ctx context.Context, text, original string) (string, error)
	// RepairDocument asks for a whole-document pass to bring a
	// converted collection into schema conformance.
	RepairDocument(ctx context.Context, documentText string) (string, error)
}

// ServiceError is any transport failure, non-success status, or
// timeout from the generation endpoint.
type ServiceError struct {
	Op     string
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation service %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("generation service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// request is the wire payload the service expects.
type request struct {
	SystemPrompt string    `json:"systemprompt"`
	UserPrompt   string    `json:"userprompt"`
	Message      []Message `json:"message"`
	Model        string    `json:"model"`
}

// HTTPClient implements Client over a single HTTP endpoint.
type HTTPClient struct {
	url           string
	model         string
	scriptTimeout time.Duration
	repairTimeout time.Duration
	httpClient    *http.Client
	prompts       *prompt.Set
	transcript    *Transcript
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithTimeouts sets the per-operation timeouts: script conversion
// calls use scriptTimeout, whole-document repair uses repairTimeout.
func WithTimeouts(script, repair time.Duration) Option {
	return func(hc *HTTPClient) {
		hc.scriptTimeout = script
		hc.repairTimeout = repair
	}
}

// NewHTTPClient creates a client for the given endpoint and model.
// The transcript is owned by the calling run and provides prior-turn
// context on every request.
func NewHTTPClient(url, model string, prompts *prompt.Set, transcript *Transcript, opts ...Option) (*HTTPClient, error) {
	if url == "" {
		return nil, domain.NewSetupError("generation service endpoint is not configured", nil)
	}
	if transcript == nil {
		transcript = NewTranscript()
	}
	c := &HTTPClient{
		url:           url,
		model:         model,
		scriptTimeout: 1600 * time.Second,
		repairTimeout: 180 * time.Second,
		httpClient:    &http.Client{},
		prompts:       prompts,
		transcript:    transcript,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Convert implements Client.
func (c *HTTPClient) Convert(ctx context.Context, fragmentText string, phase domain.Phase) (string, error) {
	userPrompt, err := c.prompts.Render(prompt.ConvertScript, prompt.Data{
		Phase:    string(phase.OrDefault()),
		Fragment: fragmentText,
	})
	if err != nil {
		return "", err
	}
	return c.call(ctx, "convert", userPrompt, c.scriptTimeout)
}

// ContinueTruncated implements Client.
func (c *HTTPClient) ContinueTruncated(ctx context.Context, partial, original string, phase domain.Phase, defects []string) (string, error) {
	userPrompt, err := c.prompts.Render(prompt.ContinueScript, prompt.Data{
		Phase:    string(phase.OrDefault()),
		Fragment: original,
		Partial:  partial,
		Defects:  defects,
	})
	if err != nil {
		return "", err
	}
	return c.call(ctx, "continue", userPrompt, c.scriptTimeout)
}

// FixSyntax implements Client.
func (c *HTTPClient) FixSyntax(ctx context.Context, text, original string) (string, error) {
	userPrompt, err := c.prompts.Render(prompt.FixSyntax, prompt.Data{
		Fragment: original,
		Current:  text,
	})
	if err != nil {
		return "", err
	}
	return c.call(ctx, "fix", userPrompt, c.scriptTimeout)
}

// RepairDocument implements Client.
func (c *HTTPClient) RepairDocument(ctx context.Context, documentText string) (string, error) {
	userPrompt, err := c.prompts.Render(prompt.RepairCollection, prompt.Data{
		Document: documentText,
	})
	if err != nil {
		return "", err
	}
	return c.call(ctx, "repair", userPrompt, c.repairTimeout)
}

// call performs one request/response exchange. The response body is
// returned as-is; cleanup is the caller's concern.
func (c *HTTPClient) call(ctx context.Context, op, userPrompt string, timeout time.Duration) (string, error) {
	body, err := json.Marshal(request{
		SystemPrompt: "",
		UserPrompt:   userPrompt,
		Message:      c.transcript.Messages(),
		Model:        c.model,
	})
	if err != nil {
		return "", &ServiceError{Op: op, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &ServiceError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return "", &ServiceError{Op: op, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &ServiceError{Op: op, Err: err}
	}

	text := string(data)
	c.transcript.Record(userPrompt, text)
	return text, nil
}
