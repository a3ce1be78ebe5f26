package agentlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const apiPrefix = "/api/logging/"

// HTTPTransport posts JSON events to {base}/api/logging/{kind}.
type HTTPTransport struct {
	baseURL string
	token   string
	base    *http.Transport
	client  *http.Client
}

type apiResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewHTTPTransport(cfg Config) (*HTTPTransport, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("http log transport requires a base url")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &HTTPTransport{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		base:    transport,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}, nil
}

func (h *HTTPTransport) Name() string { return ModeHTTP }

func (h *HTTPTransport) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Kind, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+apiPrefix+event.Kind, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", event.Kind, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", event.Kind, err)
	}
	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("post %s: status %d", event.Kind, resp.StatusCode)
	}
	if resp.StatusCode >= 300 || !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("post %s: %s", event.Kind, msg)
	}
	return nil
}

func (h *HTTPTransport) Close() error {
	h.base.CloseIdleConnections()
	return nil
}
