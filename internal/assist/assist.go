// Package assist is the one-shot text-completion collaborator. It posts a
// prompt to a configured HTTP endpoint and returns the completion text. All
// failures surface as ExternalServiceError; none are fatal to the core.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opscore/internal/config"
	"opscore/pkg/domain"
)

const serviceName = "assistant"

// Client calls the completion endpoint.
type Client struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
}

// New constructs a client from configuration.
func New(cfg config.Assistant) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpc:    &http.Client{Timeout: timeout},
	}
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Completion string `json:"completion"`
}

// Complete sends the prompt and returns the completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.endpoint == "" {
		return "", domain.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("endpoint not configured"),
		}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", domain.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("empty prompt"),
		}
	}
	body, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("endpoint returned %s", resp.Status),
		}
	}
	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	if strings.TrimSpace(parsed.Completion) == "" {
		return "", domain.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("empty completion"),
		}
	}
	return parsed.Completion, nil
}
