// Package glm implements the completion provider port against Zhipu's GLM
// chat completions API.
package glm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"recondoc/internal/ai"
	"recondoc/internal/config"
)

const apiURL = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

const systemPrompt = "Você é um especialista em análise de documentos financeiros brasileiros. Responda sempre em JSON válido."

// Client implements port.CompletionProvider using the GLM Chat Completions API.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	maxAttempts int
	client      *http.Client
}

// NewClient creates a GLM-backed completion provider from a provider config.
func NewClient(cfg config.ProviderConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "glm-4.5"
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		maxAttempts: maxAttempts,
		client:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return "glm" }

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.1,
		"max_tokens":  1000,
		"stream":      false,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var content string
	err = retry.Do(
		func() error {
			var err error
			content, err = c.doRequest(ctx, bodyBytes)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxAttempts)),
		retry.Delay(time.Second),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	)
	return content, err
}

func (c *Client) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling GLM API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("GLM API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := ai.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", ai.NewRateLimitError("glm", baseErr, retryAfter)
		}
		if resp.StatusCode >= 500 {
			return "", &transientError{baseErr}
		}
		return "", baseErr
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response from API: no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// isTransient limits retries to server-side errors. Rate limits go to the
// circuit breaker instead, and client errors will not fix themselves.
func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
