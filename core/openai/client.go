// Package openai is a minimal client for the image generation endpoint.
// Requests can run either with the operator's key or with a key a user
// registered for their own account.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/dallebot/core/logger"
	"log/slog"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	defaultTimeout      = 90 * time.Second
	maxImagesPerRequest = 10
)

// Error carries the API error body together with the HTTP status.
type Error struct {
	Status  int
	Type    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("openai: %s (%d)", e.Message, e.Status)
}

// Code returns a stable identifier for log correlation.
func (e *Error) Code() string {
	if e.Status == http.StatusUnauthorized {
		return "OPENAI_UNAUTHORIZED"
	}
	if e.Type != "" {
		return "OPENAI_" + strings.ToUpper(strings.ReplaceAll(e.Type, " ", "_"))
	}
	return fmt.Sprintf("OPENAI_HTTP_%d", e.Status)
}

// Unauthorized reports whether the key was rejected.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Config controls the client construction.
type Config struct {
	// APIKey is the operator key used when a request carries no user key.
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client
}

// Client talks to the images endpoint. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New builds a Client with sane defaults for zeroed config fields.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

// Result is a successful generation response.
type Result struct {
	URLs    []string
	Elapsed time.Duration
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generateResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImages requests n images for the prompt. An empty apiKey falls
// back to the operator key from the client config.
func (c *Client) GenerateImages(ctx context.Context, prompt string, n int, size, apiKey string) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, fmt.Errorf("openai: empty prompt")
	}
	if n <= 0 {
		n = 1
	}
	if n > maxImagesPerRequest {
		n = maxImagesPerRequest
	}

	body, err := json.Marshal(generateRequest{Prompt: prompt, N: n, Size: size})
	if err != nil {
		return Result{}, fmt.Errorf("openai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key(apiKey))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("openai: images request: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	if resp.StatusCode != http.StatusOK {
		apiErr := decodeError(resp)
		logger.Warn(ctx, "openai", "images.generate.fail",
			slog.Int("status", resp.StatusCode),
			slog.String("err", apiErr.Message),
			slog.Int64("elapsed_ms", logger.RoundMS(elapsed).Milliseconds()),
		)
		return Result{}, apiErr
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("openai: decode response: %w", err)
	}

	urls := make([]string, 0, len(out.Data))
	for _, d := range out.Data {
		if d.URL != "" {
			urls = append(urls, d.URL)
		}
	}
	if len(urls) == 0 {
		return Result{}, fmt.Errorf("openai: response contained no image urls")
	}

	logger.Debug(ctx, "openai", "images.generate.ok",
		slog.Int("images", len(urls)),
		slog.Int("prompt_len", len(prompt)),
		slog.Int64("elapsed_ms", logger.RoundMS(elapsed).Milliseconds()),
	)
	return Result{URLs: urls, Elapsed: elapsed}, nil
}

// ValidateAPIKey checks a user-supplied key with a cheap authenticated call.
func (c *Client) ValidateAPIKey(ctx context.Context, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("openai: empty api key")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai: validate request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) key(apiKey string) string {
	if strings.TrimSpace(apiKey) != "" {
		return apiKey
	}
	return c.apiKey
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: resp.Status,
	}
	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		if body.Error.Message != "" {
			apiErr.Message = body.Error.Message
		}
		apiErr.Type = body.Error.Type
	}
	return apiErr
}
