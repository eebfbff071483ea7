// Package nlp provides the client for the external SOS text-processing service.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ProcessResult is the structured correction/classification the service
// returns for one piece of SOS text.
type ProcessResult struct {
	ModelText   string  `json:"model_text"`
	LLMText     string  `json:"llm_text"`
	LLMCategory string  `json:"llm_category"`
	LLMName     string  `json:"llm_name"`
	ModelName   string  `json:"model_name"`
	Confidence  float64 `json:"confidence"`
	LLMScore    float64 `json:"llm_score"`
}

// Client calls the text-processing service over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for creating an NLP client.
type Config struct {
	Endpoint string        // Base URL, e.g. "http://127.0.0.1:8001"
	Timeout  time.Duration // Per-call bound; defaults to 30s
}

// NewClient creates a new text-processing client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("nlp"),
	}, nil
}

// ProcessText submits text for correction and classification.
func (c *Client) ProcessText(ctx context.Context, text string) (*ProcessResult, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/process-sos", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("text-processing call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("text-processing returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ProcessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Processed SOS text",
		zap.Int("text_len", len(text)),
		zap.Float64("llm_score", result.LLMScore),
		zap.Duration("elapsed", time.Since(start)))

	return &result, nil
}
