// Package llm provides OpenAI-compatible chat and embedding client functionality
// for the chatbot front end.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/retry"
)

// ChatClient abstracts the chat/embedding endpoint for the chatbot service.
type ChatClient interface {
	GenerateResponse(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Client provides access to OpenAI-compatible LLM endpoints.
type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	logger         *zap.Logger
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint       string // Base URL, e.g. "http://localhost:1234/v1"
	Model          string // Chat model name
	EmbeddingModel string // Embedding model name
	APIKey         string // Optional for local endpoints
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		logger:         logger.Named("llm"),
	}, nil
}

// GenerateResponse generates a chat completion for the given prompt.
// Transient backend failures are retried with backoff.
func (c *Client) GenerateResponse(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	start := time.Now()

	var resp openai.ChatCompletionResponse
	err := retry.Do(ctx, nil, func() error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: float32(temperature),
			MaxTokens:   maxTokens,
		})
		return callErr
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Debug("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// EmbedText returns the embedding vector for the given text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var resp openai.EmbeddingResponse
	err := retry.Do(ctx, nil, func() error {
		var callErr error
		resp, callErr = c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.embeddingModel),
			Input: []string{text},
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	return resp.Data[0].Embedding, nil
}

// Ensure Client implements ChatClient at compile time.
var _ ChatClient = (*Client)(nil)
