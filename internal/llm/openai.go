package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/krishhsuri/Orbit/internal/common"
	openai "github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama-3.1-8b-instant"
	defaultGPTModel  = "gpt-4o-mini"
)

// openAIClient talks to any OpenAI-compatible chat completion endpoint.
type openAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

func newOpenAIClient(cfg Config, defaultBaseURL, defaultModel string) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is required", common.ErrMissingConfig, cfg.Provider)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientCfg.BaseURL = cfg.BaseURL
	case defaultBaseURL != "":
		clientCfg.BaseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.1
	}

	return &openAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: float32(temperature),
	}, nil
}

// Complete sends one chat completion request.
func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: c.temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", common.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyAPIError maps provider failures onto the retry taxonomy.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", common.ErrLLMUnavailable, err)
		default:
			return common.Permanent(fmt.Errorf("llm request rejected: %w", err))
		}
	}
	return fmt.Errorf("%w: %w", common.ErrLLMUnavailable, err)
}
