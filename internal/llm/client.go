package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one chat completion with a system instruction and a bounded user input.
type Request struct {
	System    string
	User      string
	MaxTokens int
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Config configures a provider client and the DecisionClient around it.
type Config struct {
	Provider      string
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	CacheTTL      time.Duration
	RateLimit     int
	Temperature   float64
	MaxInputChars int
}
