package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a raw LLM client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "groq":
		return newOpenAIClient(cfg, groqBaseURL, defaultGroqModel)
	case "openai":
		return newOpenAIClient(cfg, "", defaultGPTModel)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
