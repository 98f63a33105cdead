package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/sony/gobreaker"
)

const (
	extractInputChars = 1500
	decideInputChars  = 2000
	extractMaxTokens  = 200
	decideMaxTokens   = 300
	defaultCallLimit  = 30 * time.Second
)

// Call kinds, used for logging and metrics.
const (
	kindExtract = "extract"
	kindDecide  = "decide"
)

// DecisionClient exposes the two LLM call shapes. Neither returns an error:
// failures degrade to no enrichment or to a discard decision.
type DecisionClient struct {
	client  Client
	cache   *extractionCache
	limiter *rateLimiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
	timeout time.Duration
}

// NewDecisionClient wraps client with rate limiting, caching and a circuit breaker.
func NewDecisionClient(client Client, cfg Config, logger *slog.Logger) *DecisionClient {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallLimit
	}

	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(max(counts.Requests, 1))
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Malformed output is the model's fault, not the transport's.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, common.ErrMalformedResponse)
		},
	}

	return &DecisionClient{
		client:  client,
		cache:   newExtractionCache(cfg.CacheTTL),
		limiter: newRateLimiter(cfg.RateLimit),
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		timeout: timeout,
	}
}

// Extract asks for company, role and job URL. key (usually the email source
// id) caches successful results. ok is false when nothing could be extracted
// because the call failed or returned malformed output.
func (d *DecisionClient) Extract(ctx context.Context, key, text string) (model.Extraction, bool) {
	if cached, found := d.cache.get(key); found {
		d.logger.Debug("Extraction cache hit", "key", key)
		return cached, true
	}

	content, err := d.call(ctx, kindExtract, Request{
		System:    extractPrompt,
		User:      "Email text:\n\n" + truncate(text, extractInputChars),
		MaxTokens: extractMaxTokens,
		JSON:      true,
	})
	if err != nil {
		d.logger.Warn("LLM extraction failed, skipping enrichment", "key", key, "error", err)
		return model.Extraction{}, false
	}

	extraction, err := parseExtraction(content)
	if err != nil {
		d.logger.Warn("LLM extraction returned malformed output", "key", key, "error", err)
		return model.Extraction{}, false
	}
	d.cache.set(key, extraction)
	return extraction, true
}

// Decide returns the authoritative commit decision. On timeout, transport
// failure or malformed output it returns a degraded discard.
func (d *DecisionClient) Decide(ctx context.Context, subject, body string) model.CommitDecision {
	content, err := d.call(ctx, kindDecide, Request{
		System:    decidePrompt,
		User:      fmt.Sprintf("Subject: %s\n\nBody:\n%s", subject, truncate(body, decideInputChars)),
		MaxTokens: decideMaxTokens,
		JSON:      true,
	})
	if err != nil {
		d.logger.Warn("LLM decision failed, discarding", "subject", subject, "error", err)
		return model.Discard("llm unavailable: "+err.Error(), true)
	}

	decision, err := parseDecision(content)
	if err != nil {
		d.logger.Warn("LLM decision malformed, discarding", "subject", subject, "error", err)
		return model.Discard("malformed llm response", true)
	}

	d.logger.Info("LLM decision", "subject", subject, "action", decision.Action, "status", decision.Status)
	return decision
}

func (d *DecisionClient) call(ctx context.Context, kind string, req Request) (string, error) {
	start := time.Now()

	if err := d.limiter.wait(ctx); err != nil {
		metrics.RecordLLMCall(kind, "rate_limited", time.Since(start))
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.breaker.Execute(func() (interface{}, error) {
		return d.client.Complete(callCtx, req)
	})
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "circuit_open"
			err = fmt.Errorf("%w: %w", common.ErrLLMUnavailable, err)
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		}
		metrics.RecordLLMCall(kind, outcome, time.Since(start))
		return "", err
	}

	metrics.RecordLLMCall(kind, "ok", time.Since(start))
	content, _ := result.(string)
	return content, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
