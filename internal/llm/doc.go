// Package llm wraps the external language model used for email enrichment
// and commit decisions. Calls are rate limited, cached where safe, guarded by
// a circuit breaker, and fail closed: callers always receive a usable value.
package llm
