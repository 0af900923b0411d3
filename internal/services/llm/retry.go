package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy defines retry behavior for provider API calls. The same policy
// drives both the embedding client and the index-upload cooldown path.
type RetryPolicy struct {
	// MaxRetries is the maximum number of attempts (default: 5)
	MaxRetries int

	// InitialDelay is the base backoff before the first retry (default: 1s)
	InitialDelay time.Duration

	logger arbor.ILogger
}

// Default retry constants, matching the tuning the corpus index was
// originally populated with.
const (
	DefaultMaxRetries   = 5
	DefaultInitialDelay = 1 * time.Second
)

// NewRetryPolicy returns a RetryPolicy with the given limits. Zero or
// negative values fall back to the defaults.
func NewRetryPolicy(maxRetries int, initialDelay time.Duration, logger arbor.ILogger) *RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	return &RetryPolicy{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		logger:       logger,
	}
}

// Do runs fn with exponential backoff: the delay doubles on each attempt,
// and a rate-limit response additionally doubles the backoff base before the
// next exponential step (a rate-limited call waits twice as long as a generic
// transient failure at the same attempt count). Returns the last error once
// attempts are exhausted; callers wrap it and must not retry further.
func (p *RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	base := p.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxRetries {
			break
		}

		if IsRateLimitError(lastErr) {
			base *= 2
		}

		delay := base << (attempt - 1)
		if apiDelay := ExtractRetryDelay(lastErr); apiDelay > delay {
			delay = apiDelay
		}

		if p.logger != nil {
			p.logger.Warn().
				Str("operation", operation).
				Int("attempt", attempt).
				Int("max_retries", p.MaxRetries).
				Dur("delay", delay).
				Err(lastErr).
				Msg("API call failed, retrying")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a provider
// error. Returns 0 if no delay is found in the error message.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}
