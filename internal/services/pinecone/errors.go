package pinecone

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError represents an error response from the Pinecone API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinecone API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// RateLimitError indicates the index rejected a request with 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("pinecone rate limit exceeded, retry after %s", e.RetryAfter)
}

// IsRateLimit reports whether err is a rate-limit response.
func IsRateLimit(err error) bool {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}

	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
