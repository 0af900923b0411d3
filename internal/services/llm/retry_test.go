package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
)

func TestRetryPolicy_Do(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("returns immediately on success", func(t *testing.T) {
		policy := NewRetryPolicy(5, time.Millisecond, logger)

		calls := 0
		err := policy.Do(context.Background(), "test", func(ctx context.Context) error {
			calls++
			return nil
		})

		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retries transient failures until success", func(t *testing.T) {
		policy := NewRetryPolicy(5, time.Millisecond, logger)

		calls := 0
		err := policy.Do(context.Background(), "test", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("returns last error after max retries", func(t *testing.T) {
		policy := NewRetryPolicy(3, time.Millisecond, logger)

		calls := 0
		err := policy.Do(context.Background(), "test", func(ctx context.Context) error {
			calls++
			return errors.New("always failing")
		})

		if err == nil || err.Error() != "always failing" {
			t.Fatalf("err = %v, want last error", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		policy := NewRetryPolicy(5, 50*time.Millisecond, logger)

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err := policy.Do(ctx, "test", func(ctx context.Context) error {
			calls++
			return errors.New("transient")
		})

		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("rate limit waits longer than generic failure", func(t *testing.T) {
		base := 5 * time.Millisecond

		generic := NewRetryPolicy(2, base, logger)
		start := time.Now()
		_ = generic.Do(context.Background(), "test", func(ctx context.Context) error {
			return errors.New("transient")
		})
		genericElapsed := time.Since(start)

		limited := NewRetryPolicy(2, base, logger)
		start = time.Now()
		_ = limited.Do(context.Background(), "test", func(ctx context.Context) error {
			return errors.New("429 too many requests")
		})
		limitedElapsed := time.Since(start)

		// Rate-limited backoff doubles the base, so the limited run should
		// take noticeably longer than the generic run.
		if limitedElapsed <= genericElapsed {
			t.Errorf("rate-limited backoff %v not longer than generic %v", limitedElapsed, genericElapsed)
		}
	})
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"429 status", errors.New("googleapi: Error 429: too many requests"), true},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("quota exceeded for metric"), true},
		{"generic failure", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"nil error", nil, 0},
		{"no delay in message", errors.New("some error"), 0},
		{"please retry form", errors.New("429: Please retry in 7s"), 7 * time.Second},
		{"retryDelay field", errors.New(`details: retryDelay: 2.5s`), 2500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractRetryDelay(tt.err); got != tt.want {
				t.Errorf("ExtractRetryDelay(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
