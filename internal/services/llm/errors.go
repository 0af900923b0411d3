package llm

import (
	"fmt"
)

// EmbeddingError indicates an embedding call failed after exhausting retries.
// The wrapped error is the last underlying provider error. Callers must not
// retry further; re-invocation is the only recovery.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed after retries: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
