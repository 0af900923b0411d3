package interfaces

import (
	"time"
)

// AuditEntry is one recorded LLM operation.
type AuditEntry struct {
	ID        string    `json:"id" badgerhold:"key"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"` // "embed" or "generate"
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Duration  int64     `json:"duration_ms"`
	QueryText string    `json:"query_text,omitempty"`
}

// AuditLogger records LLM operations for operability over long corpus runs.
// A nil AuditLogger disables auditing; callers check for nil before logging.
type AuditLogger interface {
	LogEmbed(provider, model string, success bool, duration time.Duration, err error, queryText string) error
	LogGenerate(provider, model string, success bool, duration time.Duration, err error, queryText string) error
	RecentEntries(limit int) ([]AuditEntry, error)
	Close() error
}
