package badger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// AuditStorage implements interfaces.AuditLogger on badgerhold. Each LLM
// operation (embed, generate) becomes one stored entry; the log exists so
// long corpus runs can be reviewed after the fact.
type AuditStorage struct {
	db         *BadgerDB
	logQueries bool
	logger     arbor.ILogger
}

// NewAuditStorage creates a badger-backed audit logger. When logQueries is
// false, query text is not persisted with the entry.
func NewAuditStorage(db *BadgerDB, logQueries bool, logger arbor.ILogger) *AuditStorage {
	return &AuditStorage{
		db:         db,
		logQueries: logQueries,
		logger:     logger,
	}
}

// LogEmbed records an embedding operation.
func (s *AuditStorage) LogEmbed(provider, model string, success bool, duration time.Duration, err error, queryText string) error {
	return s.logOperation("embed", provider, model, success, duration, err, queryText)
}

// LogGenerate records a generation operation.
func (s *AuditStorage) LogGenerate(provider, model string, success bool, duration time.Duration, err error, queryText string) error {
	return s.logOperation("generate", provider, model, success, duration, err, queryText)
}

func (s *AuditStorage) logOperation(operation, provider, model string, success bool, duration time.Duration, opErr error, queryText string) error {
	entry := interfaces.AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Provider:  provider,
		Model:     model,
		Success:   success,
		Duration:  duration.Milliseconds(),
	}

	if opErr != nil {
		entry.Error = opErr.Error()
	}
	if s.logQueries {
		entry.QueryText = queryText
	}

	if err := s.db.Store().Upsert(entry.ID, &entry); err != nil {
		s.logger.Error().
			Err(err).
			Str("operation", operation).
			Str("provider", provider).
			Msg("Failed to insert audit entry")
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// RecentEntries returns the most recent audit entries, newest first.
func (s *AuditStorage) RecentEntries(limit int) ([]interfaces.AuditEntry, error) {
	var entries []interfaces.AuditEntry

	query := badgerhold.Where("Operation").Ne("").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	return entries, nil
}

// Close closes the underlying database.
func (s *AuditStorage) Close() error {
	return s.db.Close()
}
