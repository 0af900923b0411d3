package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"github.com/ternarybob/scriptura/internal/models"
)

// RetrievalError wraps any failure inside a retrieval request, whether from
// query embedding or the index query, so the caller sees one unified "search
// failed" condition instead of partially-successful results.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("verse retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Service embeds a live user query and fetches its nearest verses from the
// vector index. No retries happen at this layer beyond what the embedder
// already performs internally.
type Service struct {
	embedder interfaces.Embedder
	store    interfaces.VectorStore
	topK     int
	logger   arbor.ILogger
}

// NewService creates a retrieval service. topK falls back to 5 when not
// positive.
func NewService(embedder interfaces.Embedder, store interfaces.VectorStore, topK int, logger arbor.ILogger) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns up to topK verses nearest to the query, ordered by
// descending similarity score. Any failure returns *RetrievalError.
func (s *Service) Retrieve(ctx context.Context, query string) ([]models.RetrievalMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &RetrievalError{Err: fmt.Errorf("query cannot be empty")}
	}

	s.logger.Debug().
		Int("query_length", len(query)).
		Int("top_k", s.topK).
		Msg("Embedding user query")

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	matches, err := s.store.Query(ctx, vector, s.topK)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	s.logger.Info().
		Int("matches", len(matches)).
		Msg("Verse retrieval complete")

	return matches, nil
}
