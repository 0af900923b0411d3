package interfaces

import (
	"context"

	"github.com/ternarybob/scriptura/internal/models"
)

// VectorStore is an external vector index holding (id, vector, metadata)
// triples. Upsert overwrites entries that share an id.
type VectorStore interface {
	// Upsert writes a batch of entries to the index.
	Upsert(ctx context.Context, entries []models.IndexEntry) error

	// Query returns up to topK nearest neighbors for the given vector,
	// ordered by descending similarity score, with metadata included.
	Query(ctx context.Context, vector []float32, topK int) ([]models.RetrievalMatch, error)
}
