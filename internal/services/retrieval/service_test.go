package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/models"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vector, s.err
}

func (s *stubEmbedder) Dimension() int    { return len(s.vector) }
func (s *stubEmbedder) ModelName() string { return "stub" }

type stubStore struct {
	matches   []models.RetrievalMatch
	err       error
	gotVector []float32
	gotTopK   int
}

func (s *stubStore) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	return nil
}

func (s *stubStore) Query(ctx context.Context, vector []float32, topK int) ([]models.RetrievalMatch, error) {
	s.gotVector = vector
	s.gotTopK = topK
	return s.matches, s.err
}

func TestRetrieve(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("embeds query and queries index with top k", func(t *testing.T) {
		embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
		store := &stubStore{matches: []models.RetrievalMatch{
			{Score: 0.9, Metadata: models.EntryMetadata{Book: "요한복음", Chapter: "3", Verse: "16", Text: "..."}},
		}}

		service := NewService(embedder, store, 7, logger)

		matches, err := service.Retrieve(context.Background(), "사랑에 대한 설교")
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("got %d matches, want 1", len(matches))
		}
		if store.gotTopK != 7 {
			t.Errorf("topK = %d, want 7", store.gotTopK)
		}
		if len(store.gotVector) != 2 {
			t.Errorf("query vector not passed through")
		}
	})

	t.Run("embedding failure wraps into retrieval error", func(t *testing.T) {
		embedder := &stubEmbedder{err: errors.New("quota exceeded")}
		service := NewService(embedder, &stubStore{}, 5, logger)

		_, err := service.Retrieve(context.Background(), "question")
		if err == nil {
			t.Fatal("expected error")
		}

		var retrievalErr *RetrievalError
		if !errors.As(err, &retrievalErr) {
			t.Fatalf("err = %T, want *RetrievalError", err)
		}
		if !errors.Is(err, embedder.err) {
			t.Error("wrapped error should unwrap to the embedder failure")
		}
	})

	t.Run("index failure wraps into retrieval error", func(t *testing.T) {
		embedder := &stubEmbedder{vector: []float32{0.1}}
		store := &stubStore{err: errors.New("index unavailable")}
		service := NewService(embedder, store, 5, logger)

		_, err := service.Retrieve(context.Background(), "question")

		var retrievalErr *RetrievalError
		if !errors.As(err, &retrievalErr) {
			t.Fatalf("err = %T, want *RetrievalError", err)
		}
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		service := NewService(&stubEmbedder{vector: []float32{0.1}}, &stubStore{}, 5, logger)

		if _, err := service.Retrieve(context.Background(), "   "); err == nil {
			t.Fatal("expected error for empty query")
		}
	})

	t.Run("zero matches is a valid result", func(t *testing.T) {
		embedder := &stubEmbedder{vector: []float32{0.1}}
		service := NewService(embedder, &stubStore{}, 5, logger)

		matches, err := service.Retrieve(context.Background(), "question")
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("got %d matches, want 0", len(matches))
		}
	})
}
