package pinecone

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/common"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"github.com/ternarybob/scriptura/internal/models"
)

// Writer uploads embedded verses to the vector index in fixed-size chunks.
// Upload is lossy-but-available: a chunk that fails for a non-rate-limit
// reason is logged and skipped so the rest of the corpus still uploads, while
// a rate-limited chunk is retried in place after a cooldown.
type Writer struct {
	store     interfaces.VectorStore
	config    *common.PineconeConfig
	dimension int
	logger    arbor.ILogger
}

// NewWriter creates an index writer. dimension is the expected embedding
// dimensionality; entries that disagree are dropped, never uploaded.
func NewWriter(store interfaces.VectorStore, config *common.PineconeConfig, dimension int, logger arbor.ILogger) *Writer {
	return &Writer{
		store:     store,
		config:    config,
		dimension: dimension,
		logger:    logger,
	}
}

// Upload writes the embedded verses to the index and returns the number of
// entries successfully written. Entry IDs derive from verse location plus
// absolute corpus position, so re-running Upload over the same artifact
// overwrites rather than duplicates.
func (w *Writer) Upload(ctx context.Context, verses []models.EmbeddedVerse) (int, error) {
	if len(verses) == 0 {
		w.logger.Warn().Msg("No embedded verses to upload")
		return 0, nil
	}

	batchSize := w.config.UploadBatchSize
	totalChunks := (len(verses) + batchSize - 1) / batchSize
	uploaded := 0

	w.logger.Info().
		Int("verses", len(verses)).
		Int("batch_size", batchSize).
		Int("chunks", totalChunks).
		Msg("Starting index upload")

	for start := 0; start < len(verses); start += batchSize {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}

		end := start + batchSize
		if end > len(verses) {
			end = len(verses)
		}
		chunk := verses[start:end]
		chunkNum := start/batchSize + 1

		entries := w.buildEntries(chunk, start)
		if len(entries) == 0 {
			w.logger.Info().
				Int("chunk", chunkNum).
				Int("total_chunks", totalChunks).
				Msg("No valid entries in chunk, skipping upsert")
			continue
		}

		w.logger.Info().
			Int("chunk", chunkNum).
			Int("total_chunks", totalChunks).
			Int("from", start+1).
			Int("to", end).
			Int("entries", len(entries)).
			Msg("Uploading chunk")

		ok, err := w.uploadChunk(ctx, entries, chunkNum)
		if err != nil {
			return uploaded, err
		}
		if ok {
			uploaded += len(entries)
		}

		if end < len(verses) && w.config.InterChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return uploaded, ctx.Err()
			case <-time.After(w.config.InterChunkDelay):
			}
		}
	}

	w.logger.Info().
		Int("uploaded", uploaded).
		Int("total", len(verses)).
		Msg("Index upload complete")

	return uploaded, nil
}

// buildEntries converts a chunk to index entries, dropping any verse whose
// embedding dimension disagrees with the index. globalOffset is the chunk's
// absolute start position in the corpus; it keeps entry IDs unique across
// duplicated or unparsed verses.
func (w *Writer) buildEntries(chunk []models.EmbeddedVerse, globalOffset int) []models.IndexEntry {
	entries := make([]models.IndexEntry, 0, len(chunk))

	for j, verse := range chunk {
		if len(verse.Embedding) != w.dimension {
			w.logger.Warn().
				Str("verse", verse.LocationLabel()).
				Int("dimension", len(verse.Embedding)).
				Int("expected", w.dimension).
				Msg("Embedding dimension mismatch, skipping entry")
			continue
		}
		entries = append(entries, verse.IndexEntry(globalOffset+j))
	}

	return entries
}

// uploadChunk upserts one chunk. Rate-limit responses retry the same chunk
// after the configured cooldown, up to MaxChunkAttempts; the original
// behavior retried forever, which risks an infinite loop when the provider
// never recovers. Other errors skip the chunk after logging. Returns whether
// the chunk was written; the error return is reserved for cancellation.
func (w *Writer) uploadChunk(ctx context.Context, entries []models.IndexEntry, chunkNum int) (bool, error) {
	for attempt := 1; attempt <= w.config.MaxChunkAttempts; attempt++ {
		err := w.store.Upsert(ctx, entries)
		if err == nil {
			return true, nil
		}

		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if !IsRateLimit(err) {
			w.logger.Error().
				Err(err).
				Int("chunk", chunkNum).
				Msg("Chunk upload failed, continuing with next chunk")
			return false, nil
		}

		if attempt == w.config.MaxChunkAttempts {
			w.logger.Error().
				Err(err).
				Int("chunk", chunkNum).
				Int("attempts", attempt).
				Msg("Chunk still rate limited after max attempts, skipping")
			return false, nil
		}

		w.logger.Warn().
			Int("chunk", chunkNum).
			Int("attempt", attempt).
			Dur("cooldown", w.config.RateLimitCooldown).
			Msg("Rate limited, retrying chunk after cooldown")

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(w.config.RateLimitCooldown):
		}
	}

	return false, nil
}
