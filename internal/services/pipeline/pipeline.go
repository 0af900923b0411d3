package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/common"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"github.com/ternarybob/scriptura/internal/models"
	"github.com/ternarybob/scriptura/internal/services/workers"
)

// Pipeline drives the embedder over a full corpus in bounded-size chunks.
// Verses within a chunk are embedded concurrently; chunks run strictly
// sequentially with an inter-chunk delay, which bounds peak concurrency to
// one chunk's width and keeps the provider off its rate limits.
type Pipeline struct {
	embedder interfaces.Embedder
	config   *common.PipelineConfig
	logger   arbor.ILogger
}

// NewPipeline creates a batch embedding pipeline
func NewPipeline(embedder interfaces.Embedder, config *common.PipelineConfig, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

// Run embeds every non-blank verse record and returns the embedded verses in
// the original corpus order. A verse whose embedding terminally fails (after
// the embedder's internal retries) is logged with its location and dropped;
// it never fails the chunk or the run. Returns early with partial results
// when the context is cancelled.
func (p *Pipeline) Run(ctx context.Context, records []models.VerseRecord) ([]models.EmbeddedVerse, error) {
	if len(records) == 0 {
		p.logger.Warn().Msg("No verse records to embed")
		return nil, nil
	}

	runID := common.NewRunID()
	batchSize := p.config.BatchSize
	totalChunks := (len(records) + batchSize - 1) / batchSize

	p.logger.Info().
		Str("run_id", runID).
		Int("records", len(records)).
		Int("batch_size", batchSize).
		Int("chunks", totalChunks).
		Msg("Starting corpus embedding run")

	embedded := make([]models.EmbeddedVerse, 0, len(records))
	failed := 0
	skipped := 0

	for start := 0; start < len(records); start += batchSize {
		if err := ctx.Err(); err != nil {
			p.logger.Warn().
				Str("run_id", runID).
				Int("embedded", len(embedded)).
				Msg("Embedding run cancelled, returning partial results")
			return embedded, err
		}

		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		chunkNum := start/batchSize + 1

		p.logger.Info().
			Str("run_id", runID).
			Int("chunk", chunkNum).
			Int("total_chunks", totalChunks).
			Int("from", start+1).
			Int("to", end).
			Msg("Embedding chunk")

		// One result slot per chunk item, filled by index, so output order
		// follows input order rather than completion order.
		results := make([]*models.EmbeddedVerse, len(chunk))

		pool := workers.NewPool(ctx, len(chunk), p.logger)
		pool.Start()

		for j, record := range chunk {
			j, record := j, record

			if strings.TrimSpace(record.Text) == "" {
				p.logger.Warn().
					Str("verse", record.LocationLabel()).
					Msg("Skipping blank verse text")
				skipped++
				continue
			}

			job := func(jobCtx context.Context) error {
				vector, err := p.embedder.Embed(jobCtx, record.Text)
				if err != nil {
					p.logger.Error().
						Err(err).
						Str("verse", record.LocationLabel()).
						Msg("Verse embedding failed, dropping from run")
					return nil
				}

				results[j] = &models.EmbeddedVerse{
					VerseRecord: record,
					Embedding:   vector,
				}
				return nil
			}

			if err := pool.Submit(job); err != nil {
				p.logger.Error().
					Err(err).
					Str("verse", record.LocationLabel()).
					Msg("Failed to submit embedding job")
			}
		}

		pool.Wait()

		for _, result := range results {
			if result != nil {
				embedded = append(embedded, *result)
			}
		}
		for j, result := range results {
			if result == nil && strings.TrimSpace(chunk[j].Text) != "" {
				failed++
			}
		}

		// Fixed pause between chunks: backpressure against provider rate
		// limits, not a correctness requirement.
		if end < len(records) && p.config.InterBatchDelay > 0 {
			select {
			case <-ctx.Done():
				return embedded, ctx.Err()
			case <-time.After(p.config.InterBatchDelay):
			}
		}
	}

	p.logger.Info().
		Str("run_id", runID).
		Int("embedded", len(embedded)).
		Int("failed", failed).
		Int("skipped", skipped).
		Msg("Corpus embedding run complete")

	return embedded, nil
}
