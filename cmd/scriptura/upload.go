package main

import (
	"github.com/spf13/cobra"
	"github.com/ternarybob/scriptura/internal/services/pinecone"
	"github.com/ternarybob/scriptura/internal/services/pipeline"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the embedded corpus artifact to the Pinecone index",
	Long: `Reads the embedded corpus artifact and upserts it to the configured
Pinecone index in chunks. Entry IDs are stable across runs, so re-uploading
the same artifact overwrites rather than duplicates.`,
	Run: runUpload,
}

var (
	uploadArtifactPath string
	uploadSkipCheck    bool
)

func init() {
	uploadCmd.Flags().StringVar(&uploadArtifactPath, "artifact", "", "Artifact file path (overrides config)")
	uploadCmd.Flags().BoolVar(&uploadSkipCheck, "skip-index-check", false, "Skip the index dimension check before uploading")
}

func runUpload(cmd *cobra.Command, args []string) {
	if err := config.RequirePinecone(); err != nil {
		fatal(err, "Pinecone is not configured")
	}

	artifactPath := config.Corpus.ArtifactPath
	if uploadArtifactPath != "" {
		artifactPath = uploadArtifactPath
	}

	ctx, stop := signalContext()
	defer stop()

	verses, err := pipeline.ReadArtifact(artifactPath)
	if err != nil {
		fatal(err, "Failed to read artifact")
	}

	client := pinecone.NewClient(
		config.Pinecone.IndexHost,
		config.Pinecone.APIKey,
		pinecone.WithLogger(logger),
		pinecone.WithRateLimit(config.Pinecone.RateLimit),
		pinecone.WithTimeout(config.Pinecone.RequestTimeout),
	)

	if !uploadSkipCheck {
		stats, err := client.DescribeIndexStats(ctx)
		if err != nil {
			fatal(err, "Failed to describe index")
		}
		if stats.Dimension != config.Gemini.EmbedDimension {
			logger.Error().
				Int("index_dimension", stats.Dimension).
				Int("configured_dimension", config.Gemini.EmbedDimension).
				Msg("Index dimension does not match configured embedding dimension")
			fatal(nil, "Dimension mismatch, refusing to upload")
		}
		logger.Info().
			Int("dimension", stats.Dimension).
			Int("existing_vectors", stats.TotalVectorCount).
			Msg("Index check passed")
	}

	writer := pinecone.NewWriter(client, &config.Pinecone, config.Gemini.EmbedDimension, logger)
	uploaded, err := writer.Upload(ctx, verses)
	if err != nil {
		logger.Warn().Err(err).Int("uploaded", uploaded).Msg("Upload interrupted")
		return
	}

	logger.Info().
		Int("uploaded", uploaded).
		Int("total", len(verses)).
		Str("index", config.Pinecone.IndexName).
		Msg("Upload complete")
}
