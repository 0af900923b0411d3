package main

import (
	"github.com/spf13/cobra"
	"github.com/ternarybob/scriptura/internal/services/corpus"
	"github.com/ternarybob/scriptura/internal/services/llm"
	"github.com/ternarybob/scriptura/internal/services/pipeline"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed the verse corpus and write the artifact file",
	Long: `Reads the corpus file (one verse per line), embeds every verse in
batches, and writes the embedded corpus to the artifact file. Verses that
fail to embed are logged and dropped; the run continues.`,
	Run: runEmbed,
}

var (
	embedCorpusPath   string
	embedArtifactPath string
)

func init() {
	embedCmd.Flags().StringVar(&embedCorpusPath, "corpus", "", "Corpus file path (overrides config)")
	embedCmd.Flags().StringVar(&embedArtifactPath, "out", "", "Artifact output path (overrides config)")
}

func runEmbed(cmd *cobra.Command, args []string) {
	corpusPath := config.Corpus.Path
	if embedCorpusPath != "" {
		corpusPath = embedCorpusPath
	}
	artifactPath := config.Corpus.ArtifactPath
	if embedArtifactPath != "" {
		artifactPath = embedArtifactPath
	}

	ctx, stop := signalContext()
	defer stop()

	auditLogger, closeAudit := openAudit()
	defer closeAudit()

	gemini, err := llm.NewGeminiService(config, auditLogger, logger)
	if err != nil {
		fatal(err, "Failed to initialize embedding client")
	}
	defer gemini.Close()

	ingestor := corpus.NewIngestor(logger)
	records, err := ingestor.LoadFile(corpusPath)
	if err != nil {
		fatal(err, "Failed to load corpus")
	}
	if len(records) == 0 {
		logger.Warn().Str("path", corpusPath).Msg("Corpus is empty, nothing to embed")
		return
	}

	embedded, runErr := pipeline.NewPipeline(gemini, &config.Pipeline, logger).Run(ctx, records)
	if runErr != nil {
		// Cancellation still flushes what finished so the run can resume
		logger.Warn().Err(runErr).Int("embedded", len(embedded)).Msg("Embedding run interrupted, writing partial artifact")
	}

	if err := pipeline.WriteArtifact(artifactPath, embedded); err != nil {
		fatal(err, "Failed to write artifact")
	}

	logger.Info().
		Int("verses", len(records)).
		Int("embedded", len(embedded)).
		Str("artifact", artifactPath).
		Msg("Embedding complete")
}
