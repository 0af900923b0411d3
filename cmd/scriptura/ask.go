package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scriptura/internal/services/generation"
	"github.com/ternarybob/scriptura/internal/services/llm"
	"github.com/ternarybob/scriptura/internal/services/pinecone"
	"github.com/ternarybob/scriptura/internal/services/retrieval"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question grounded in the verse index",
	Long: `Embeds the question, retrieves the nearest verses from the Pinecone
index, and generates a grounded answer for sermon preparation.`,
	Args: cobra.ExactArgs(1),
	Run:  runAsk,
}

var (
	askModel       string
	askTopK        int
	askShowSources bool
)

func init() {
	askCmd.Flags().StringVar(&askModel, "model", "", "Generation model (overrides the configured default provider)")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of verses to retrieve (overrides config)")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "Print the retrieved verses before the answer")
}

func runAsk(cmd *cobra.Command, args []string) {
	question := args[0]

	if err := config.RequirePinecone(); err != nil {
		fatal(err, "Pinecone is not configured")
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

	generator, err := llm.NewGenerator(config, askModel, gemini, auditLogger, logger)
	if err != nil {
		fatal(err, "Failed to initialize generation client")
	}

	client := pinecone.NewClient(
		config.Pinecone.IndexHost,
		config.Pinecone.APIKey,
		pinecone.WithLogger(logger),
		pinecone.WithRateLimit(config.Pinecone.RateLimit),
		pinecone.WithTimeout(config.Pinecone.RequestTimeout),
	)

	topK := config.Retrieval.TopK
	if askTopK > 0 {
		topK = askTopK
	}

	matches, err := retrieval.NewService(gemini, client, topK, logger).Retrieve(ctx, question)
	if err != nil {
		fatal(err, "Retrieval failed")
	}
	if len(matches) == 0 {
		logger.Warn().Msg("No matching verses found, answering without grounding")
	}

	if askShowSources {
		fmt.Println("References:")
		for _, match := range matches {
			fmt.Printf("  [%.3f] %s\n", match.Score, match.Metadata.Book+" "+match.Metadata.Chapter+":"+match.Metadata.Verse)
		}
		fmt.Println()
	}

	orchestrator := generation.NewOrchestrator(generator, logger).WithModel(llm.NormalizeModel(askModel))
	answer, err := orchestrator.Answer(ctx, question, matches)
	if err != nil {
		fatal(err, "Generation failed")
	}

	fmt.Println(answer)
}
