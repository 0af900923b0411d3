package llm

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/common"
	"github.com/ternarybob/scriptura/internal/interfaces"
)

// DetectProvider determines the provider from a model string.
// "claude/..." or "claude-..." selects Claude; "gemini/..." or "gemini-..."
// selects Gemini; empty or unrecognized strings fall back to the configured
// default provider.
func DetectProvider(model string, fallback common.LLMProvider) common.LLMProvider {
	if model == "" {
		return fallback
	}

	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") || strings.HasPrefix(model, "claude-") {
		return common.LLMProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") || strings.HasPrefix(model, "gemini-") {
		return common.LLMProviderGemini
	}

	return fallback
}

// NormalizeModel removes a provider prefix from a model name if present.
func NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// NewGenerator creates the generation provider selected by configuration
// (and optionally overridden by a model string). The Gemini service is
// reused when it is already constructed for embeddings.
func NewGenerator(config *common.Config, model string, gemini *GeminiService, auditLogger interfaces.AuditLogger, logger arbor.ILogger) (interfaces.Generator, error) {
	provider := DetectProvider(model, config.LLM.DefaultProvider)

	switch provider {
	case common.LLMProviderClaude:
		return NewClaudeService(config, auditLogger, logger)
	default:
		if gemini != nil {
			return gemini, nil
		}
		return NewGeminiService(config, auditLogger, logger)
	}
}
