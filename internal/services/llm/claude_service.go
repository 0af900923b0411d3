package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/common"
	"github.com/ternarybob/scriptura/internal/interfaces"
)

// ClaudeService provides text generation via the Anthropic API. Generation
// only: embeddings always come from Gemini, since the vector index was
// populated with Gemini embeddings and mixing embedding spaces would break
// retrieval.
type ClaudeService struct {
	config  *common.ClaudeConfig
	retry   *RetryPolicy
	audit   interfaces.AuditLogger
	logger  arbor.ILogger
	client  anthropic.Client
	timeout time.Duration
}

// NewClaudeService creates a new Claude generation service. Fails before any
// work when the API key is missing.
func NewClaudeService(config *common.Config, auditLogger interfaces.AuditLogger, logger arbor.ILogger) (*ClaudeService, error) {
	if err := config.RequireClaude(); err != nil {
		return nil, err
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.Claude.APIKey),
	)

	service := &ClaudeService{
		config:  &config.Claude,
		retry:   NewRetryPolicy(config.Pipeline.MaxRetries, config.Pipeline.InitialDelay, logger),
		audit:   auditLogger,
		logger:  logger,
		client:  client,
		timeout: config.LLM.Timeout,
	}

	logger.Info().
		Str("model", config.Claude.Model).
		Dur("timeout", config.LLM.Timeout).
		Msg("Claude service initialized")

	return service, nil
}

// ModelName returns the generation model identifier.
func (s *ClaudeService) ModelName() string {
	return s.config.Model
}

// Generate calls the generation model once and returns the response text.
// OutputSchema is ignored: structured output is a Gemini-only capability.
func (s *ClaudeService) Generate(ctx context.Context, request *interfaces.GenerateRequest) (string, error) {
	if request == nil || strings.TrimSpace(request.Prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	if len(request.OutputSchema) > 0 {
		s.logger.Debug().Msg("Output schema requested but not supported by Claude provider, ignoring")
	}

	model := request.Model
	if model == "" {
		model = s.config.Model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(s.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = s.config.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	start := time.Now()

	var text string
	err := s.retry.Do(ctx, "generate", func(ctx context.Context) error {
		timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, callErr := s.client.Messages.New(timeoutCtx, params)
		if callErr != nil {
			return fmt.Errorf("generation failed: %w", callErr)
		}

		var builder strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				builder.WriteString(block.Text)
			}
		}

		if builder.Len() == 0 {
			return fmt.Errorf("no text in generation response")
		}

		text = builder.String()
		return nil
	})

	duration := time.Since(start)
	if s.audit != nil {
		if auditErr := s.audit.LogGenerate("claude", model, err == nil, duration, err, request.Prompt); auditErr != nil {
			s.logger.Warn().Err(auditErr).Msg("Failed to write audit entry")
		}
	}

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", model).
			Msg("Generation failed")
		return "", err
	}

	s.logger.Info().
		Str("model", model).
		Int("response_length", len(text)).
		Dur("duration", duration).
		Msg("Generation completed")

	return text, nil
}
