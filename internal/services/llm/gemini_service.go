package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/common"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiService provides embeddings and text generation via the Gemini API.
// It implements both interfaces.Embedder and interfaces.Generator. All
// provider responses are validated here; callers see typed results only.
type GeminiService struct {
	config  *common.GeminiConfig
	retry   *RetryPolicy
	audit   interfaces.AuditLogger
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiService creates a new Gemini service instance. Fails before any
// work when the API key is missing.
func NewGeminiService(config *common.Config, auditLogger interfaces.AuditLogger, logger arbor.ILogger) (*GeminiService, error) {
	if err := config.RequireGemini(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  &config.Gemini,
		retry:   NewRetryPolicy(config.Pipeline.MaxRetries, config.Pipeline.InitialDelay, logger),
		audit:   auditLogger,
		logger:  logger,
		client:  client,
		timeout: config.LLM.Timeout,
	}

	logger.Info().
		Str("embed_model", config.Gemini.EmbedModel).
		Str("model", config.Gemini.Model).
		Int("embed_dimension", config.Gemini.EmbedDimension).
		Dur("timeout", config.LLM.Timeout).
		Msg("Gemini service initialized")

	return service, nil
}

// Embed generates an embedding vector for the given text, retrying transient
// failures per the retry policy. Exhausting retries returns *EmbeddingError
// wrapping the last provider error; callers must not retry further.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmbeddingError{Err: fmt.Errorf("text cannot be empty")}
	}

	start := time.Now()

	var embedding []float32
	err := s.retry.Do(ctx, "embed", func(ctx context.Context) error {
		var callErr error
		embedding, callErr = s.embedOnce(ctx, text)
		return callErr
	})

	duration := time.Since(start)
	s.logAudit("embed", err == nil, duration, err, text)

	if err != nil {
		s.logger.Error().
			Err(err).
			Int("text_length", len(text)).
			Msg("Embedding failed after retries")
		return nil, &EmbeddingError{Err: err}
	}

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", duration).
		Msg("Generated embedding")

	return embedding, nil
}

// embedOnce issues a single EmbedContent call with the per-call timeout.
func (s *GeminiService) embedOnce(ctx context.Context, text string) ([]float32, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputDim := int32(s.config.EmbedDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModel, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}

	if embedding == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	if len(embedding) != s.config.EmbedDimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.EmbedDimension, len(embedding))
	}

	return embedding, nil
}

// Dimension returns the embedding model's output dimensionality.
func (s *GeminiService) Dimension() int {
	return s.config.EmbedDimension
}

// ModelName returns the generation model identifier.
func (s *GeminiService) ModelName() string {
	return s.config.Model
}

// Generate calls the generation model once and returns the response text.
// Transport-level retries apply per the retry policy; the response is
// validated for a non-empty text payload.
func (s *GeminiService) Generate(ctx context.Context, request *interfaces.GenerateRequest) (string, error) {
	if request == nil || strings.TrimSpace(request.Prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	model := request.Model
	if model == "" {
		model = s.config.Model
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = s.config.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}

	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}

	// When a schema is provided, Gemini enforces JSON output matching it.
	// Used by callers requesting structured verse/theme suggestions.
	if len(request.OutputSchema) > 0 {
		genaiSchema, err := convertToGenaiSchema(request.OutputSchema)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to convert output schema")
			// Continue without schema rather than failing
		} else if genaiSchema != nil {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = genaiSchema
		}
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(request.Prompt)},
	}}

	start := time.Now()

	var text string
	err := s.retry.Do(ctx, "generate", func(ctx context.Context) error {
		timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, callErr := s.client.Models.GenerateContent(timeoutCtx, model, contents, config)
		if callErr != nil {
			return fmt.Errorf("generation failed: %w", callErr)
		}

		if resp == nil || len(resp.Candidates) == 0 {
			return fmt.Errorf("empty response from generation model")
		}

		text = resp.Text()
		if text == "" {
			return fmt.Errorf("no text in generation response")
		}

		return nil
	})

	duration := time.Since(start)
	s.logAudit("generate", err == nil, duration, err, request.Prompt)

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", model).
			Msg("Generation failed")
		return "", err
	}

	s.logger.Info().
		Str("model", model).
		Int("prompt_length", len(request.Prompt)).
		Int("response_length", len(text)).
		Dur("duration", duration).
		Msg("Generation completed")

	return text, nil
}

// Close releases the client reference. The genai client holds no resources
// needing explicit cleanup.
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

func (s *GeminiService) logAudit(operation string, success bool, duration time.Duration, err error, queryText string) {
	if s.audit == nil {
		return
	}

	model := s.config.Model
	if operation == "embed" {
		model = s.config.EmbedModel
	}

	var auditErr error
	switch operation {
	case "embed":
		auditErr = s.audit.LogEmbed("gemini", model, success, duration, err, queryText)
	default:
		auditErr = s.audit.LogGenerate("gemini", model, success, duration, err, queryText)
	}
	if auditErr != nil {
		s.logger.Warn().Err(auditErr).Str("operation", operation).Msg("Failed to write audit entry")
	}
}

// convertToGenaiSchema converts a map representation of a JSON schema to a
// genai.Schema. Supports the object/array shapes the callers declare.
func convertToGenaiSchema(schemaMap map[string]interface{}) (*genai.Schema, error) {
	if len(schemaMap) == 0 {
		return nil, nil
	}

	schema := &genai.Schema{}

	if typeStr, ok := schemaMap["type"].(string); ok {
		switch strings.ToLower(typeStr) {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		}
	}

	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}

	if enumVals, ok := schemaMap["enum"].([]interface{}); ok {
		for _, v := range enumVals {
			if s, ok := v.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	} else if enumVals, ok := schemaMap["enum"].([]string); ok {
		schema.Enum = enumVals
	}

	if reqVals, ok := schemaMap["required"].([]interface{}); ok {
		for _, v := range reqVals {
			if s, ok := v.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	} else if reqVals, ok := schemaMap["required"].([]string); ok {
		schema.Required = reqVals
	}

	if itemsMap, ok := schemaMap["items"].(map[string]interface{}); ok {
		itemSchema, err := convertToGenaiSchema(itemsMap)
		if err != nil {
			return nil, fmt.Errorf("failed to convert items schema: %w", err)
		}
		schema.Items = itemSchema
	}

	if propsMap, ok := schemaMap["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for propName, propVal := range propsMap {
			if propMap, ok := propVal.(map[string]interface{}); ok {
				propSchema, err := convertToGenaiSchema(propMap)
				if err != nil {
					return nil, fmt.Errorf("failed to convert property '%s': %w", propName, err)
				}
				schema.Properties[propName] = propSchema
			}
		}
	}

	return schema, nil
}
