package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"github.com/ternarybob/scriptura/internal/models"
)

// systemInstruction frames the assistant for sermon preparation. The prompt
// structure (reference verses block, then the user question) matches the one
// the index was tuned against.
const systemInstruction = `당신은 기독교 설교 준비를 돕는 AI 비서입니다.
제공된 [참조 성경 구절]을 바탕으로, [사용자 질문]에 대해 깊이 있고 성경적인 관점에서 설교 아이디어나 주석을 한국어로 생성해 주세요.
설교 아이디어는 구체적이고 실용적인 내용으로 구성해 주십시오.`

// GenerationError indicates the generation call failed or the model returned
// a response without the expected text payload. Not retried at this layer.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Orchestrator assembles a grounded prompt from retrieved verses and the
// user query, and calls the generation model once. One request, one response;
// no streaming, no multi-turn state.
type Orchestrator struct {
	generator interfaces.Generator
	model     string
	logger    arbor.ILogger
}

// NewOrchestrator creates a generation orchestrator
func NewOrchestrator(generator interfaces.Generator, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		logger:    logger,
	}
}

// WithModel overrides the generator's configured model for subsequent calls.
// An empty model keeps the provider default.
func (o *Orchestrator) WithModel(model string) *Orchestrator {
	o.model = model
	return o
}

// Answer generates a grounded answer for the query. With zero matches the
// prompt still carries the literal user query, degrading gracefully to
// ungrounded generation rather than failing.
func (o *Orchestrator) Answer(ctx context.Context, query string, matches []models.RetrievalMatch) (string, error) {
	return o.AnswerWithConfig(ctx, query, matches, nil)
}

// AnswerWithConfig is Answer with an optional structured-output schema passed
// through to the generation provider unchanged.
func (o *Orchestrator) AnswerWithConfig(ctx context.Context, query string, matches []models.RetrievalMatch, outputSchema map[string]interface{}) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", &GenerationError{Err: fmt.Errorf("query cannot be empty")}
	}

	prompt := BuildPrompt(query, matches)

	o.logger.Debug().
		Int("matches", len(matches)).
		Int("prompt_length", len(prompt)).
		Msg("Calling generation model")

	answer, err := o.generator.Generate(ctx, &interfaces.GenerateRequest{
		Prompt:            prompt,
		Model:             o.model,
		SystemInstruction: systemInstruction,
		OutputSchema:      outputSchema,
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	if strings.TrimSpace(answer) == "" {
		return "", &GenerationError{Err: fmt.Errorf("generation model returned empty answer")}
	}

	return answer, nil
}

// BuildPrompt concatenates the matches' citations, blank-line separated and
// in the order received from retrieval, followed by the literal user query.
func BuildPrompt(query string, matches []models.RetrievalMatch) string {
	citations := make([]string, 0, len(matches))
	for _, match := range matches {
		citations = append(citations, match.Citation())
	}

	var builder strings.Builder
	builder.WriteString("[참조 성경 구절]\n")
	builder.WriteString(strings.Join(citations, "\n\n"))
	builder.WriteString("\n\n[사용자 질문]\n")
	builder.WriteString(query)
	builder.WriteString("\n\n[답변]\n")

	return builder.String()
}
