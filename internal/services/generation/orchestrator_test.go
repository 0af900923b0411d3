package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"github.com/ternarybob/scriptura/internal/models"
)

type stubGenerator struct {
	answer string
	err    error
	gotReq *interfaces.GenerateRequest
}

func (s *stubGenerator) Generate(ctx context.Context, request *interfaces.GenerateRequest) (string, error) {
	s.gotReq = request
	return s.answer, s.err
}

func (s *stubGenerator) ModelName() string { return "stub" }

func sampleMatches() []models.RetrievalMatch {
	return []models.RetrievalMatch{
		{Score: 0.93, Metadata: models.EntryMetadata{Book: "요한복음", Chapter: "3", Verse: "16", Text: "하나님이 세상을 이처럼 사랑하사"}},
		{Score: 0.88, Metadata: models.EntryMetadata{Book: "로마서", Chapter: "5", Verse: "8", Text: "우리가 아직 죄인 되었을 때에"}},
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Run("contains citations and query in order", func(t *testing.T) {
		prompt := BuildPrompt("사랑에 대한 설교 아이디어", sampleMatches())

		refIdx := strings.Index(prompt, "[참조 성경 구절]")
		firstIdx := strings.Index(prompt, "요한복음 3:16: 하나님이 세상을 이처럼 사랑하사")
		secondIdx := strings.Index(prompt, "로마서 5:8: 우리가 아직 죄인 되었을 때에")
		questionIdx := strings.Index(prompt, "[사용자 질문]")
		queryIdx := strings.Index(prompt, "사랑에 대한 설교 아이디어")
		answerIdx := strings.Index(prompt, "[답변]")

		for name, idx := range map[string]int{
			"reference header": refIdx,
			"first citation":   firstIdx,
			"second citation":  secondIdx,
			"question header":  questionIdx,
			"query":            queryIdx,
			"answer header":    answerIdx,
		} {
			if idx < 0 {
				t.Fatalf("prompt missing %s:\n%s", name, prompt)
			}
		}

		if !(refIdx < firstIdx && firstIdx < secondIdx && secondIdx < questionIdx && questionIdx < queryIdx && queryIdx < answerIdx) {
			t.Errorf("prompt sections out of order:\n%s", prompt)
		}
	})

	t.Run("citations are separated by a blank line", func(t *testing.T) {
		prompt := BuildPrompt("질문", sampleMatches())

		if !strings.Contains(prompt, "사랑하사\n\n로마서") {
			t.Errorf("citations not blank-line separated:\n%s", prompt)
		}
	})

	t.Run("zero matches still carries the query", func(t *testing.T) {
		prompt := BuildPrompt("고난에 대한 질문", nil)

		if !strings.Contains(prompt, "고난에 대한 질문") {
			t.Errorf("prompt missing query:\n%s", prompt)
		}
		if !strings.Contains(prompt, "[참조 성경 구절]") {
			t.Errorf("prompt missing reference header:\n%s", prompt)
		}
	})
}

func TestAnswer(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("returns generated answer", func(t *testing.T) {
		generator := &stubGenerator{answer: "설교 아이디어입니다."}
		orchestrator := NewOrchestrator(generator, logger)

		answer, err := orchestrator.Answer(context.Background(), "질문", sampleMatches())
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if answer != "설교 아이디어입니다." {
			t.Errorf("answer = %q", answer)
		}
		if generator.gotReq.SystemInstruction == "" {
			t.Error("system instruction not set")
		}
		if !strings.Contains(generator.gotReq.Prompt, "질문") {
			t.Error("prompt missing query")
		}
	})

	t.Run("generator failure wraps into generation error", func(t *testing.T) {
		generator := &stubGenerator{err: errors.New("model overloaded")}
		orchestrator := NewOrchestrator(generator, logger)

		_, err := orchestrator.Answer(context.Background(), "질문", nil)

		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("err = %T, want *GenerationError", err)
		}
		if !errors.Is(err, generator.err) {
			t.Error("wrapped error should unwrap to the generator failure")
		}
	})

	t.Run("empty answer payload is an error", func(t *testing.T) {
		generator := &stubGenerator{answer: "   "}
		orchestrator := NewOrchestrator(generator, logger)

		_, err := orchestrator.Answer(context.Background(), "질문", nil)

		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("err = %T, want *GenerationError", err)
		}
	})

	t.Run("empty query is rejected before calling the model", func(t *testing.T) {
		generator := &stubGenerator{answer: "unused"}
		orchestrator := NewOrchestrator(generator, logger)

		if _, err := orchestrator.Answer(context.Background(), "  ", nil); err == nil {
			t.Fatal("expected error for empty query")
		}
		if generator.gotReq != nil {
			t.Error("generator must not be called for an empty query")
		}
	})

	t.Run("model override passes through", func(t *testing.T) {
		generator := &stubGenerator{answer: "답변"}
		orchestrator := NewOrchestrator(generator, logger).WithModel("claude-haiku-3-5-20241022")

		if _, err := orchestrator.Answer(context.Background(), "질문", nil); err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if generator.gotReq.Model != "claude-haiku-3-5-20241022" {
			t.Errorf("Model = %q", generator.gotReq.Model)
		}
	})

	t.Run("output schema passes through", func(t *testing.T) {
		generator := &stubGenerator{answer: `{"ideas":[]}`}
		orchestrator := NewOrchestrator(generator, logger)

		schema := map[string]interface{}{"type": "object"}
		if _, err := orchestrator.AnswerWithConfig(context.Background(), "질문", nil, schema); err != nil {
			t.Fatalf("AnswerWithConfig: %v", err)
		}
		if generator.gotReq.OutputSchema == nil {
			t.Error("output schema not passed through")
		}
	})
}
