package usecase

import (
	"context"
	"fmt"
	"time"

	"lexrag/internal/domain"
	"lexrag/internal/logging"
	"lexrag/internal/metrics"
	"lexrag/internal/port"
	"lexrag/internal/prompt"
)

// AnswerUseCase runs the question pipeline end to end: retrieval, context
// assembly and generation.
type AnswerUseCase struct {
	retrieve *RetrieveUseCase
	pack     *PackUseCase
	llm      port.LLM
	metrics  *metrics.Metrics
	logger   logging.Logger
}

func NewAnswerUseCase(
	retrieve *RetrieveUseCase,
	pack *PackUseCase,
	llm port.LLM,
	m *metrics.Metrics,
	logger logging.Logger,
) *AnswerUseCase {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnswerUseCase{retrieve: retrieve, pack: pack, llm: llm, metrics: m, logger: logger}
}

// Answer is the outcome of one question.
type Answer struct {
	Query    string
	Text     string
	Vector   *domain.RetrievalContext
	External *domain.RetrievalContext
}

// Ask answers query. With a conversation id the exchange is recorded in that
// LLM conversation. Generation errors are returned; an empty model output is
// returned as an empty answer.
func (u *AnswerUseCase) Ask(ctx context.Context, query, conversationID string) (*Answer, error) {
	vector, external, err := u.retrieve.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	vectorText, externalText := u.pack.Pack(vector, external)
	text, err := u.Generate(ctx, query, vectorText, externalText, conversationID)
	if err != nil {
		return nil, err
	}

	u.metrics.IncQuestions()
	return &Answer{Query: query, Text: text, Vector: vector, External: external}, nil
}

// Generate renders the answer prompt and calls the model.
func (u *AnswerUseCase) Generate(ctx context.Context, query, vectorContext, externalContext, conversationID string) (string, error) {
	p, err := prompt.Render(prompt.Answer, prompt.AnswerData{
		Query:           query,
		VectorContext:   vectorContext,
		ExternalContext: externalContext,
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	gen, err := u.llm.Generate(ctx, port.GenerateRequest{Prompt: p, ConversationID: conversationID})
	u.metrics.ObserveStage(metrics.StageGenerate, start)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	if gen.Text == "" {
		u.logger.Warn("model returned no text", logging.String("conversation_id", conversationID))
	}
	return gen.Text, nil
}

// FormatAnswerFile renders the answer.txt layout.
func FormatAnswerFile(query, answer string) string {
	return "=== 사용자 질문 ===\n" + query + "\n=== 생성된 답변 ===\n" + answer
}
