package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/llm"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
)

const (
	chatMatchCount  = 5
	chatTemperature = 0.3
	chatMaxTokens   = 512
)

// ChatbotService answers operator questions about the dispatch system,
// grounding replies in retrieved knowledge snippets and live status counts.
type ChatbotService interface {
	Ask(ctx context.Context, question string) (string, error)
	AddDocument(ctx context.Context, content string) (*models.ChatDocument, error)
}

type chatbotService struct {
	chatRepo repositories.ChatRepository
	llm      llm.ChatClient
	stats    StatsService
	logger   *zap.Logger
}

// NewChatbotService creates a new chatbot service.
func NewChatbotService(
	chatRepo repositories.ChatRepository,
	llmClient llm.ChatClient,
	stats StatsService,
	logger *zap.Logger,
) ChatbotService {
	return &chatbotService{
		chatRepo: chatRepo,
		llm:      llmClient,
		stats:    stats,
		logger:   logger.Named("chatbot"),
	}
}

func (s *chatbotService) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperrors.Validation("question", "question is required")
	}

	embedding, err := s.llm.EmbedText(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	docs, err := s.chatRepo.MatchDocuments(ctx, embedding, chatMatchCount)
	if err != nil {
		return "", fmt.Errorf("failed to match documents: %w", err)
	}

	// Live counts go into the prompt so "how many pending cases" style
	// questions get real numbers, not retrieved text.
	counts, err := s.stats.CountByStatus(ctx)
	if err != nil {
		s.logger.Warn("Status counts unavailable for chat context", zap.Error(err))
		counts = &models.StatusCounts{}
	}

	prompt := buildChatPrompt(question, docs, counts)
	answer, err := s.llm.GenerateResponse(ctx, prompt, chatTemperature, chatMaxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	s.logger.Info("Chat question answered",
		zap.Int("matched_docs", len(docs)),
		zap.Int("question_len", len(question)))
	return answer, nil
}

func buildChatPrompt(question string, docs []*models.ChatDocument, counts *models.StatusCounts) string {
	var b strings.Builder
	b.WriteString("You are the assistant for an SOS emergency dispatch system. ")
	b.WriteString("Answer using only the context below. If the context does not cover the question, say so.\n\n")

	fmt.Fprintf(&b, "Current request counts: total=%d pending=%d in_progress=%d complete=%d\n\n",
		counts.TotalRequests, counts.PendingCount, counts.InProgressCount, counts.CompleteCount)

	if len(docs) > 0 {
		b.WriteString("Context:\n")
		for i, doc := range docs {
			fmt.Fprintf(&b, "%d. %s\n", i+1, doc.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\nAnswer:", question)
	return b.String()
}

// AddDocument embeds and stores a knowledge snippet for later retrieval.
func (s *chatbotService) AddDocument(ctx context.Context, content string) (*models.ChatDocument, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content", "content is required")
	}

	embedding, err := s.llm.EmbedText(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document: %w", err)
	}
	doc, err := s.chatRepo.InsertDocument(ctx, content, embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	s.logger.Info("Knowledge document added", zap.String("doc_id", doc.ID.String()))
	return doc, nil
}

var _ ChatbotService = (*chatbotService)(nil)
