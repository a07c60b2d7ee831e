package service

import (
	"context"
	"errors"
	"strings"

	"quote-desk/internal/domain"
	"quote-desk/internal/llm"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxChatMessages = 40

var ErrEmptyConversation = errors.New("messages must contain at least one non-empty message")

// ChatService forwards a conversation to the configured model provider.
type ChatService struct {
	tracer trace.Tracer
	llm    ChatCompleter
}

func NewChatService(tracer trace.Tracer, llm ChatCompleter) *ChatService {
	return &ChatService{tracer: tracer, llm: llm}
}

func (s *ChatService) Configured() bool {
	return s.llm != nil && s.llm.Configured()
}

// Chat keeps the most recent messages, drops empty ones, and returns the model reply.
// It returns llm.ErrNotConfigured when no provider key is set.
func (s *ChatService) Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatReply, error) {
	ctx, span := s.tracer.Start(ctx, "chat-service.chat")
	defer span.End()

	if !s.Configured() {
		return domain.ChatReply{}, llm.ErrNotConfigured
	}

	cleaned := make([]domain.ChatMessage, 0, len(messages))
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "system" && role != "assistant" {
			role = "user"
		}
		cleaned = append(cleaned, domain.ChatMessage{Role: role, Content: content})
	}
	if len(cleaned) == 0 {
		return domain.ChatReply{}, ErrEmptyConversation
	}
	if len(cleaned) > maxChatMessages {
		cleaned = cleaned[len(cleaned)-maxChatMessages:]
	}
	span.SetAttributes(attribute.Int("messages", len(cleaned)))

	return s.llm.Chat(ctx, cleaned)
}
