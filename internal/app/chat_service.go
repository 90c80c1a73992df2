package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"carecompanion/internal/domain"
)

const systemPrompt = `
You are CareCompanion, an empathetic AI for discharged patients.
- Give medical guidance, diet tips, mental support.
- Explain simply, like a caring nurse.
- If emergency signs exist, clearly advise immediate medical attention.
`

const (
	emptyReply     = "Sorry, no response generated."
	maxMessageLen  = 4000
	chatHistoryMax = 100
)

// ChatModel is the port for the generative model.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatReply is returned to the caller of ChatService.Chat.
type ChatReply struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// ChatService relays user messages to the assistant model.
type ChatService struct {
	model ChatModel
	repo  domain.ChatRepository
	log   *zap.Logger
}

// NewChatService creates a ChatService. A nil model disables chat.
func NewChatService(model ChatModel, repo domain.ChatRepository, log *zap.Logger) *ChatService {
	return &ChatService{model: model, repo: repo, log: log.Named("chat")}
}

// Enabled reports whether a model is configured.
func (s *ChatService) Enabled() bool { return s.model != nil }

// Chat sends message to the model and records the exchange.
func (s *ChatService) Chat(ctx context.Context, userID, message string) (*ChatReply, error) {
	if s.model == nil {
		return nil, ErrUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalid("message is required")
	}
	if len(message) > maxMessageLen {
		return nil, invalid(fmt.Sprintf("message must be at most %d bytes", maxMessageLen))
	}
	s.log.Info("chat", zap.String("user_id", userID))

	reply, err := s.model.Generate(ctx, systemPrompt+"\nUser: "+message)
	if err != nil {
		s.log.Error("chat model failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrModelFailed, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = emptyReply
	}

	if _, err := s.repo.InsertChat(ctx, domain.ChatExchange{UserID: userID, Message: message, Response: reply}); err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	return &ChatReply{Response: reply, SessionID: userID + "_chat"}, nil
}

// History returns the user's past exchanges, newest first.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]domain.ChatExchange, error) {
	if limit <= 0 || limit > chatHistoryMax {
		limit = chatHistoryMax
	}
	return s.repo.ListChats(ctx, userID, limit)
}
