package domain

import (
	"context"
	"time"
)

// ChatExchange is one message sent to the assistant and its reply.
type ChatExchange struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRepository is the port for chat history persistence.
type ChatRepository interface {
	InsertChat(ctx context.Context, c ChatExchange) (*ChatExchange, error)
	ListChats(ctx context.Context, userID string, limit int) ([]ChatExchange, error)
}
