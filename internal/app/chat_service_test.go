package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carecompanion/internal/app"
)

func TestChatService_Chat(t *testing.T) {
	var prompt string
	model := &mockChatModel{
		generateFn: func(_ context.Context, p string) (string, error) {
			prompt = p
			return "  Drink water and rest.  ", nil
		},
	}
	repo := &mockChatRepo{}
	svc := app.NewChatService(model, repo, zap.NewNop())

	reply, err := svc.Chat(context.Background(), "u-1", " I feel dizzy ")
	require.NoError(t, err)
	assert.Equal(t, "Drink water and rest.", reply.Response)
	assert.Equal(t, "u-1_chat", reply.SessionID)
	assert.True(t, strings.HasSuffix(prompt, "User: I feel dizzy"))

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "I feel dizzy", repo.inserted[0].Message)
}

func TestChatService_EmptyModelReply(t *testing.T) {
	model := &mockChatModel{generateFn: func(context.Context, string) (string, error) { return "", nil }}
	reply, err := app.NewChatService(model, &mockChatRepo{}, zap.NewNop()).Chat(context.Background(), "u-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, no response generated.", reply.Response)
}

func TestChatService_Rejects(t *testing.T) {
	svc := app.NewChatService(&mockChatModel{}, &mockChatRepo{}, zap.NewNop())
	var verr *app.ValidationError

	_, err := svc.Chat(context.Background(), "u-1", "   ")
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Chat(context.Background(), "u-1", strings.Repeat("a", 4001))
	assert.ErrorAs(t, err, &verr)
}

func TestChatService_ModelFailure(t *testing.T) {
	repo := &mockChatRepo{}
	model := &mockChatModel{generateFn: func(context.Context, string) (string, error) { return "", errors.New("quota") }}

	_, err := app.NewChatService(model, repo, zap.NewNop()).Chat(context.Background(), "u-1", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, app.ErrModelFailed)
	assert.Equal(t, "chat processing failed: quota", err.Error())
	assert.Empty(t, repo.inserted)
}

func TestChatService_StoreFailureIsNotAModelFailure(t *testing.T) {
	dbErr := errors.New("pq: relation does not exist")
	repo := &failingChatRepo{err: dbErr}

	_, err := app.NewChatService(&mockChatModel{}, repo, zap.NewNop()).Chat(context.Background(), "u-1", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, app.ErrModelFailed)
}

func TestChatService_Disabled(t *testing.T) {
	svc := app.NewChatService(nil, &mockChatRepo{}, zap.NewNop())
	assert.False(t, svc.Enabled())

	_, err := svc.Chat(context.Background(), "u-1", "hi")
	assert.ErrorIs(t, err, app.ErrUnavailable)
}
