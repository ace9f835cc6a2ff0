package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
)

func TestAnswerService_Answer(t *testing.T) {
	store := setupForestStore(t)
	seedVector(t, store, "item-b", []float32{1, 0})
	seedVector(t, store, "item-c", []float32{0.9, 0.1})

	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	chat := &mockChatService{reply: "Basil, per your soup notes [1](((item-b)))."}
	service := NewAnswerService(store, embedder, chat)

	answer, err := service.Answer(context.Background(), "what goes in the soup?", driving.AnswerOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Basil, per your soup notes [1](((item-b))).", answer)

	// The conversation alternates framing and content: system prompt,
	// question, notes, question again, format instructions.
	msgs := chat.received
	require.Len(t, msgs, 7)
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{"system", "user", "system", "user", "system", "user", "system"}, roles)
	assert.Equal(t, "what goes in the soup?", msgs[1].Content)
	assert.Equal(t, "what goes in the soup?", msgs[5].Content)
	assert.Contains(t, msgs[3].Content, "[*](((item-b)))")
	assert.Contains(t, msgs[3].Content, "[[Alpha]]")
}

func TestAnswerService_Answer_EmptyQuestion(t *testing.T) {
	store := setupForestStore(t)
	service := NewAnswerService(store, &mockEmbeddingService{}, &mockChatService{})

	_, err := service.Answer(context.Background(), "  ", driving.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswerService_Answer_NoChatService(t *testing.T) {
	store := setupForestStore(t)
	service := NewAnswerService(store, &mockEmbeddingService{}, nil)

	_, err := service.Answer(context.Background(), "anything", driving.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestAnswerService_Answer_RetrievalFailure(t *testing.T) {
	// No stored vectors: retrieval fails and no chat call happens.
	store := setupForestStore(t)
	chat := &mockChatService{reply: "never"}
	service := NewAnswerService(store, &mockEmbeddingService{embedding: []float32{1}}, chat)

	_, err := service.Answer(context.Background(), "anything", driving.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Nil(t, chat.received)
}

func TestAnswerService_Answer_ChatFailure(t *testing.T) {
	store := setupForestStore(t)
	seedVector(t, store, "item-b", []float32{1, 0})

	chatErr := errors.New("model overloaded")
	service := NewAnswerService(store,
		&mockEmbeddingService{embedding: []float32{1, 0}},
		&mockChatService{chatErr: chatErr})

	_, err := service.Answer(context.Background(), "anything", driving.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, chatErr)
}
