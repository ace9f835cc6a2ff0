package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error

	// perText, when set, overrides embedding per batch entry.
	perText func(text string) []float32
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.perText != nil {
		return m.perText(text), nil
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if m.perText != nil {
			result[i] = m.perText(text)
		} else {
			result[i] = m.embedding
		}
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return len(m.embedding) }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockChatService implements driven.ChatService for testing.
type mockChatService struct {
	reply    string
	chatErr  error
	received []driven.ChatMessage
}

func (m *mockChatService) Chat(_ context.Context, messages []driven.ChatMessage) (string, error) {
	m.received = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockChatService) ModelName() string { return "mock-chat" }

func (m *mockChatService) Close() error { return nil }

// --- Test helpers ---

// setupForestStore builds a store with two pages:
//
//	Alpha: item-a "intro" -> item-b "detail"
//	Beta:  item-c "note"
func setupForestStore(t *testing.T) *memory.NoteStore {
	t.Helper()
	store := memory.NewNoteStore()
	ctx := context.Background()
	now := time.Now().UTC()

	pages := []driven.ImportPage{
		{
			Page: domain.Page{Title: "Alpha", EditTime: now},
			Items: []domain.Item{
				{ID: "item-a", Owner: domain.RootOwner("Alpha"), Contents: "intro", Position: 0},
				{ID: "item-b", Owner: domain.ChildOwner("item-a"), Contents: "detail", Position: 0},
			},
		},
		{
			Page: domain.Page{Title: "Beta", EditTime: now},
			Items: []domain.Item{
				{ID: "item-c", Owner: domain.RootOwner("Beta"), Contents: "note", Position: 0},
			},
		},
	}

	_, err := store.ImportPages(ctx, pages)
	require.NoError(t, err)
	return store
}

// seedVector stores an embedding for an item.
func seedVector(t *testing.T, store *memory.NoteStore, itemID string, vector []float32) {
	t.Helper()
	err := store.UpsertEmbedding(context.Background(), domain.ItemEmbedding{
		ItemID:       itemID,
		EmbeddedText: itemID,
		Vector:       vector,
	})
	require.NoError(t, err)
}

// --- Tests ---

func TestSearchService_Search(t *testing.T) {
	store := setupForestStore(t)
	// One dimension and euclidean distance make expected distances exact.
	seedVector(t, store, "item-b", []float32{0.1})
	seedVector(t, store, "item-c", []float32{0.3})

	embedder := &mockEmbeddingService{embedding: []float32{0}}
	service := NewSearchService(store, embedder)

	pages, err := service.Search(context.Background(), "detail", driving.SearchOptions{
		Metric: domain.Euclidean,
	})

	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "Alpha", pages[0].Title)
	assert.InDelta(t, 0.1, float64(pages[0].MinDistance), 1e-6)
	assert.Equal(t, "Beta", pages[1].Title)
	assert.InDelta(t, 0.3, float64(pages[1].MinDistance), 1e-6)
}

func TestSearchService_Search_TopKLimitsHits(t *testing.T) {
	store := setupForestStore(t)
	seedVector(t, store, "item-a", []float32{0.5})
	seedVector(t, store, "item-b", []float32{0.1})
	seedVector(t, store, "item-c", []float32{0.9})

	embedder := &mockEmbeddingService{embedding: []float32{0}}
	service := NewSearchService(store, embedder)

	pages, err := service.Search(context.Background(), "detail", driving.SearchOptions{
		TopK:   1,
		Metric: domain.Euclidean,
	})

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Alpha", pages[0].Title)
}

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	store := setupForestStore(t)
	service := NewSearchService(store, &mockEmbeddingService{embedding: []float32{0}})

	_, err := service.Search(context.Background(), "   \t\n  ", driving.SearchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_Search_NoEmbedder(t *testing.T) {
	store := setupForestStore(t)
	service := NewSearchService(store, nil)

	_, err := service.Search(context.Background(), "anything", driving.SearchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestSearchService_Search_EmbedderError(t *testing.T) {
	store := setupForestStore(t)
	embedErr := errors.New("provider down")
	service := NewSearchService(store, &mockEmbeddingService{embedErr: embedErr})

	_, err := service.Search(context.Background(), "anything", driving.SearchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, embedErr)
}

func TestSearchService_Search_NoVectors(t *testing.T) {
	store := setupForestStore(t)
	service := NewSearchService(store, &mockEmbeddingService{embedding: []float32{0}})

	_, err := service.Search(context.Background(), "anything", driving.SearchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
}
