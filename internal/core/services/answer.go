package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
	"github.com/fernwood-labs/recall-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// DefaultAnswerContext is how many search hits feed the answer prompt by
// default. Wider than a plain search: the model benefits from seeing more
// of the collection than a human reader would want to scroll through.
const DefaultAnswerContext = 512

const answerSystemPrompt = `You are a helpful question-answering system. Your goal is to answer a factual question based on the content of a personal database of notes, along with your general knowledge.

We'll start by telling you the question you'll be answering, and feeding you a subset of notes selected from the database by embedding distance to the question. Notes are in Roam-style Markdown: references to individual blocks are enclosed in double parentheses, and references to page titles are enclosed in double square brackets. Each page link appears at the top of its page, and each block carries its id at the end of its bullet. Remember these ids, as you'll be asked to cite them in your answer.

This is the question you'll be answering:`

const answerFormatPrompt = `Answer the question below in Roam-style Markdown:

- To add a footnote referencing a block: [1](((BlockId)))
- To link text to a block: [some inline text](((BlockId)))
- To link to a page by its title: [[Page Title]]
- To link text to a page: [some inline text]([[Page Title]])

Only make links to a [[Page Title]] or to a ((BlockId)). Do not link to anything else.

Be concise in your answer.`

// AnswerService answers free-form questions grounded in the note
// collection: retrieve context with the search pipeline, render it with
// contents inlined, and hand it to the chat model with citation
// instructions.
type AnswerService struct {
	store    driven.NoteStore
	embedder driven.EmbeddingService
	chat     driven.ChatService
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	store driven.NoteStore, embedder driven.EmbeddingService, chat driven.ChatService,
) *AnswerService {
	return &AnswerService{
		store:    store,
		embedder: embedder,
		chat:     chat,
	}
}

// Answer runs retrieval for the question and generates a cited answer.
func (s *AnswerService) Answer(
	ctx context.Context, question string, opts driving.AnswerOptions,
) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.chat == nil {
		return "", fmt.Errorf("%w: no chat service configured", domain.ErrProviderUnavailable)
	}

	contextSize := opts.ContextSize
	if contextSize == 0 {
		contextSize = DefaultAnswerContext
	}

	search := NewSearchService(s.store, s.embedder)
	pages, err := search.Search(ctx, question, driving.SearchOptions{TopK: contextSize})
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	notes, err := FormatPrompt(ctx, s.store, pages)
	if err != nil {
		return "", fmt.Errorf("formatting context: %w", err)
	}

	logger.Section("Answer Generation")
	logger.Debug("Context: %d pages, %d characters", len(pages), len(notes))

	messages := []driven.ChatMessage{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: question},
		{Role: "system", Content: "Here are some notes that might help you answer the question:"},
		{Role: "user", Content: notes},
		{Role: "system", Content: "Here's the question again, for your reference:"},
		{Role: "user", Content: question},
		{Role: "system", Content: answerFormatPrompt},
	}

	answer, err := s.chat.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	return answer, nil
}
