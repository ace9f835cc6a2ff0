// Package driving provides interfaces for user-facing adapters (primary/inbound ports).
package driving

import (
	"context"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
)

// SearchOptions controls a similarity query.
type SearchOptions struct {
	// TopK is how many hits to retain. Defaults to 32 when zero.
	TopK int

	// Metric is the distance metric. Defaults to cosine when nil.
	Metric domain.Metric
}

// SearchService answers relevance queries over the note collection.
type SearchService interface {
	// Search embeds the query text, finds the most similar items, and
	// reconstructs them into pruned page trees ordered by relevance.
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.SubsetPage, error)
}

// AnswerOptions controls question answering.
type AnswerOptions struct {
	// ContextSize is how many search hits feed the prompt. Defaults to
	// 512 when zero; wider than a plain search so the model sees enough
	// of the collection.
	ContextSize int
}

// AnswerService answers free-form questions grounded in the note collection.
type AnswerService interface {
	Answer(ctx context.Context, question string, opts AnswerOptions) (string, error)
}

// ImportReport summarises one import run.
type ImportReport struct {
	Pages          int
	Items          int
	OrphansRemoved int64
}

// ImportService loads a note export into the store.
type ImportService interface {
	// ImportFile parses an export file and writes it to the store in a
	// single transaction, then sweeps orphaned embeddings.
	ImportFile(ctx context.Context, path string) (ImportReport, error)
}

// EmbedOptions controls an embedding update run.
type EmbedOptions struct {
	// Reset deletes every stored embedding before re-generating.
	Reset bool
}

// EmbedReport summarises one embedding update run.
type EmbedReport struct {
	Updated       int
	FailedBatches int
}

// EmbedService keeps stored embeddings in sync with item contents.
type EmbedService interface {
	UpdateEmbeddings(ctx context.Context, opts EmbedOptions) (EmbedReport, error)
}
