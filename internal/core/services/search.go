// Package services implements the core retrieval pipeline: ancestor
// resolution, top-K similarity search, result-forest reconstruction, and
// the import/embedding/answer flows built on top of them.
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

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers relevance queries: it embeds the query text, runs
// the top-K similarity search, and reconstructs the hits into pruned page
// trees via the result forest.
type SearchService struct {
	store    driven.NoteStore
	embedder driven.EmbeddingService
}

// NewSearchService creates a new search service.
func NewSearchService(store driven.NoteStore, embedder driven.EmbeddingService) *SearchService {
	return &SearchService{
		store:    store,
		embedder: embedder,
	}
}

// Search runs one relevance query and returns the result pages, most
// relevant first.
func (s *SearchService) Search(
	ctx context.Context, query string, opts driving.SearchOptions,
) ([]domain.SubsetPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrProviderUnavailable)
	}

	topK := opts.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	metric := opts.Metric
	if metric == nil {
		metric = domain.Cosine
	}

	logger.Section("Search")
	logger.Debug("Query: %q, top-k: %d", query, topK)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := NewSimilaritySearch(s.store).
		WithTopK(topK).
		WithMetric(metric).
		Execute(ctx, vector)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	logger.Debug("Retained %d hits", len(hits))

	forest := NewResultForest(s.store)
	for _, hit := range hits {
		if err := forest.AddHit(ctx, hit.ItemID, hit.Distance); err != nil {
			return nil, err
		}
	}
	logger.Debug("Result forest spans %d pages", forest.Len())

	return forest.SubsetPages(ctx)
}
