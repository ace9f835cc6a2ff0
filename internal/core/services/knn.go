package services

import (
	"container/heap"
	"context"
	"fmt"
	"sort"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
	"github.com/fernwood-labs/recall-cli/internal/logger"
)

// DefaultTopK is how many hits a similarity search retains by default.
const DefaultTopK = 32

// Hit is one similarity search result.
type Hit struct {
	Distance domain.Distance
	ItemID   string
}

// SimilaritySearch finds the stored vectors most similar to a query vector.
//
// It runs a retain-K-smallest streaming selection: one pass over every
// stored vector, keeping a bounded worst-first heap of capacity K and
// evicting the current worst entry whenever the heap overflows. O(n log K)
// time, O(K) space, and the result is independent of scan order.
type SimilaritySearch struct {
	store  driven.NoteStore
	topK   int
	metric domain.Metric
}

// NewSimilaritySearch creates a search over the store's vectors with the
// default K and cosine distance.
func NewSimilaritySearch(store driven.NoteStore) *SimilaritySearch {
	return &SimilaritySearch{
		store:  store,
		topK:   DefaultTopK,
		metric: domain.Cosine,
	}
}

// WithTopK sets how many hits to retain.
func (s *SimilaritySearch) WithTopK(k int) *SimilaritySearch {
	s.topK = k
	return s
}

// WithMetric sets the distance metric.
func (s *SimilaritySearch) WithMetric(m domain.Metric) *SimilaritySearch {
	s.metric = m
	return s
}

// Execute runs the query and returns up to K hits, ascending by distance,
// ties broken by item id. It fails with domain.ErrEmptyResult when the
// store holds no vectors at all: callers need context to work with, and an
// empty success would hide a store that was never embedded.
func (s *SimilaritySearch) Execute(ctx context.Context, query []float32) ([]Hit, error) {
	if s.topK < 1 {
		return nil, fmt.Errorf("%w: top-k must be at least 1, got %d", domain.ErrInvalidInput, s.topK)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	worst := &worstFirstHeap{}
	scanned := 0

	err := s.store.ScanVectors(ctx, func(itemID string, vector []float32) error {
		scanned++
		d, err := s.metric(query, vector)
		if err != nil {
			return fmt.Errorf("distance to item %s: %w", itemID, err)
		}

		heap.Push(worst, Hit{Distance: d, ItemID: itemID})
		if worst.Len() > s.topK {
			heap.Pop(worst) // evict the single current worst
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning vectors: %w", err)
	}

	if scanned == 0 {
		return nil, domain.ErrEmptyResult
	}
	logger.Debug("Scanned %d vectors, retained %d", scanned, worst.Len())

	hits := worst.hits
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ItemID < hits[j].ItemID
	})

	return hits, nil
}

// worstFirstHeap is a bounded max-heap over hits: the root is the entry to
// evict. Equal distances order by item id so that boundary eviction, and
// therefore the final result, never depends on scan order.
type worstFirstHeap struct {
	hits []Hit
}

func (h *worstFirstHeap) Len() int { return len(h.hits) }

func (h *worstFirstHeap) Less(i, j int) bool {
	if h.hits[i].Distance != h.hits[j].Distance {
		return h.hits[i].Distance > h.hits[j].Distance
	}
	return h.hits[i].ItemID > h.hits[j].ItemID
}

func (h *worstFirstHeap) Swap(i, j int) {
	h.hits[i], h.hits[j] = h.hits[j], h.hits[i]
}

func (h *worstFirstHeap) Push(x any) {
	h.hits = append(h.hits, x.(Hit))
}

func (h *worstFirstHeap) Pop() any {
	old := h.hits
	n := len(old)
	hit := old[n-1]
	h.hits = old[:n-1]
	return hit
}
