// Package memory provides an in-memory NoteStore for tests and ephemeral use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
)

// Ensure NoteStore implements the interface.
var _ driven.NoteStore = (*NoteStore)(nil)

// NoteStore is an in-memory implementation of driven.NoteStore.
// Safe for concurrent use.
type NoteStore struct {
	mu         sync.RWMutex
	pages      map[string]domain.Page
	items      map[string]domain.Item
	embeddings map[string]domain.ItemEmbedding
}

// NewNoteStore creates an empty in-memory note store.
func NewNoteStore() *NoteStore {
	return &NoteStore{
		pages:      make(map[string]domain.Page),
		items:      make(map[string]domain.Item),
		embeddings: make(map[string]domain.ItemEmbedding),
	}
}

// GetItem fetches a single item by id.
func (s *NoteStore) GetItem(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return &item, nil
}

// GetPage fetches a page by title.
func (s *NoteStore) GetPage(_ context.Context, title string) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[title]
	if !ok {
		return nil, fmt.Errorf("page %q: %w", title, domain.ErrNotFound)
	}
	return &page, nil
}

// GetPageRootItems returns a page's direct children in position order.
func (s *NoteStore) GetPageRootItems(_ context.Context, title string) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var children []domain.Item
	for _, item := range s.items {
		if t, ok := item.Owner.Page(); ok && t == title {
			children = append(children, item)
		}
	}
	sortByPosition(children)
	return children, nil
}

// GetItemChildren returns an item's direct children in position order.
func (s *NoteStore) GetItemChildren(_ context.Context, id string) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var children []domain.Item
	for _, item := range s.items {
		if parent, ok := item.Owner.ParentItem(); ok && parent == id {
			children = append(children, item)
		}
	}
	sortByPosition(children)
	return children, nil
}

// ScanVectors streams every stored (item id, vector) pair to fn.
// Iteration order is deliberately the map's randomised order; callers must
// not depend on it.
func (s *NoteStore) ScanVectors(_ context.Context, fn func(itemID string, vector []float32) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, emb := range s.embeddings {
		if err := fn(id, emb.Vector); err != nil {
			return err
		}
	}
	return nil
}

// UpsertEmbedding inserts or replaces an item's embedding.
func (s *NoteStore) UpsertEmbedding(_ context.Context, emb domain.ItemEmbedding) error {
	if emb.ItemID == "" || len(emb.Vector) == 0 {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[emb.ItemID] = emb
	return nil
}

// GetEmbedding fetches the stored embedding for an item.
func (s *NoteStore) GetEmbedding(_ context.Context, itemID string) (*domain.ItemEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emb, ok := s.embeddings[itemID]
	if !ok {
		return nil, fmt.Errorf("embedding for %s: %w", itemID, domain.ErrNotFound)
	}
	return &emb, nil
}

// ItemsMissingEmbedding lists items with contents but no stored vector.
func (s *NoteStore) ItemsMissingEmbedding(_ context.Context) ([]driven.EmbeddingCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []driven.EmbeddingCandidate
	for id, item := range s.items {
		if item.Contents == "" {
			continue
		}
		if _, ok := s.embeddings[id]; ok {
			continue
		}
		candidates = append(candidates, driven.EmbeddingCandidate{ItemID: id, Contents: item.Contents})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ItemID < candidates[j].ItemID
	})
	return candidates, nil
}

// DeleteAllEmbeddings removes every stored embedding.
func (s *NoteStore) DeleteAllEmbeddings(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = make(map[string]domain.ItemEmbedding)
	return nil
}

// DeleteOrphanEmbeddings removes embeddings whose owning item is gone.
func (s *NoteStore) DeleteOrphanEmbeddings(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id := range s.embeddings {
		if _, ok := s.items[id]; !ok {
			delete(s.embeddings, id)
			removed++
		}
	}
	return removed, nil
}

// ImportPages writes pages and their item trees. All-or-nothing: inputs
// are validated before any map mutation.
func (s *NoteStore) ImportPages(_ context.Context, pages []driven.ImportPage) (int, error) {
	for _, page := range pages {
		for _, item := range page.Items {
			if item.Owner.IsZero() {
				return 0, fmt.Errorf("item %s has no owner: %w", item.ID, domain.ErrIntegrityViolation)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, page := range pages {
		s.pages[page.Page.Title] = page.Page
		for _, item := range page.Items {
			s.items[item.ID] = item
			count++
		}
	}
	return count, nil
}

// DeleteItemTree removes an item, its embedding, and all descendants.
func (s *NoteStore) DeleteItemTree(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for childID, item := range s.items {
			if parent, ok := item.Owner.ParentItem(); ok && parent == current {
				stack = append(stack, childID)
			}
		}

		delete(s.items, current)
		delete(s.embeddings, current)
	}
	return nil
}

// Stats reports page, item, and embedding counts.
func (s *NoteStore) Stats(_ context.Context) (driven.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return driven.StoreStats{
		Pages:      len(s.pages),
		Items:      len(s.items),
		Embeddings: len(s.embeddings),
	}, nil
}

// Close is a no-op for the in-memory store.
func (s *NoteStore) Close() error {
	return nil
}

func sortByPosition(items []domain.Item) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
}
