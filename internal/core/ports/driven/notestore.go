// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
)

// StoreStats summarises the contents of the note store.
type StoreStats struct {
	Pages      int
	Items      int
	Embeddings int
}

// EmbeddingCandidate is an item whose vector is missing or stale.
type EmbeddingCandidate struct {
	ItemID   string
	Contents string
}

// NoteStore persists the hierarchical note collection: pages, items, and
// per-item embeddings. Child listings always come back in authoring order.
//
// Implementations must provide cascading deletes: removing an item removes
// its embedding and every descendant item and embedding, atomically.
type NoteStore interface {
	// GetItem fetches a single item by id.
	// Returns domain.ErrNotFound if no such item exists.
	GetItem(ctx context.Context, id string) (*domain.Item, error)

	// GetPage fetches a page by title.
	// Returns domain.ErrNotFound if no such page exists.
	GetPage(ctx context.Context, title string) (*domain.Page, error)

	// GetPageRootItems returns a page's direct children, ordered by position.
	GetPageRootItems(ctx context.Context, title string) ([]domain.Item, error)

	// GetItemChildren returns an item's direct children, ordered by position.
	GetItemChildren(ctx context.Context, id string) ([]domain.Item, error)

	// ScanVectors streams every stored (item id, vector) pair to fn.
	// Iteration stops at the first error fn returns.
	ScanVectors(ctx context.Context, fn func(itemID string, vector []float32) error) error

	// UpsertEmbedding inserts or replaces the embedding for an item.
	// Keyed by item id, so re-applying a completed batch is a no-op.
	UpsertEmbedding(ctx context.Context, emb domain.ItemEmbedding) error

	// GetEmbedding fetches the stored embedding for an item.
	// Returns domain.ErrNotFound if the item has none.
	GetEmbedding(ctx context.Context, itemID string) (*domain.ItemEmbedding, error)

	// ItemsMissingEmbedding lists items with non-empty contents that have
	// no stored embedding yet. This is the resumability query: a retried
	// embedding run picks up exactly where the last one stopped.
	ItemsMissingEmbedding(ctx context.Context) ([]EmbeddingCandidate, error)

	// DeleteAllEmbeddings removes every stored embedding.
	DeleteAllEmbeddings(ctx context.Context) error

	// DeleteOrphanEmbeddings removes embeddings whose owning item no
	// longer exists, returning how many were removed.
	DeleteOrphanEmbeddings(ctx context.Context) (int64, error)

	// ImportPages writes a batch of pages and their item trees in a
	// single all-or-nothing transaction, returning the number of items
	// written. Existing pages and items are updated in place.
	ImportPages(ctx context.Context, pages []ImportPage) (int, error)

	// DeleteItemTree removes an item, its embedding, and all descendant
	// items and embeddings in one transaction.
	DeleteItemTree(ctx context.Context, id string) error

	// Stats reports page, item, and embedding counts.
	Stats(ctx context.Context) (StoreStats, error)

	// Close releases the underlying storage.
	Close() error
}

// ImportPage is one page plus its full item tree, as handed to ImportPages.
type ImportPage struct {
	Page  domain.Page
	Items []domain.Item
}
