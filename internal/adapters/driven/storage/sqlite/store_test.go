package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
)

// --- Test helpers ---

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "recall.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// importTestTree loads one page with a three-level item chain plus a
// second root item.
func importTestTree(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	pages := []driven.ImportPage{
		{
			Page: domain.Page{Title: "Garden", CreateTime: &now, EditTime: now},
			Items: []domain.Item{
				{ID: "root-a", Owner: domain.RootOwner("Garden"), Contents: "beds", Position: 0, EditTime: &now},
				{ID: "child-b", Owner: domain.ChildOwner("root-a"), Contents: "tomatoes", Position: 0, EditTime: &now},
				{ID: "leaf-c", Owner: domain.ChildOwner("child-b"), Contents: "stake them", Position: 0, EditTime: &now},
				{ID: "root-d", Owner: domain.RootOwner("Garden"), Contents: "compost", Position: 1, EditTime: &now},
			},
		},
	}

	count, err := store.ImportPages(ctx, pages)
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

// --- Tests ---

func TestStore_MigratesOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.db")

	store, err := NewStore(path)
	require.NoError(t, err)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, driven.StoreStats{}, stats)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(path)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestStore_GetPage(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	page, err := store.GetPage(ctx, "Garden")
	require.NoError(t, err)
	assert.Equal(t, "Garden", page.Title)
	assert.NotNil(t, page.CreateTime)

	_, err = store.GetPage(ctx, "Missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetItem(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	item, err := store.GetItem(ctx, "child-b")
	require.NoError(t, err)
	assert.Equal(t, "tomatoes", item.Contents)
	parent, ok := item.Owner.ParentItem()
	require.True(t, ok)
	assert.Equal(t, "root-a", parent)

	root, err := store.GetItem(ctx, "root-a")
	require.NoError(t, err)
	title, ok := root.Owner.Page()
	require.True(t, ok)
	assert.Equal(t, "Garden", title)

	_, err = store.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ChildrenOrderedByPosition(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	roots, err := store.GetPageRootItems(ctx, "Garden")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "root-a", roots[0].ID)
	assert.Equal(t, "root-d", roots[1].ID)

	children, err := store.GetItemChildren(ctx, "root-a")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "child-b", children[0].ID)
}

func TestStore_UpsertAndGetEmbedding(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	vector := []float32{0.25, -1.5, 3.75}
	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "root-a", EmbeddedText: "Garden\nbeds", Vector: vector,
	}))

	emb, err := store.GetEmbedding(ctx, "root-a")
	require.NoError(t, err)
	assert.Equal(t, "Garden\nbeds", emb.EmbeddedText)
	assert.Equal(t, vector, emb.Vector)

	// Upsert replaces in place.
	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "root-a", EmbeddedText: "updated", Vector: []float32{9},
	}))
	emb, err = store.GetEmbedding(ctx, "root-a")
	require.NoError(t, err)
	assert.Equal(t, "updated", emb.EmbeddedText)
	assert.Equal(t, []float32{9}, emb.Vector)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Embeddings)
}

func TestStore_UpsertEmbedding_Invalid(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.UpsertEmbedding(ctx, domain.ItemEmbedding{ItemID: "", Vector: []float32{1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.UpsertEmbedding(ctx, domain.ItemEmbedding{ItemID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_ScanVectors(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "root-a", EmbeddedText: "a", Vector: []float32{1, 2},
	}))
	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "child-b", EmbeddedText: "b", Vector: []float32{3, 4},
	}))

	seen := map[string][]float32{}
	err := store.ScanVectors(ctx, func(itemID string, vector []float32) error {
		seen[itemID] = vector
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, map[string][]float32{
		"root-a":  {1, 2},
		"child-b": {3, 4},
	}, seen)
}

func TestStore_ItemsMissingEmbedding(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "root-a", EmbeddedText: "a", Vector: []float32{1},
	}))

	candidates, err := store.ItemsMissingEmbedding(ctx)
	require.NoError(t, err)

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ItemID
	}
	assert.ElementsMatch(t, []string{"child-b", "leaf-c", "root-d"}, ids)
}

func TestStore_DeleteItemTree_Cascades(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "leaf-c", EmbeddedText: "c", Vector: []float32{1},
	}))

	require.NoError(t, store.DeleteItemTree(ctx, "root-a"))

	// The whole chain under root-a is gone, embedding included;
	// the sibling root survives.
	for _, id := range []string{"root-a", "child-b", "leaf-c"} {
		_, err := store.GetItem(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, id)
	}
	_, err := store.GetEmbedding(ctx, "leaf-c")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetItem(ctx, "root-d")
	assert.NoError(t, err)
}

func TestStore_DeleteItemTree_Missing(t *testing.T) {
	store := setupTestStore(t)

	err := store.DeleteItemTree(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteAllEmbeddings(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "root-a", EmbeddedText: "a", Vector: []float32{1},
	}))

	require.NoError(t, store.DeleteAllEmbeddings(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Embeddings)
	assert.Equal(t, 4, stats.Items)
}

func TestStore_ImportPages_Upserts(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()
	now := time.Now().UTC()

	// Re-import the same page with changed contents; rows update in
	// place rather than duplicating.
	pages := []driven.ImportPage{
		{
			Page: domain.Page{Title: "Garden", EditTime: now},
			Items: []domain.Item{
				{ID: "root-a", Owner: domain.RootOwner("Garden"), Contents: "raised beds", Position: 0},
			},
		},
	}
	_, err := store.ImportPages(ctx, pages)
	require.NoError(t, err)

	item, err := store.GetItem(ctx, "root-a")
	require.NoError(t, err)
	assert.Equal(t, "raised beds", item.Contents)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 4, stats.Items)
}

func TestStore_ImportPages_RejectsOwnerlessItem(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pages := []driven.ImportPage{
		{
			Page: domain.Page{Title: "Broken", EditTime: time.Now().UTC()},
			Items: []domain.Item{
				{ID: "ok", Owner: domain.RootOwner("Broken"), Contents: "fine"},
				{ID: "bad", Contents: "no owner"},
			},
		},
	}

	_, err := store.ImportPages(ctx, pages)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)

	// The transaction rolled back: nothing landed.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pages)
	assert.Equal(t, 0, stats.Items)
}

func TestStore_DeleteOrphanEmbeddings(t *testing.T) {
	store := setupTestStore(t)
	importTestTree(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmbedding(ctx, domain.ItemEmbedding{
		ItemID: "root-a", EmbeddedText: "a", Vector: []float32{1},
	}))

	removed, err := store.DeleteOrphanEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	vectors := [][]float32{
		nil,
		{0},
		{1.5, -2.25, 3.125},
		{-0.000001, 1e30},
	}

	for _, v := range vectors {
		assert.Equal(t, v, bytesToFloat32Slice(float32SliceToBytes(v)))
	}
}
