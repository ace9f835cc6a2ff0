// Package sqlite implements the NoteStore on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fernwood-labs/recall-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.NoteStore = (*Store)(nil)

// Store is a SQLite-backed note store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at the given file path.
// If path is empty, defaults to ~/.recall/recall.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".recall", "recall.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL for concurrency, busy timeout so an overlapping writer waits
	// instead of failing.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Foreign keys drive the cascading deletes; they are off by default.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// GetItem fetches a single item by id.
func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, parent_page_title, parent_item_id, position, contents, create_time, edit_time
		FROM items WHERE id = ?
	`, id)

	item, err := scanItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

// GetPage fetches a page by title.
func (s *Store) GetPage(ctx context.Context, title string) (*domain.Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT title, create_time, edit_time FROM pages WHERE title = ?
	`, title)

	var page domain.Page
	var createMillis sql.NullInt64
	var editMillis int64
	if err := row.Scan(&page.Title, &createMillis, &editMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %q: %w", title, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning page: %w", err)
	}

	page.EditTime = time.UnixMilli(editMillis).UTC()
	if createMillis.Valid {
		t := time.UnixMilli(createMillis.Int64).UTC()
		page.CreateTime = &t
	}
	return &page, nil
}

// GetPageRootItems returns a page's direct children in authoring order.
func (s *Store) GetPageRootItems(ctx context.Context, title string) ([]domain.Item, error) {
	return s.queryItems(ctx, `
		SELECT id, parent_page_title, parent_item_id, position, contents, create_time, edit_time
		FROM items WHERE parent_page_title = ?
		ORDER BY position
	`, title)
}

// GetItemChildren returns an item's direct children in authoring order.
func (s *Store) GetItemChildren(ctx context.Context, id string) ([]domain.Item, error) {
	return s.queryItems(ctx, `
		SELECT id, parent_page_title, parent_item_id, position, contents, create_time, edit_time
		FROM items WHERE parent_item_id = ?
		ORDER BY position
	`, id)
}

// ScanVectors streams every stored (item id, vector) pair to fn.
func (s *Store) ScanVectors(ctx context.Context, fn func(itemID string, vector []float32) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT item_id, vector FROM item_embeddings")
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var blob []byte
		if err := rows.Scan(&itemID, &blob); err != nil {
			return fmt.Errorf("scanning embedding: %w", err)
		}
		if err := fn(itemID, bytesToFloat32Slice(blob)); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating embeddings: %w", err)
	}
	return nil
}

// UpsertEmbedding inserts or replaces an item's embedding.
func (s *Store) UpsertEmbedding(ctx context.Context, emb domain.ItemEmbedding) error {
	if emb.ItemID == "" || len(emb.Vector) == 0 {
		return domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_embeddings (item_id, embedded_text, vector)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			embedded_text = excluded.embedded_text,
			vector = excluded.vector
	`, emb.ItemID, emb.EmbeddedText, float32SliceToBytes(emb.Vector))

	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// GetEmbedding fetches the stored embedding for an item.
func (s *Store) GetEmbedding(ctx context.Context, itemID string) (*domain.ItemEmbedding, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT item_id, embedded_text, vector FROM item_embeddings WHERE item_id = ?
	`, itemID)

	var emb domain.ItemEmbedding
	var blob []byte
	if err := row.Scan(&emb.ItemID, &emb.EmbeddedText, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("embedding for %s: %w", itemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}

	emb.Vector = bytesToFloat32Slice(blob)
	return &emb, nil
}

// ItemsMissingEmbedding lists items with contents but no stored vector.
func (s *Store) ItemsMissingEmbedding(ctx context.Context) ([]driven.EmbeddingCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contents FROM items
		WHERE id NOT IN (SELECT item_id FROM item_embeddings)
		  AND length(contents) > 0
	`)
	if err != nil {
		return nil, fmt.Errorf("querying items missing embeddings: %w", err)
	}
	defer rows.Close()

	var candidates []driven.EmbeddingCandidate //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c driven.EmbeddingCandidate
		if err := rows.Scan(&c.ItemID, &c.Contents); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return candidates, nil
}

// DeleteAllEmbeddings removes every stored embedding.
func (s *Store) DeleteAllEmbeddings(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM item_embeddings"); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	return nil
}

// DeleteOrphanEmbeddings removes embeddings whose owning item no longer
// exists. The foreign key keeps new orphans from appearing, but an import
// can replace a page's items without touching embeddings written under an
// earlier schema, so the sweep stays.
func (s *Store) DeleteOrphanEmbeddings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM item_embeddings
		WHERE NOT EXISTS (SELECT 1 FROM items WHERE items.id = item_embeddings.item_id)
	`)
	if err != nil {
		return 0, fmt.Errorf("deleting orphaned embeddings: %w", err)
	}
	return res.RowsAffected()
}

// ImportPages writes pages and their item trees in one transaction.
func (s *Store) ImportPages(ctx context.Context, pages []driven.ImportPage) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	pageStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (title, create_time, edit_time)
		VALUES (?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			create_time = excluded.create_time,
			edit_time = excluded.edit_time
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing page statement: %w", err)
	}
	defer pageStmt.Close()

	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, parent_page_title, parent_item_id, position, contents, create_time, edit_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_page_title = excluded.parent_page_title,
			parent_item_id = excluded.parent_item_id,
			position = excluded.position,
			contents = excluded.contents,
			create_time = excluded.create_time,
			edit_time = excluded.edit_time
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing item statement: %w", err)
	}
	defer itemStmt.Close()

	count := 0
	for _, page := range pages {
		if _, err := pageStmt.ExecContext(ctx,
			page.Page.Title, timeToMillis(page.Page.CreateTime), page.Page.EditTime.UnixMilli(),
		); err != nil {
			return 0, fmt.Errorf("inserting page %q: %w", page.Page.Title, err)
		}

		for _, item := range page.Items {
			var parentPage, parentItem any
			if title, ok := item.Owner.Page(); ok {
				parentPage = title
			} else if parent, ok := item.Owner.ParentItem(); ok {
				parentItem = parent
			} else {
				return 0, fmt.Errorf("item %s has no owner: %w", item.ID, domain.ErrIntegrityViolation)
			}

			if _, err := itemStmt.ExecContext(ctx,
				item.ID, parentPage, parentItem, item.Position, item.Contents,
				timeToMillis(item.CreateTime), timeToMillis(item.EditTime),
			); err != nil {
				return 0, fmt.Errorf("inserting item %s: %w", item.ID, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}

// DeleteItemTree removes an item and, through the schema's cascading
// foreign keys, every descendant item and attached embedding.
func (s *Store) DeleteItemTree(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item tree %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item tree %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Stats reports page, item, and embedding counts.
func (s *Store) Stats(ctx context.Context) (driven.StoreStats, error) {
	var stats driven.StoreStats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM pages),
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(*) FROM item_embeddings)
	`)
	if err := row.Scan(&stats.Pages, &stats.Items, &stats.Embeddings); err != nil {
		return stats, fmt.Errorf("counting rows: %w", err)
	}
	return stats, nil
}

// queryItems runs an item query and scans the ordered results.
func (s *Store) queryItems(ctx context.Context, query string, arg any) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item //nolint:prealloc // size unknown from query
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// scanItem scans one item row, mapping the two nullable parent columns
// onto the owner variant. A row with both or neither set is corrupt.
func scanItem(scan func(dest ...any) error) (*domain.Item, error) {
	var item domain.Item
	var parentPage, parentItem sql.NullString
	var createMillis, editMillis sql.NullInt64

	if err := scan(&item.ID, &parentPage, &parentItem, &item.Position,
		&item.Contents, &createMillis, &editMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning item: %w", err)
	}

	switch {
	case parentPage.Valid && parentItem.Valid:
		return nil, fmt.Errorf("item %s has two owners: %w", item.ID, domain.ErrIntegrityViolation)
	case parentPage.Valid:
		item.Owner = domain.RootOwner(parentPage.String)
	case parentItem.Valid:
		item.Owner = domain.ChildOwner(parentItem.String)
	default:
		return nil, fmt.Errorf("item %s has no owner: %w", item.ID, domain.ErrIntegrityViolation)
	}

	if createMillis.Valid {
		t := time.UnixMilli(createMillis.Int64).UTC()
		item.CreateTime = &t
	}
	if editMillis.Valid {
		t := time.UnixMilli(editMillis.Int64).UTC()
		item.EditTime = &t
	}

	return &item, nil
}

func timeToMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
