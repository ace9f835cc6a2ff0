package services

import (
	"context"
	"fmt"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
)

// maxAncestorDepth bounds the parent walk. Note nesting is user-controlled
// and normally shallow; a walk this deep means the store has a cycle.
const maxAncestorDepth = 4096

// ResolveAncestors walks an item's parent chain up to its owning page.
// It returns the page title and the id path from the page's direct child
// down to and including the item itself.
//
// The walk is a plain loop, O(depth): each step either moves to a parent
// item or terminates at a page. An item with both or neither owner set is
// a corrupt store, reported as domain.ErrIntegrityViolation.
func ResolveAncestors(ctx context.Context, store driven.NoteStore, itemID string) (string, []string, error) {
	var path []string

	current := itemID
	for depth := 0; depth < maxAncestorDepth; depth++ {
		item, err := store.GetItem(ctx, current)
		if err != nil {
			return "", nil, fmt.Errorf("resolving ancestors of %s: %w", itemID, err)
		}

		// Prepend, so the path reads page-root first, item last.
		path = append([]string{item.ID}, path...)

		if item.Owner.IsZero() {
			return "", nil, fmt.Errorf("item %s has no owner: %w", item.ID, domain.ErrIntegrityViolation)
		}
		if title, ok := item.Owner.Page(); ok {
			return title, path, nil
		}
		parent, _ := item.Owner.ParentItem()
		current = parent
	}

	return "", nil, fmt.Errorf("ancestor chain of %s exceeds depth %d: %w",
		itemID, maxAncestorDepth, domain.ErrIntegrityViolation)
}
