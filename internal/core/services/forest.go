package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
)

// ResultForest accumulates similarity hits and reconstructs them into the
// minimal forest of pruned page trees that contains every hit plus every
// ancestor a hit needs to be reachable from its page root.
//
// Adding hits is order-independent and idempotent: the accumulator is a
// per-page minimum, an id set, and a per-hit distance map, all of which
// commute. Assembly happens once, after all hits are in.
type ResultForest struct {
	store driven.NoteStore
	pages map[string]*resultPage
}

// resultPage accumulates one page's share of the result.
type resultPage struct {
	title string

	// minDistance is the best (smallest) hit distance on this page,
	// used to order pages in the final output.
	minDistance domain.Distance

	// includedIDs holds every item that must be rendered: each hit and
	// all of its ancestors.
	includedIDs map[string]struct{}

	// hitDistances maps item id to distance for items that were
	// themselves hits. Ancestors pulled in for context never appear.
	hitDistances map[string]domain.Distance
}

// NewResultForest creates an empty forest backed by the given store.
func NewResultForest(store driven.NoteStore) *ResultForest {
	return &ResultForest{
		store: store,
		pages: make(map[string]*resultPage),
	}
}

// AddHit records one (item, distance) search hit. The hit's full ancestor
// path is resolved and marked for inclusion; the page's minimum distance
// tightens if this hit beats it. Re-adding an identical hit changes nothing.
func (f *ResultForest) AddHit(ctx context.Context, itemID string, distance domain.Distance) error {
	title, path, err := ResolveAncestors(ctx, f.store, itemID)
	if err != nil {
		return fmt.Errorf("adding hit %s to result forest: %w", itemID, err)
	}

	page, ok := f.pages[title]
	if !ok {
		page = &resultPage{
			title:        title,
			minDistance:  distance,
			includedIDs:  make(map[string]struct{}),
			hitDistances: make(map[string]domain.Distance),
		}
		f.pages[title] = page
	}

	for _, id := range path {
		page.includedIDs[id] = struct{}{}
	}

	// Keep the smallest distance if the same item somehow arrives twice.
	if prev, ok := page.hitDistances[itemID]; !ok || distance < prev {
		page.hitDistances[itemID] = distance
	}

	if distance < page.minDistance {
		page.minDistance = distance
	}

	return nil
}

// Len returns how many pages the forest currently spans.
func (f *ResultForest) Len() int {
	return len(f.pages)
}

// SubsetPages assembles and returns the pruned page trees, ascending by
// minimum distance, ties broken by title. Each tree contains exactly the
// included items, in original sibling order, so every hit has an unbroken
// path to its page root.
func (f *ResultForest) SubsetPages(ctx context.Context) ([]domain.SubsetPage, error) {
	pages := make([]*resultPage, 0, len(f.pages))
	for _, page := range f.pages {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].minDistance != pages[j].minDistance {
			return pages[i].minDistance < pages[j].minDistance
		}
		return pages[i].title < pages[j].title
	})

	subsets := make([]domain.SubsetPage, 0, len(pages))
	for _, page := range pages {
		subset, err := f.assemblePage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("assembling page %q: %w", page.title, err)
		}
		subsets = append(subsets, subset)
	}

	return subsets, nil
}

// assemblePage rebuilds one page's pruned tree from the store's real
// structure, keeping only included items.
func (f *ResultForest) assemblePage(ctx context.Context, page *resultPage) (domain.SubsetPage, error) {
	roots, err := f.store.GetPageRootItems(ctx, page.title)
	if err != nil {
		return domain.SubsetPage{}, fmt.Errorf("fetching root items: %w", err)
	}

	subset := domain.SubsetPage{
		Title:       page.title,
		MinDistance: page.minDistance,
		Children:    page.filterItems(roots),
	}

	// Expand the retained nodes breadth-down with an explicit stack;
	// nesting depth is user-controlled, so no native recursion here.
	// A node's Children slice is completed in one step before its
	// elements are pushed, so the element pointers stay valid.
	stack := make([]*domain.SubsetItem, 0, len(subset.Children))
	for i := range subset.Children {
		stack = append(stack, &subset.Children[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := f.store.GetItemChildren(ctx, node.ID)
		if err != nil {
			return domain.SubsetPage{}, fmt.Errorf("fetching children of %s: %w", node.ID, err)
		}

		node.Children = page.filterItems(children)
		for i := range node.Children {
			stack = append(stack, &node.Children[i])
		}
	}

	return subset, nil
}

// filterItems keeps the included subset of an ordered sibling list, as
// childless SubsetItems carrying a distance only if they were hits.
func (page *resultPage) filterItems(items []domain.Item) []domain.SubsetItem {
	var kept []domain.SubsetItem
	for _, item := range items {
		if _, ok := page.includedIDs[item.ID]; !ok {
			continue
		}
		subset := domain.SubsetItem{ID: item.ID}
		if d, ok := page.hitDistances[item.ID]; ok {
			distance := d
			subset.Distance = &distance
		}
		kept = append(kept, subset)
	}
	return kept
}
