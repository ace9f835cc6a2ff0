// Package domain contains the core types for the recall note collection:
// pages, items, embeddings, distances, and the pruned result forest views.
package domain

import "time"

// Page is the root container of one note tree, keyed by its unique title.
type Page struct {
	Title      string
	CreateTime *time.Time
	EditTime   time.Time
}

// Owner identifies where an item hangs in the forest. An item is owned by
// exactly one of: a page (root item) or a parent item (child item). The
// fields are unexported so the only way to build a valid Owner is through
// RootOwner or ChildOwner; the zero Owner is invalid and surfaces as
// ErrIntegrityViolation wherever it is consumed.
type Owner struct {
	pageTitle string
	parentID  string
}

// RootOwner returns an Owner marking an item as a direct child of a page.
func RootOwner(pageTitle string) Owner {
	return Owner{pageTitle: pageTitle}
}

// ChildOwner returns an Owner marking an item as a child of another item.
func ChildOwner(parentID string) Owner {
	return Owner{parentID: parentID}
}

// Page returns the owning page title, if this is a root item.
func (o Owner) Page() (string, bool) {
	return o.pageTitle, o.pageTitle != ""
}

// ParentItem returns the owning item id, if this is a child item.
func (o Owner) ParentItem() (string, bool) {
	return o.parentID, o.parentID != ""
}

// IsZero reports whether the Owner carries no parent at all.
func (o Owner) IsZero() bool {
	return o.pageTitle == "" && o.parentID == ""
}

// Item is a single node in a page's tree. Position is the item's ordinal
// among its siblings; sibling order is authoring order and must be preserved.
type Item struct {
	ID         string
	Owner      Owner
	Contents   string
	Position   int
	CreateTime *time.Time
	EditTime   *time.Time
}

// ItemEmbedding attaches a vector to an item, at most one per item.
// EmbeddedText is the exact text the vector was computed from; when the
// item's context text drifts away from it the embedding is stale and
// needs recomputing.
type ItemEmbedding struct {
	ItemID       string
	EmbeddedText string
	Vector       []float32
}
