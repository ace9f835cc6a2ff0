package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
)

// EmbeddableText builds the text an item is embedded from: the owning page
// title, each ancestor's contents, and the item's own contents, one line
// each, outermost first. Keeping the ancestors in gives short items enough
// surrounding meaning to embed usefully, and the exact string is stored
// alongside the vector so staleness is detectable later.
func EmbeddableText(ctx context.Context, store driven.NoteStore, itemID string) (string, error) {
	title, path, err := ResolveAncestors(ctx, store, itemID)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(path)+1)
	lines = append(lines, title)
	for _, id := range path {
		item, err := store.GetItem(ctx, id)
		if err != nil {
			return "", fmt.Errorf("building embeddable text for %s: %w", itemID, err)
		}
		if item.Contents != "" {
			lines = append(lines, item.Contents)
		}
	}

	return strings.Join(lines, "\n"), nil
}

// FormatPrompt renders result pages with item contents inlined, the form
// fed to the chat model: pages as [[title]] references, items as indented
// bullets ending in a markdown link to the ((id)) block reference that the
// model can cite.
func FormatPrompt(ctx context.Context, store driven.NoteStore, pages []domain.SubsetPage) (string, error) {
	var b strings.Builder

	for _, page := range pages {
		fmt.Fprintf(&b, "[[%s]]", page.Title)
		if err := writePromptItems(ctx, store, &b, page.Children, 0); err != nil {
			return "", fmt.Errorf("formatting page %q: %w", page.Title, err)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// writePromptItems walks a subset tree with an explicit stack, emitting one
// bullet per item in sibling order.
func writePromptItems(
	ctx context.Context, store driven.NoteStore, b *strings.Builder,
	roots []domain.SubsetItem, indent int,
) error {
	type frame struct {
		item   *domain.SubsetItem
		indent int
	}

	// Push in reverse so siblings pop in original order.
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{item: &roots[i], indent: indent})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		item, err := store.GetItem(ctx, f.item.ID)
		if err != nil {
			return fmt.Errorf("fetching item %s: %w", f.item.ID, err)
		}

		b.WriteString("\n")
		b.WriteString(strings.Repeat("\t", f.indent))
		fmt.Fprintf(b, "- %s [*](((%s)))", item.Contents, item.ID)

		for i := len(f.item.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{item: &f.item.Children[i], indent: f.indent + 1})
		}
	}

	return nil
}
