package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
	"github.com/fernwood-labs/recall-cli/internal/logger"
	"github.com/fernwood-labs/recall-cli/internal/roam"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService loads a Roam export into the note store. The whole run is
// one transaction: either every page and item lands, or none do. A sweep
// afterwards drops embeddings whose item vanished from the export.
type ImportService struct {
	store driven.NoteStore
}

// NewImportService creates a new import service.
func NewImportService(store driven.NoteStore) *ImportService {
	return &ImportService{store: store}
}

// ImportFile parses and imports one export file.
func (s *ImportService) ImportFile(ctx context.Context, path string) (driving.ImportReport, error) {
	var report driving.ImportReport

	f, err := os.Open(path)
	if err != nil {
		return report, fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	pages, err := roam.Parse(f)
	if err != nil {
		return report, fmt.Errorf("reading export file %s: %w", path, err)
	}
	logger.Info("Loaded export: %d pages, %d items", len(pages), roam.CountItems(pages))

	imports := make([]driven.ImportPage, 0, len(pages))
	for i := range pages {
		imports = append(imports, flattenPage(&pages[i]))
	}

	items, err := s.store.ImportPages(ctx, imports)
	if err != nil {
		return report, fmt.Errorf("importing pages: %w", err)
	}
	report.Pages = len(imports)
	report.Items = items

	orphans, err := s.store.DeleteOrphanEmbeddings(ctx)
	if err != nil {
		return report, fmt.Errorf("sweeping orphaned embeddings: %w", err)
	}
	report.OrphansRemoved = orphans
	if orphans > 0 {
		logger.Info("Removed %d orphaned embeddings", orphans)
	}

	return report, nil
}

// flattenPage converts one export page tree into the flat page-plus-items
// shape the store imports. Sibling order becomes the position ordinal, and
// an item missing its uid gets a generated one so it can still be
// referenced.
func flattenPage(page *roam.Page) driven.ImportPage {
	out := driven.ImportPage{
		Page: domain.Page{
			Title:      page.Title,
			CreateTime: millisToTime(page.CreateTime),
			EditTime:   time.UnixMilli(page.EditTime).UTC(),
		},
	}

	type frame struct {
		item  *roam.Item
		owner domain.Owner
		pos   int
	}

	stack := make([]frame, 0, len(page.Children))
	for i := len(page.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{
			item:  &page.Children[i],
			owner: domain.RootOwner(page.Title),
			pos:   i,
		})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := f.item.UID
		if id == "" {
			id = uuid.NewString()
		}

		out.Items = append(out.Items, domain.Item{
			ID:         id,
			Owner:      f.owner,
			Contents:   f.item.String,
			Position:   f.pos,
			CreateTime: millisToTime(f.item.CreateTime),
			EditTime:   millisToTime(f.item.EditTime),
		})

		for i := len(f.item.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				item:  &f.item.Children[i],
				owner: domain.ChildOwner(id),
				pos:   i,
			})
		}
	}

	return out
}

func millisToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
