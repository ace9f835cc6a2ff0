package cli

import (
	"context"
	"errors"

	"github.com/fernwood-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockSearchService struct {
	pages []domain.SubsetPage
	err   error

	lastQuery string
	lastOpts  driving.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts driving.SearchOptions) ([]domain.SubsetPage, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.pages, m.err
}

type mockAnswerService struct {
	answer string
	err    error

	lastQuestion string
	lastOpts     driving.AnswerOptions
}

func (m *mockAnswerService) Answer(_ context.Context, question string, opts driving.AnswerOptions) (string, error) {
	m.lastQuestion = question
	m.lastOpts = opts
	return m.answer, m.err
}

type mockImportService struct {
	report driving.ImportReport
	err    error

	lastPath string
}

func (m *mockImportService) ImportFile(_ context.Context, path string) (driving.ImportReport, error) {
	m.lastPath = path
	return m.report, m.err
}

type mockEmbedService struct {
	report driving.EmbedReport
	err    error

	lastOpts driving.EmbedOptions
}

func (m *mockEmbedService) UpdateEmbeddings(_ context.Context, opts driving.EmbedOptions) (driving.EmbedReport, error) {
	m.lastOpts = opts
	return m.report, m.err
}

// --- Test helpers ---

func testScenarioPages() []domain.SubsetPage {
	hit := domain.Distance(0.123)
	return []domain.SubsetPage{
		{
			Title:       "Cooking",
			MinDistance: 0.123,
			Children: []domain.SubsetItem{
				{ID: "soup-1", Children: []domain.SubsetItem{
					{ID: "soup-2", Distance: &hit},
				}},
			},
		},
	}
}

// setupTestServices swaps every command's service for a mock and returns a
// cleanup restoring the originals.
func setupTestServices() func() {
	oldStore := noteStore
	oldSearch := searchService
	oldAnswer := answerService
	oldImport := importService
	oldEmbed := embedService

	noteStore = memory.NewNoteStore()
	searchService = &mockSearchService{pages: testScenarioPages()}
	answerService = &mockAnswerService{answer: "Basil."}
	importService = &mockImportService{report: driving.ImportReport{Pages: 2, Items: 9}}
	embedService = &mockEmbedService{report: driving.EmbedReport{Updated: 5}}

	return func() {
		noteStore = oldStore
		searchService = oldSearch
		answerService = oldAnswer
		importService = oldImport
		embedService = oldEmbed
	}
}

var errService = errors.New("service failure")
