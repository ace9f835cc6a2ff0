// Package cli implements the recall command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernwood-labs/recall-cli/internal/adapters/driven/ai"
	"github.com/fernwood-labs/recall-cli/internal/adapters/driven/storage/sqlite"
	"github.com/fernwood-labs/recall-cli/internal/config"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
	"github.com/fernwood-labs/recall-cli/internal/core/services"
	"github.com/fernwood-labs/recall-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	dbPath      string
	configPath  string
	verboseFlag bool
)

// Services used by the commands. Package-level so tests can swap in mocks;
// wire() fills in whatever is still nil from configuration.
var (
	noteStore     driven.NoteStore
	searchService driving.SearchService
	answerService driving.AnswerService
	importService driving.ImportService
	embedService  driving.EmbedService
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Semantic search over your personal notes",
	Long: `recall imports a Roam-style note export into a local SQLite database,
embeds each item, and answers relevance queries with the matching items
shown in their original page hierarchy.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file path (default ~/.recall/recall.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.recall/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	defer closeStore()
	return rootCmd.Execute()
}

// wireStore opens the SQLite store unless one is already injected.
func wireStore() error {
	if noteStore != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	path := dbPath
	if path == "" {
		path = cfg.Database
	}

	store, err := sqlite.NewStore(path)
	if err != nil {
		return fmt.Errorf("opening note store: %w", err)
	}
	noteStore = store
	logger.Debug("Database: %s", store.Path())
	return nil
}

// wireSearch prepares the search service and everything under it.
func wireSearch() error {
	if searchService != nil {
		return nil
	}
	if err := wireStore(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	embedder, err := ai.NewEmbeddingService(cfg)
	if err != nil {
		return err
	}

	searchService = services.NewSearchService(noteStore, embedder)
	return nil
}

// wireAnswer prepares the answer service.
func wireAnswer() error {
	if answerService != nil {
		return nil
	}
	if err := wireStore(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	embedder, err := ai.NewEmbeddingService(cfg)
	if err != nil {
		return err
	}
	chat, err := ai.NewChatService(cfg)
	if err != nil {
		return err
	}

	answerService = services.NewAnswerService(noteStore, embedder, chat)
	return nil
}

// wireImport prepares the import service.
func wireImport() error {
	if importService != nil {
		return nil
	}
	if err := wireStore(); err != nil {
		return err
	}
	importService = services.NewImportService(noteStore)
	return nil
}

// wireEmbed prepares the embedding pipeline.
func wireEmbed() error {
	if embedService != nil {
		return nil
	}
	if err := wireStore(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	embedder, err := ai.NewEmbeddingService(cfg)
	if err != nil {
		return err
	}

	embedService = services.NewEmbedService(noteStore, embedder, services.EmbedConfig{
		BatchSize:         cfg.BatchSize,
		Concurrency:       cfg.Concurrency,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	return nil
}

func closeStore() {
	if noteStore != nil {
		_ = noteStore.Close()
	}
}
