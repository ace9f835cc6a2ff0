package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
	"github.com/fernwood-labs/recall-cli/internal/logger"
)

// Ensure EmbedService implements the interface.
var _ driving.EmbedService = (*EmbedService)(nil)

// Default embedding pipeline tuning.
const (
	// DefaultBatchSize is how many texts go into one provider request.
	DefaultBatchSize = 512

	// DefaultConcurrency caps simultaneously in-flight batches.
	DefaultConcurrency = 4

	// DefaultRequestsPerSecond is the sustained provider request rate.
	DefaultRequestsPerSecond = 2.0
)

// EmbedConfig tunes the embedding pipeline. Zero values take defaults.
type EmbedConfig struct {
	BatchSize         int
	Concurrency       int
	RequestsPerSecond float64
}

// EmbedService brings stored embeddings in line with item contents. Items
// lacking a vector are batched, the batches are dispatched to the provider
// under a fixed concurrency cap, and each completed batch is applied with
// an idempotent upsert keyed by item id. Batches may complete out of
// submission order; the upsert makes that safe, and a retried run simply
// re-queries for the items still missing a vector.
type EmbedService struct {
	store    driven.NoteStore
	embedder driven.EmbeddingService

	batchSize   int
	concurrency int
	limiter     *rate.Limiter
}

// NewEmbedService creates a new embedding pipeline.
func NewEmbedService(store driven.NoteStore, embedder driven.EmbeddingService, cfg EmbedConfig) *EmbedService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &EmbedService{
		store:       store,
		embedder:    embedder,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Concurrency),
	}
}

// embedJob is one item queued for embedding.
type embedJob struct {
	itemID string
	text   string
}

// batchResult is one completed provider request.
type batchResult struct {
	jobs    []embedJob
	vectors [][]float32
	err     error
}

// UpdateEmbeddings embeds every item that lacks a vector. A batch that
// fails after the provider adapter's retries is logged and skipped; the
// remaining batches are unaffected, and the next run picks its items up
// again.
func (s *EmbedService) UpdateEmbeddings(
	ctx context.Context, opts driving.EmbedOptions,
) (driving.EmbedReport, error) {
	var report driving.EmbedReport

	if s.embedder == nil {
		return report, fmt.Errorf("%w: no embedding service configured", domain.ErrProviderUnavailable)
	}

	logger.Section("Embedding Update")

	if opts.Reset {
		logger.Info("Deleting existing embeddings")
		if err := s.store.DeleteAllEmbeddings(ctx); err != nil {
			return report, fmt.Errorf("resetting embeddings: %w", err)
		}
	}

	candidates, err := s.store.ItemsMissingEmbedding(ctx)
	if err != nil {
		return report, fmt.Errorf("finding items to embed: %w", err)
	}
	logger.Info("%d items need embeddings", len(candidates))
	if len(candidates) == 0 {
		return report, nil
	}

	jobs := make([]embedJob, 0, len(candidates))
	for _, c := range candidates {
		text, err := EmbeddableText(ctx, s.store, c.ItemID)
		if err != nil {
			return report, fmt.Errorf("preparing item %s: %w", c.ItemID, err)
		}
		if text == "" {
			continue
		}
		jobs = append(jobs, embedJob{itemID: c.ItemID, text: text})
	}

	results := s.dispatch(ctx, jobs)

	// Apply completed batches as they arrive. Upserts happen here, on a
	// single goroutine, so the store never sees concurrent writers. A
	// store failure stops applying but keeps draining: the workers block
	// on the unbuffered results channel until every batch is received.
	var applyErr error
	for res := range results {
		if applyErr != nil {
			continue
		}
		if res.err != nil {
			report.FailedBatches++
			logger.Warn("Batch of %d failed: %v", len(res.jobs), res.err)
			continue
		}
		for i, job := range res.jobs {
			emb := domain.ItemEmbedding{
				ItemID:       job.itemID,
				EmbeddedText: job.text,
				Vector:       res.vectors[i],
			}
			if err := s.store.UpsertEmbedding(ctx, emb); err != nil {
				applyErr = fmt.Errorf("storing embedding for %s: %w", job.itemID, err)
				break
			}
			report.Updated++
		}
		if applyErr == nil {
			logger.Info("Updated %d/%d embeddings", report.Updated, len(jobs))
		}
	}
	if applyErr != nil {
		return report, applyErr
	}

	if report.FailedBatches > 0 {
		logger.Warn("%d batches failed; re-run to retry their items", report.FailedBatches)
	}
	return report, nil
}

// dispatch fans batches out to a fixed pool of workers and returns the
// channel their results arrive on, in completion order.
func (s *EmbedService) dispatch(ctx context.Context, jobs []embedJob) <-chan batchResult {
	batches := make(chan []embedJob)
	results := make(chan batchResult)

	var wg sync.WaitGroup
	for range s.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				results <- s.embedBatch(ctx, batch)
			}
		}()
	}

	go func() {
		defer close(batches)
		for start := 0; start < len(jobs); start += s.batchSize {
			end := min(start+s.batchSize, len(jobs))
			select {
			case batches <- jobs[start:end]:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// embedBatch runs one provider request under the rate limiter.
func (s *EmbedService) embedBatch(ctx context.Context, batch []embedJob) batchResult {
	res := batchResult{jobs: batch}

	if err := s.limiter.Wait(ctx); err != nil {
		res.err = err
		return res
	}

	texts := make([]string, len(batch))
	for i, job := range batch {
		texts[i] = job.text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		res.err = err
		return res
	}
	if len(vectors) != len(batch) {
		res.err = fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(batch))
		return res
	}

	res.vectors = vectors
	return res
}
