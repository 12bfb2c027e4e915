package usecase

import (
	"context"
	"log/slog"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
	"github.com/vietlawhub/legal-gateway/internal/core/ports"
)

const (
	semanticLimit = 8
	semanticAlpha = 0.5
	strictLimit   = 5
	strictAlpha   = 0.5
	hydeLimit     = 10
	hydeAlpha     = 0.7
)

// RetrievalCoordinator fans retrieval requests out to the shared task pool
// and merges the results. A failed or empty-vector task contributes zero
// documents and never cancels its siblings.
type RetrievalCoordinator struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore
	pool     ports.TaskPool
}

func NewRetrievalCoordinator(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	pool ports.TaskPool,
) *RetrievalCoordinator {
	return &RetrievalCoordinator{
		embedder: embedder,
		vectorDB: vectorDB,
		pool:     pool,
	}
}

type retrievalTask struct {
	mode    domain.SearchMode
	text    string
	limit   int
	alpha   float64
	article string
}

// Retrieve runs the initial retrieval round: one semantic task over the full
// query, plus one strict article-filtered task when the router produced a
// targeted identifier. Tasks run concurrently; merge order is completion
// order with first-seen dedup.
func (c *RetrievalCoordinator) Retrieve(ctx context.Context, query, article string) []domain.RetrievedDocument {
	tasks := []retrievalTask{{
		mode:  domain.SearchSemantic,
		text:  query,
		limit: semanticLimit,
		alpha: semanticAlpha,
	}}
	if article != "" {
		tasks = append(tasks, retrievalTask{
			mode:    domain.SearchStrict,
			text:    article,
			limit:   strictLimit,
			alpha:   strictAlpha,
			article: article,
		})
	}
	return c.run(ctx, tasks)
}

// RetrieveHypothetical runs the fallback round: a single semantic search
// seeded by the generated hypothetical document, blended toward vector
// similarity.
func (c *RetrievalCoordinator) RetrieveHypothetical(ctx context.Context, hydeDoc string) []domain.RetrievedDocument {
	return c.run(ctx, []retrievalTask{{
		mode:  domain.SearchHyDE,
		text:  hydeDoc,
		limit: hydeLimit,
		alpha: hydeAlpha,
	}})
}

func (c *RetrievalCoordinator) run(ctx context.Context, tasks []retrievalTask) []domain.RetrievedDocument {
	results := make(chan []domain.RetrievedDocument, len(tasks))
	for _, task := range tasks {
		task := task
		if err := c.pool.Submit(ctx, func() {
			results <- c.execute(ctx, task)
		}); err != nil {
			results <- nil
		}
	}

	merged := newDocumentMerge()
	for range tasks {
		merged.add(<-results)
	}
	return merged.documents()
}

func (c *RetrievalCoordinator) execute(ctx context.Context, task retrievalTask) []domain.RetrievedDocument {
	vector, err := c.embedder.EmbedQuery(ctx, task.text)
	if err != nil {
		slog.Warn("retrieval_embed_failed", "mode", task.mode, "error", err)
		return nil
	}
	if len(vector) == 0 {
		slog.Warn("retrieval_empty_vector", "mode", task.mode)
		return nil
	}

	docs, err := c.vectorDB.Search(ctx, domain.SearchRequest{
		QueryText: task.text,
		Vector:    vector,
		Limit:     task.limit,
		Alpha:     task.alpha,
		Article:   task.article,
	})
	if err != nil {
		slog.Warn("retrieval_search_failed", "mode", task.mode, "error", err)
		return nil
	}
	return docs
}
