package ports

import (
	"context"
	"io"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

// Embedder builds vectors for chunks and query text. An empty vector or an
// error both mean "no evidence from this path" to callers.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes statute chunks and performs hybrid search.
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.LegalChunk, vectors [][]float32) error
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.RetrievedDocument, error)
}

// Generator produces text from a system+user prompt pair. Ready reports
// whether the backing model can serve; callers must short-circuit to a
// warming-up response while it is false.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Ready() bool
}

// TaskPool runs blocking port calls on a fixed set of workers so independent
// calls of one request can execute in parallel.
type TaskPool interface {
	Submit(ctx context.Context, task func()) error
}

// DocumentRepository persists and reads document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits statute text into indexable fragments.
type Chunker interface {
	Split(text string) []domain.LegalChunk
}
