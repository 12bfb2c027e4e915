package ports

import (
	"context"
	"io"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

// ChatService is the inbound contract for question answering. The response is
// always well formed; port faults degrade to fixed fallback answers and the
// error return is reserved for context cancellation.
type ChatService interface {
	Answer(ctx context.Context, query string) (*domain.ChatResponse, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
