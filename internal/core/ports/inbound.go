package ports

import (
	"context"
	"io"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// IndexRebuilder rebuilds both retrieval indexes from the persisted corpus.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (*domain.IndexStats, error)
}

// QuestionAnswerer is the inbound contract for grounded QA and exploration.
type QuestionAnswerer interface {
	Answer(ctx context.Context, query string) (*domain.AnswerResult, error)
	Explore(ctx context.Context) (*domain.Exploration, error)
}
