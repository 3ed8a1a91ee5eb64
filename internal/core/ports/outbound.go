package ports

import (
	"context"
	"io"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

// ChunkStore is the contract both retrieval backends satisfy. Build replaces
// the store's snapshot atomically; Search before the first successful Build
// returns domain.ErrIndexNotBuilt.
type ChunkStore interface {
	Build(ctx context.Context, corpus []domain.CorpusDocument) error
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// LanguageOracle is an opaque synchronous text-in/text-out generation call.
// Nothing about its output is structured; callers parse defensively.
type LanguageOracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TextExtractor extracts plain text from a stored document. An empty string
// with a nil error means no text is recoverable.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into overlapping pieces.
type Chunker interface {
	Split(text string) []string
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

// DocumentRepository persists document state and extracted chunks.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveChunks(ctx context.Context, documentID string, chunks []string) error
	ListCorpus(ctx context.Context) ([]domain.CorpusDocument, error)
}
