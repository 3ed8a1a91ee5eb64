package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

type ingestRepoFake struct {
	created *domain.Document
	err     error
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.created = doc
	return nil
}
func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, nil
}
func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}
func (f *ingestRepoFake) SaveChunks(context.Context, string, []string) error { return nil }
func (f *ingestRepoFake) ListCorpus(context.Context) ([]domain.CorpusDocument, error) {
	return nil, nil
}

type storageFake struct {
	savedKey string
	err      error
}

func (f *storageFake) Save(_ context.Context, key string, _ io.Reader) error {
	if f.err != nil {
		return f.err
	}
	f.savedKey = key
	return nil
}
func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) { return nil, nil }

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}
func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestIngestUploadHappyPath(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "Quarterly Report.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected status=uploaded, got %s", doc.Status)
	}
	if !strings.HasSuffix(storage.savedKey, "_Quarterly_Report.pdf") {
		t.Fatalf("unexpected storage key %q", storage.savedKey)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected ingestion event for %s, got %v", doc.ID, queue.published)
	}
}

func TestIngestUploadStorageFailure(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{err: errors.New("disk full")}, &queueFake{})
	if _, err := uc.Upload(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSanitizeFilenameStripsUnsafeRunes(t *testing.T) {
	if got := sanitizeFilename("../..//we ird$name.PDF"); got != "we_ird_name.PDF" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := sanitizeFilename(""); got != "document.bin" {
		t.Fatalf("expected default name, got %q", got)
	}
}
