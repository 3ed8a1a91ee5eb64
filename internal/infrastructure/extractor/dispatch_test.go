package extractor

import (
	"context"
	"testing"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

type extractorFake struct {
	name  string
	calls int
}

func (f *extractorFake) Extract(_ context.Context, _ *domain.Document) (string, error) {
	f.calls++
	return f.name, nil
}

func TestDispatchByExtension(t *testing.T) {
	pdfEx := &extractorFake{name: "pdf"}
	fallback := &extractorFake{name: "plain"}

	d := NewDispatcher(fallback)
	d.Register(pdfEx, "pdf")

	got, err := d.Extract(context.Background(), &domain.Document{Filename: "report.PDF"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "pdf" || pdfEx.calls != 1 {
		t.Fatalf("expected pdf extractor, got %q (calls=%d)", got, pdfEx.calls)
	}
}

func TestDispatchUnknownExtensionUsesFallback(t *testing.T) {
	fallback := &extractorFake{name: "plain"}
	d := NewDispatcher(fallback)
	d.Register(&extractorFake{name: "pdf"}, "pdf")

	got, err := d.Extract(context.Background(), &domain.Document{Filename: "notes.md"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "plain" || fallback.calls != 1 {
		t.Fatalf("expected fallback extractor, got %q (calls=%d)", got, fallback.calls)
	}
}

func TestDispatchWithoutFallbackFails(t *testing.T) {
	d := NewDispatcher(nil)

	_, err := d.Extract(context.Background(), &domain.Document{Filename: "mystery.bin"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
