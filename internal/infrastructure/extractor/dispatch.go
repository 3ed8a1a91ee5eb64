// Package extractor routes documents to a format-specific text extractor
// based on the stored filename extension.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

type Dispatcher struct {
	byExtension map[string]ports.TextExtractor
	fallback    ports.TextExtractor
}

// NewDispatcher builds a dispatcher with the given fallback; register
// format handlers with Register. The fallback handles everything without
// a dedicated extractor, typically the plaintext extractor.
func NewDispatcher(fallback ports.TextExtractor) *Dispatcher {
	return &Dispatcher{
		byExtension: make(map[string]ports.TextExtractor),
		fallback:    fallback,
	}
}

func (d *Dispatcher) Register(extractor ports.TextExtractor, extensions ...string) {
	for _, ext := range extensions {
		d.byExtension[normalizeExt(ext)] = extractor
	}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	ext := normalizeExt(filepath.Ext(doc.Filename))
	if ex, ok := d.byExtension[ext]; ok {
		return ex.Extract(ctx, doc)
	}
	if d.fallback == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text",
			fmt.Errorf("no extractor registered for %q", ext))
	}
	return d.fallback.Extract(ctx, doc)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
