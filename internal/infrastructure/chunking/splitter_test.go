package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyTextReturnsNil(t *testing.T) {
	s := NewSplitter(10, 2)
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	got := s.Split("short document")
	if len(got) != 1 || got[0] != "short document" {
		t.Fatalf("expected single chunk, got %v", got)
	}
}

func TestSplitOverlapsConsecutiveChunks(t *testing.T) {
	s := NewSplitter(10, 4)
	text := "abcdefghijklmnopqrstuvwxyz"
	got := s.Split(text)

	if len(got) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d: %v", len(got), got)
	}
	// Step is 6, so chunk i starts at rune 6*i and spans 10 runes.
	if got[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk %q", got[0])
	}
	if got[1] != "ghijklmnop" {
		t.Fatalf("unexpected second chunk %q", got[1])
	}
	if !strings.HasSuffix(got[0], got[1][:4]) {
		t.Fatalf("chunks do not overlap: %q then %q", got[0], got[1])
	}
}

func TestSplitHandlesMultiByteRunes(t *testing.T) {
	s := NewSplitter(4, 1)
	got := s.Split("привет мир")
	for _, chunk := range got {
		for _, r := range chunk {
			if r == '�' {
				t.Fatalf("chunk %q contains replacement rune", chunk)
			}
		}
	}
}

func TestNewSplitterClampsBadOverlap(t *testing.T) {
	s := NewSplitter(100, 150)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamped to 25, got %d", s.Overlap)
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != 800 || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: size=%d overlap=%d", s.ChunkSize, s.Overlap)
	}
}
