// ABOUTME: Unit tests for the boundary-aware text splitter
// ABOUTME: Covers size bounds, overlap carry-over, and metadata passthrough
package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/docdesk/docdesk/internal/models"
)

func TestSplit_EmptyInput(t *testing.T) {
	s := NewSplitter(100, 20)

	if got := s.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
	if got := s.Split("   \n\t "); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplit_ShortText(t *testing.T) {
	s := NewSplitter(100, 20)

	got := s.Split("short text")
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("Split(short) = %v, want single element", got)
	}
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	s := NewSplitter(5, 2)

	got := s.Split("A. B. C.")
	if len(got) == 0 {
		t.Fatal("Split returned no chunks")
	}

	// Every chunk must end on a sentence terminator, never mid-word.
	for i, chunk := range got {
		if !strings.HasSuffix(chunk, ".") {
			t.Errorf("chunk %d = %q, want sentence-terminated", i, chunk)
		}
	}
	if got[0] != "A." {
		t.Errorf("first chunk = %q, want %q", got[0], "A.")
	}
}

func TestSplit_ChunkBound(t *testing.T) {
	s := NewSplitter(50, 10)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > s.Size {
			t.Errorf("chunk %d length = %d, exceeds size %d", i, len(chunk), s.Size)
		}
	}
}

func TestSplit_UnbreakableSpanMayExceedSize(t *testing.T) {
	s := NewSplitter(10, 2)

	// No boundary markers anywhere: raw size cuts apply, so each piece
	// stays within the window even without a marker.
	text := strings.Repeat("x", 35)
	chunks := s.Split(text)

	if len(chunks) == 0 {
		t.Fatal("Split returned no chunks")
	}
	for i, chunk := range chunks {
		if len(chunk) > s.Size {
			t.Errorf("chunk %d length = %d, exceeds size %d", i, len(chunk), s.Size)
		}
	}
}

func TestSplit_MultibyteText(t *testing.T) {
	s := NewSplitter(10, 3)

	// CJK prose rarely contains the sentence markers, so raw size cuts
	// apply; those cuts must never land inside a multi-byte rune.
	text := strings.Repeat("文档问答系统检索增强生成", 10)
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, chunk)
		}
	}

	// Every rune of the original survives somewhere in the chunks.
	joined := strings.Join(chunks, "")
	for _, r := range "文档问答系统检索增强生成" {
		if !strings.ContainsRune(joined, r) {
			t.Errorf("rune %q missing from chunk output", r)
		}
	}
}

func TestSplit_RuneWiderThanWindow(t *testing.T) {
	// A window smaller than a single rune must still emit the rune whole
	// and terminate.
	s := NewSplitter(2, 1)

	chunks := s.Split("日本語テキスト")
	if len(chunks) == 0 {
		t.Fatal("Split returned no chunks")
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, chunk)
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	s := NewSplitter(20, 8)

	text := "aaaaabbbbbcccccdddddeeeeefffffggggghhhhh"
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Adjacent chunks share the overlap region: the start of each chunk
	// reappears near the end of the previous one.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i][:min(s.Overlap, len(chunks[i]))]
		if !strings.HasSuffix(chunks[i-1], head) {
			t.Errorf("chunk %d head %q not an overlap of chunk %d tail %q",
				i, head, i-1, chunks[i-1])
		}
	}
}

func TestSplit_Coverage(t *testing.T) {
	s := NewSplitter(25, 5)

	text := "One sentence here. Another sentence there. A third one follows. The last one ends it."
	chunks := s.Split(text)

	// Every word of the original survives somewhere in the chunks.
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q missing from chunk output", word)
		}
	}
}

func TestSplit_AlwaysTerminates(t *testing.T) {
	// Boundary markers clustered at the window start must not stall the
	// scan.
	s := NewSplitter(10, 8)

	text := ". . . . . " + strings.Repeat("abcdefghij", 5)
	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatal("Split returned no chunks")
	}
}

func TestChunkSegments(t *testing.T) {
	s := NewSplitter(1000, 200)

	segments := []models.Segment{
		{Text: "Page one text.", Attrs: map[string]any{"page": 1}},
		{Text: "Page two text.", Attrs: map[string]any{"page": 2}},
	}

	chunks := s.ChunkSegments(segments, "handbook.pdf", "pdf")
	if len(chunks) != 2 {
		t.Fatalf("ChunkSegments returned %d chunks, want 2", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Source != "handbook.pdf" {
			t.Errorf("chunk %d source = %q", i, chunk.Source)
		}
		if chunk.Index != i {
			t.Errorf("chunk %d index = %d, want %d", i, chunk.Index, i)
		}
		if chunk.Metadata[models.MetaType] != "pdf" {
			t.Errorf("chunk %d type = %v, want pdf", i, chunk.Metadata[models.MetaType])
		}
		if chunk.Metadata["page"] != i+1 {
			t.Errorf("chunk %d page = %v, want %d", i, chunk.Metadata["page"], i+1)
		}
	}
}

func TestChunkSegments_ContinuousIndex(t *testing.T) {
	s := NewSplitter(30, 5)

	long := "First sentence right here. Second sentence right here. Third sentence right here."
	chunks := s.ChunkSegments([]models.Segment{{Text: long}}, "notes.txt", "txt")

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if chunk.Metadata[models.MetaChunkIndex] != i {
			t.Errorf("chunk %d metadata index = %v", i, chunk.Metadata[models.MetaChunkIndex])
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
