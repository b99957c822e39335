// ABOUTME: Splitter cuts text segments into bounded, overlapping chunks
// ABOUTME: Prefers sentence and paragraph boundaries over raw size cuts
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/docdesk/docdesk/internal/models"
)

// Boundary markers searched backward from a window's end, in preference
// order. A cut lands immediately after the marker.
var boundaryMarkers = []string{". ", "! ", "? ", "\n\n"}

// Splitter splits text into chunks of at most Size characters with Overlap
// characters of carry-over between adjacent chunks. Overlap must be
// smaller than Size.
type Splitter struct {
	Size    int
	Overlap int
}

// NewSplitter creates a Splitter, falling back to safe values for
// nonsensical arguments.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Splitter{Size: size, Overlap: overlap}
}

// Split cuts text into overlapping pieces. Each piece is trimmed of
// surrounding whitespace; empty pieces are dropped. Empty input yields nil.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.Size {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + s.Size
		if end < len(text) {
			// Raw size cuts may land inside a multi-byte rune; every cut
			// position must be a rune boundary or the chunks are invalid
			// UTF-8.
			end = alignToRune(text, s.snapToBoundary(text, start, end))
			if end <= start {
				// A rune wider than the window still has to make it out.
				_, n := utf8.DecodeRuneInString(text[start:])
				end = start + n
			}
		} else {
			end = len(text)
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(text) {
			break
		}

		next := alignToRune(text, end-s.Overlap)
		// The window must strictly advance even when a boundary snap
		// lands close to the window start.
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// snapToBoundary searches backward within [start, end) for the closest
// boundary marker and returns the cut position just after it. Falls back
// to the raw end when the window contains no marker.
func (s *Splitter) snapToBoundary(text string, start, end int) int {
	best := -1
	for _, marker := range boundaryMarkers {
		if pos := strings.LastIndex(text[start:end], marker); pos != -1 {
			cut := start + pos + len(marker)
			if cut > best {
				best = cut
			}
		}
	}
	if best > start {
		return best
	}
	return end
}

// alignToRune walks pos backward to the nearest rune start so a byte
// offset never cuts through a multi-byte encoding.
func alignToRune(text string, pos int) int {
	for pos > 0 && pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// ChunkSegments runs Split over each segment and wraps the pieces in
// models.Chunk records carrying {source, chunk_index, type} plus the
// segment's passthrough attributes. The chunk index is continuous across
// segments of the same document.
func (s *Splitter) ChunkSegments(segments []models.Segment, source, docType string) []models.Chunk {
	var chunks []models.Chunk
	idx := 0

	for _, seg := range segments {
		for _, piece := range s.Split(seg.Text) {
			meta := map[string]any{
				models.MetaSource:     source,
				models.MetaChunkIndex: idx,
			}
			if docType != "" {
				meta[models.MetaType] = docType
			}
			for k, v := range seg.Attrs {
				meta[k] = v
			}
			chunks = append(chunks, models.Chunk{
				Content:  piece,
				Source:   source,
				Index:    idx,
				Metadata: meta,
			})
			idx++
		}
	}

	return chunks
}
