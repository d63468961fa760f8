// Package chunk implements the hierarchical text chunker: documents split
// into level-0 sections (headings or large blank-line gaps) and level-1
// paragraphs (recursively split to fit a target size). Only level-1 chunks
// are embedded and searched.
package chunk

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is aligned with the all-MiniLM-L6-v2 embedding model's
// 256-token window, approximated at roughly 2 bytes/token.
const DefaultChunkSize = 512

// DefaultChunkOverlap is carried for parity with the reference chunker's
// constructor signature; the recursive splitter never consults it; it is
// here so a future overlap implementation has an obvious home.
const DefaultChunkOverlap = 100

var separators = []string{"\n\n", "\n", ". ", " ", ""}

// TextChunk is one paragraph-level (or section-level) split, with its
// position in the parent text it was split from.
type TextChunk struct {
	Text        string
	ChunkIndex  int
	TotalChunks int
	StartChar   int
	EndChar     int
}

// RecursiveChunker splits text by trying separators from coarsest
// ("\n\n") to finest (""), in order, packing split pieces up to ChunkSize
// bytes before starting a new chunk.
type RecursiveChunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewRecursiveChunker returns a chunker targeting chunkSize bytes per chunk.
func NewRecursiveChunker(chunkSize, chunkOverlap int) *RecursiveChunker {
	return &RecursiveChunker{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// Chunk splits text into position-tracked pieces.
func (c *RecursiveChunker) Chunk(text string) []TextChunk {
	raw := c.splitText(text, separators)
	result := make([]TextChunk, 0, len(raw))
	position := 0
	for _, piece := range raw {
		start := position
		if position <= len(text) {
			if idx := strings.Index(text[position:], piece); idx >= 0 {
				start = position + idx
			}
		}
		result = append(result, TextChunk{
			Text:        piece,
			ChunkIndex:  len(result),
			TotalChunks: len(raw),
			StartChar:   start,
			EndChar:     start + len(piece),
		})
		position = start + len(piece)
	}
	return result
}

// splitText recurses through the separator list, greedily packing splits of
// the current separator up to ChunkSize bytes before starting a new chunk,
// and recursing on any single split that alone exceeds ChunkSize.
func (c *RecursiveChunker) splitText(text string, seps []string) []string {
	if len(seps) == 0 {
		return []string{text}
	}

	separator := seps[0]
	remaining := seps[1:]

	if separator == "" {
		// The finest-grained separator is the empty string: there is nothing
		// smaller to split on, so the piece is kept whole.
		return []string{text}
	}

	splits := strings.Split(text, separator)

	var chunks []string
	var current []string
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, separator))
			current = nil
			currentSize = 0
		}
	}

	for _, split := range splits {
		splitSize := len(split)

		switch {
		case splitSize > c.ChunkSize:
			flush()
			chunks = append(chunks, c.splitText(split, remaining)...)
		case currentSize+splitSize+len(separator) > c.ChunkSize && len(current) > 0:
			flush()
			current = append(current, split)
			currentSize = splitSize
		default:
			current = append(current, split)
			currentSize += splitSize + len(separator)
		}
	}
	flush()

	return adjustUTF8Boundaries(chunks)
}

// adjustUTF8Boundaries is a defensive pass with no effect in the common
// case: byte-length packing above only ever cuts at separator boundaries,
// which are all ASCII, so chunks already fall on rune boundaries. It exists
// so a future separator list containing multi-byte runes can't silently
// produce invalid UTF-8.
func adjustUTF8Boundaries(chunks []string) []string {
	for i, c := range chunks {
		chunks[i] = strings.ToValidUTF8(c, "")
	}
	return chunks
}

// HierarchicalChunk is one node in the flattened section/paragraph tree.
type HierarchicalChunk struct {
	Text        string
	Level       int
	ChunkIndex  int
	CharStart   int
	CharEnd     int
	ParentIndex *int
}

var sectionSplitRe = regexp.MustCompile(`(\n#{1,6}\s)|(\n\n\n+)`)

// HierarchicalChunker produces the two-level section/paragraph tree: level
// 0 is a section boundary (a heading line or a run of 3+ blank lines),
// level 1 is a paragraph-sized recursive split of that section's text.
type HierarchicalChunker struct {
	paragraph *RecursiveChunker
}

// NewHierarchicalChunker builds a chunker whose paragraph level targets
// paragraphSize bytes.
func NewHierarchicalChunker(paragraphSize, paragraphOverlap int) *HierarchicalChunker {
	return &HierarchicalChunker{paragraph: NewRecursiveChunker(paragraphSize, paragraphOverlap)}
}

// DefaultHierarchicalChunker uses DefaultChunkSize/DefaultChunkOverlap.
func DefaultHierarchicalChunker() *HierarchicalChunker {
	return NewHierarchicalChunker(DefaultChunkSize, DefaultChunkOverlap)
}

type rawSection struct {
	text  string
	start int
}

// Chunk splits text into a flat, ordered list of level-0/level-1 chunks;
// every level-1 chunk's ParentIndex points at the level-0 entry preceding
// it in the returned slice.
func (h *HierarchicalChunker) Chunk(text string) []HierarchicalChunk {
	sections := h.splitSections(text)
	var all []HierarchicalChunk

	for _, sec := range sections {
		sectionIdx := len(all)
		all = append(all, HierarchicalChunk{
			Text:       sec.text,
			Level:      0,
			ChunkIndex: sectionIdx,
			CharStart:  sec.start,
			CharEnd:    sec.start + len(sec.text),
		})

		for _, pc := range h.paragraph.Chunk(sec.text) {
			parent := sectionIdx
			all = append(all, HierarchicalChunk{
				Text:        pc.Text,
				Level:       1,
				ChunkIndex:  len(all),
				CharStart:   sec.start + pc.StartChar,
				CharEnd:     sec.start + pc.EndChar,
				ParentIndex: &parent,
			})
		}
	}
	return all
}

// splitSections finds heading lines and long blank-line gaps and uses their
// start offsets as section boundaries, trimming surrounding whitespace off
// each resulting section.
func (h *HierarchicalChunker) splitSections(text string) []rawSection {
	matches := sectionSplitRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []rawSection{{text: text, start: 0}}
	}

	var sections []rawSection
	prevEnd := 0
	for _, m := range matches {
		start := m[0]
		if start > prevEnd {
			trimmed := strings.TrimSpace(text[prevEnd:start])
			if trimmed != "" {
				sections = append(sections, rawSection{text: trimmed, start: prevEnd})
			}
		}
		prevEnd = start
	}
	if trimmed := strings.TrimSpace(text[prevEnd:]); trimmed != "" {
		sections = append(sections, rawSection{text: trimmed, start: prevEnd})
	}

	if len(sections) == 0 {
		return []rawSection{{text: text, start: 0}}
	}
	return sections
}

// codeExtensions and docExtensions drive the size thresholds used by
// ShouldChunk and CalculateChunkSize.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".java": true, ".cpp": true, ".c": true,
	".go": true, ".rs": true, ".ts": true, ".tsx": true, ".jsx": true,
}

var docExtensions = map[string]bool{
	".md": true, ".txt": true, ".rst": true, ".tex": true, ".html": true, ".xml": true,
}

// docExtensionsForSize is the narrower set calculate_chunk_size checks
// against (".html"/".xml" fall through to the generic default there).
var docExtensionsForSize = map[string]bool{
	".md": true, ".rst": true, ".tex": true, ".txt": true,
}

// ShouldChunk reports whether text is long enough to warrant splitting,
// with extension-specific thresholds: code files need 5000+ bytes, other
// recognized document extensions need 2000+, everything else needs 3000+.
// Anything under 2000 bytes is never chunked regardless of extension.
func ShouldChunk(text string, fileExtension string) bool {
	n := len(text)
	if n < 2000 {
		return false
	}

	ext := strings.ToLower(fileExtension)
	if codeExtensions[ext] {
		return n >= 5000
	}
	if docExtensions[ext] {
		return n >= 2000
	}
	return n >= 3000
}

// SizeTable maps file-type categories to (size, overlap) pairs, so an
// installation can tune chunk granularity per corpus.
type SizeTable struct {
	GenericSize    int
	GenericOverlap int
	CodeSize       int
	CodeOverlap    int
	DocSize        int
	DocOverlap     int
}

// DefaultSizeTable returns the built-in sizing: tighter chunks for code,
// looser for prose-like documents, the package default otherwise.
func DefaultSizeTable() SizeTable {
	return SizeTable{
		GenericSize:    DefaultChunkSize,
		GenericOverlap: DefaultChunkOverlap,
		CodeSize:       400,
		CodeOverlap:    80,
		DocSize:        600,
		DocOverlap:     120,
	}
}

// WithOverrides returns a copy of t with any non-zero field of o applied.
func (t SizeTable) WithOverrides(o SizeTable) SizeTable {
	if o.GenericSize > 0 {
		t.GenericSize = o.GenericSize
	}
	if o.GenericOverlap > 0 {
		t.GenericOverlap = o.GenericOverlap
	}
	if o.CodeSize > 0 {
		t.CodeSize = o.CodeSize
	}
	if o.CodeOverlap > 0 {
		t.CodeOverlap = o.CodeOverlap
	}
	if o.DocSize > 0 {
		t.DocSize = o.DocSize
	}
	if o.DocOverlap > 0 {
		t.DocOverlap = o.DocOverlap
	}
	return t
}

// ForExtension resolves a file extension to its (size, overlap) pair.
func (t SizeTable) ForExtension(fileExtension string) (size, overlap int) {
	ext := strings.ToLower(fileExtension)
	if codeExtensions[ext] {
		return t.CodeSize, t.CodeOverlap
	}
	if docExtensionsForSize[ext] {
		return t.DocSize, t.DocOverlap
	}
	return t.GenericSize, t.GenericOverlap
}

// CalculateChunkSize resolves a file extension against the default table.
func CalculateChunkSize(fileExtension string) (size, overlap int) {
	return DefaultSizeTable().ForExtension(fileExtension)
}
