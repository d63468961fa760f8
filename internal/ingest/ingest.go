// Package ingest turns a file or raw text into stored documents and chunks:
// extract text, hash it for dedup, split it with the hierarchical chunker,
// and persist everything to the store. Enrichment (topics, entities, key
// passages) and embeddings are added by the orchestrator right after
// ingest (and by its distill pass for chunks still missing them), not here.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkwell-kb/inkwell/internal/chunk"
	"github.com/inkwell-kb/inkwell/internal/errors"
	"github.com/inkwell-kb/inkwell/internal/store"
)

// storer is the subset of *store.Store the ingester needs.
type storer interface {
	FindDocumentByHash(hash string) (*store.Document, error)
	AddDocument(text string, opts store.AddDocumentOptions) (int64, error)
	AddChunk(docID int64, text string, chunkIndex, level int, opts store.AddChunkOptions) (int64, error)
}

// Ingester extracts, hashes, chunks, and stores documents.
type Ingester struct {
	store storer
	sizes chunk.SizeTable
}

// New builds an Ingester backed by st using the default chunk sizing.
func New(st storer) *Ingester {
	return NewWithSizes(st, chunk.DefaultSizeTable())
}

// NewWithSizes builds an Ingester with a custom chunk-size table.
func NewWithSizes(st storer, sizes chunk.SizeTable) *Ingester {
	return &Ingester{store: st, sizes: sizes}
}

// ContentHash returns the SHA-256 hex digest of text, used as the dedup key.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IngestFile extracts text from path and ingests it. Returns (nil, nil) if
// the file yields no usable text (binary, empty, or unsupported format).
func (ing *Ingester) IngestFile(path string) (*int64, error) {
	text, err := ExtractText(path)
	if err != nil {
		return nil, errors.Wrap(errors.KindIO, err)
	}
	if text == nil || strings.TrimSpace(*text) == "" {
		return nil, nil
	}

	filename := filepath.Base(path)
	hash := ContentHash(*text)

	if existing, err := ing.store.FindDocumentByHash(hash); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.DuplicateContent(hash)
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	var fileExt string
	if ext != "" {
		fileExt = "." + ext
	}

	size := int64(0)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	metadata, err := json.Marshal(map[string]any{
		"source":         "file",
		"filename":       filename,
		"file_extension": fileExt,
		"file_size":      size,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindJSON, err)
	}

	return ing.IngestText(*text, hash, metadata, fileExt)
}

// IngestText stores text as a new document (failing with DuplicateContent
// if contentHash already exists) and chunks it with the hierarchical
// chunker, falling back to a single level-1 chunk when the text is too
// short to warrant splitting.
func (ing *Ingester) IngestText(text, contentHash string, metadata json.RawMessage, fileExtension string) (*int64, error) {
	if existing, err := ing.store.FindDocumentByHash(contentHash); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.DuplicateContent(contentHash)
	}

	hash := contentHash
	docID, err := ing.store.AddDocument(text, store.AddDocumentOptions{
		Metadata:    metadata,
		ContentHash: &hash,
	})
	if err != nil {
		return nil, err
	}

	if chunk.ShouldChunk(text, fileExtension) {
		if err := ing.storeHierarchicalChunks(docID, text, fileExtension); err != nil {
			return nil, err
		}
	} else {
		end := len(text)
		if _, err := ing.store.AddChunk(docID, text, 0, store.LevelParagraph, store.AddChunkOptions{
			CharStart: intPtr(0),
			CharEnd:   &end,
		}); err != nil {
			return nil, err
		}
	}

	return &docID, nil
}

func (ing *Ingester) storeHierarchicalChunks(docID int64, text, fileExtension string) error {
	size, overlap := ing.sizes.ForExtension(fileExtension)
	chunker := chunk.NewHierarchicalChunker(size, overlap)
	chunks := chunker.Chunk(text)

	sectionDBIDs := make(map[int]int64, len(chunks))

	for _, c := range chunks {
		var parentDBID *int64
		if c.ParentIndex != nil {
			if id, ok := sectionDBIDs[*c.ParentIndex]; ok {
				parentDBID = &id
			}
		}

		start := c.CharStart
		end := c.CharEnd
		chunkID, err := ing.store.AddChunk(docID, c.Text, c.ChunkIndex, c.Level, store.AddChunkOptions{
			ParentChunkID: parentDBID,
			CharStart:     &start,
			CharEnd:       &end,
		})
		if err != nil {
			return err
		}

		if c.Level == store.LevelSection {
			sectionDBIDs[c.ChunkIndex] = chunkID
		}
	}

	return nil
}

func intPtr(i int) *int { return &i }
