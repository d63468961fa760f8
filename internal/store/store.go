package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ierrors "github.com/inkwell-kb/inkwell/internal/errors"
)

// matrix is the in-memory normalized embedding cache described in the data
// model: an (N x D) row-normalized float32 matrix paired with the chunk id
// of each row and a dirty flag. Guarded by its own RWMutex: vector_search
// holds the read lock. A rebuild reads and dequantizes the stored
// embeddings without it and takes the write lock only to swap the new rows
// in, so a search sees either the old or the new matrix, never a mix, and
// is not blocked for the whole rebuild.
type matrix struct {
	mu       sync.RWMutex
	rows     [][]float32
	chunkIDs []int64
	dirty    bool
}

// Store is the Hybrid Retrieval Store. Every statement runs under mu;
// PruneOrphanChunks and UpdateDocumentMetadata hold it across all their
// statements, while duplicate removal and eviction take it separately for
// the delete and for the orphan prune that follows. One Store owns exactly
// one database connection and one embedding matrix.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	dim    int

	mat *matrix
}

// Open creates or opens the SQLite-backed store under dbDir/<name>.db,
// applying the WAL/foreign-key/cache pragmas the on-disk layout calls for,
// then initializing schema, FTS5, and triggers.
func Open(dbDir string, name string, dim int) (*Store, error) {
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, ierrors.Storage(err.Error())
	}
	dbPath := filepath.Join(dbDir, name+".db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ierrors.Database(err.Error())
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA cache_size = -65536;
		PRAGMA synchronous = NORMAL;`); err != nil {
		return nil, ierrors.Database(err.Error())
	}

	if _, err := db.Exec(schemaSQL + "\n" + ftsSchemaSQL + "\n" + ftsTriggersSQL); err != nil {
		return nil, ierrors.Database(fmt.Sprintf("schema init failed: %v", err))
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
		dim:    dim,
		mat:    &matrix{dirty: true},
	}
	if err := s.loadMatrix(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DBPath returns the path to the backing database file (used by status and
// the migration tool).
func (s *Store) DBPath() string { return s.dbPath }

// Dimension returns the embedding dimension this store was opened with.
func (s *Store) Dimension() int { return s.dim }

func nowMillis() int64 { return time.Now().UnixMilli() }

// ---------------------------------------------------------------------
// Document CRUD
// ---------------------------------------------------------------------

// AddDocument inserts a new document and returns its id. Fails with a
// DuplicateContent error if opts.ContentHash collides with an existing row.
func (s *Store) AddDocument(text string, opts AddDocumentOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := opts.CreatedAt
	now := nowMillis()
	if created == nil {
		created = &now
	}
	var metaJSON any
	if len(opts.Metadata) > 0 {
		metaJSON = string(opts.Metadata)
	}

	res, err := s.db.Exec(
		`INSERT INTO documents (text, metadata_json, content_hash, created_at) VALUES (?, ?, ?, ?)`,
		text, metaJSON, nullableStrPtr(opts.ContentHash), *created,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			hash := ""
			if opts.ContentHash != nil {
				hash = *opts.ContentHash
			}
			return 0, ierrors.DuplicateContent(hash)
		}
		return 0, ierrors.WrapDB(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, ierrors.WrapDB(err)
	}
	return id, nil
}

// FindDocumentByHash looks up a document by its content hash.
func (s *Store) FindDocumentByHash(hash string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`SELECT id, text, metadata_json, content_hash, created_at, updated_at, metadata_updated_at FROM documents WHERE content_hash = ?`, hash)
	return scanDocument(row)
}

// GetDocument fetches a document by id.
func (s *Store) GetDocument(id int64) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`SELECT id, text, metadata_json, content_hash, created_at, updated_at, metadata_updated_at FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// DeleteDocument removes a document, cascading to its chunks, FTS rows, and
// embeddings. Marks the matrix dirty on success.
func (s *Store) DeleteDocument(id int64) (bool, error) {
	s.mu.Lock()
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	s.mu.Unlock()
	if err != nil {
		return false, ierrors.WrapDB(err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.mat.mu.Lock()
		s.mat.dirty = true
		s.mat.mu.Unlock()
		return true, nil
	}
	return false, nil
}

// UpdateDocumentMetadata merges patch into the document's existing metadata
// object at the top level and stamps metadata_updated_at. A non-object
// patch is a no-op at the top level.
func (s *Store) UpdateDocumentMetadata(id int64, patch json.RawMessage) (bool, error) {
	var patchMap map[string]json.RawMessage
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		// Not a JSON object: top-level merge is a no-op, but the call still
		// succeeds if the document exists.
		patchMap = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existingJSON sql.NullString
	err := s.db.QueryRow(`SELECT metadata_json FROM documents WHERE id = ?`, id).Scan(&existingJSON)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, ierrors.WrapDB(err)
	}

	existing := map[string]json.RawMessage{}
	if existingJSON.Valid && existingJSON.String != "" {
		_ = json.Unmarshal([]byte(existingJSON.String), &existing)
	}
	for k, v := range patchMap {
		existing[k] = v
	}
	now := nowMillis()
	nowRaw, _ := json.Marshal(now)
	existing["metadata_updated_at"] = nowRaw

	merged, err := json.Marshal(existing)
	if err != nil {
		return false, ierrors.Wrap(ierrors.KindJSON, err)
	}

	res, err := s.db.Exec(`UPDATE documents SET metadata_json = ?, updated_at = ?, metadata_updated_at = ? WHERE id = ?`,
		string(merged), now, now, id)
	if err != nil {
		return false, ierrors.WrapDB(err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var d Document
	var metaJSON, hash sql.NullString
	var updatedAt, metaUpdatedAt sql.NullInt64
	if err := row.Scan(&d.ID, &d.Text, &metaJSON, &hash, &d.CreatedAt, &updatedAt, &metaUpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, ierrors.WrapDB(err)
	}
	if metaJSON.Valid {
		d.Metadata = json.RawMessage(metaJSON.String)
	}
	if hash.Valid {
		h := hash.String
		d.ContentHash = &h
	}
	if updatedAt.Valid {
		u := updatedAt.Int64
		d.UpdatedAt = &u
	}
	if metaUpdatedAt.Valid {
		u := metaUpdatedAt.Int64
		d.MetadataUpdated = &u
	}
	return &d, nil
}

// ---------------------------------------------------------------------
// Chunk CRUD
// ---------------------------------------------------------------------

// AddChunk inserts a chunk and returns its id.
func (s *Store) AddChunk(docID int64, text string, chunkIndex, level int, opts AddChunkOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := opts.CreatedAt
	now := nowMillis()
	if created == nil {
		created = &now
	}
	var metaJSON any
	if len(opts.Metadata) > 0 {
		metaJSON = string(opts.Metadata)
	}

	res, err := s.db.Exec(
		`INSERT INTO chunks (doc_id, parent_chunk_id, text, enriched_text, chunk_index, char_start, char_end, level, metadata_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		docID, nullableInt64Ptr(opts.ParentChunkID), text, nullableStrPtr(opts.EnrichedText),
		chunkIndex, nullableIntPtr(opts.CharStart), nullableIntPtr(opts.CharEnd), level, metaJSON, *created,
	)
	if err != nil {
		return 0, ierrors.WrapDB(err)
	}
	return res.LastInsertId()
}

// AddChunkEmbedding quantizes vector to int8 and upserts the blob, marking
// the matrix dirty. The Orchestrator is responsible for also calling
// AppendToMatrix so ingestion mutates the matrix exactly once per chunk.
func (s *Store) AddChunkEmbedding(chunkID int64, vector []float32) error {
	bytes, scale, offset := quantize(vector)
	s.mu.Lock()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO chunk_embeddings (chunk_id, embedding, scale, offset_val) VALUES (?, ?, ?, ?)`,
		chunkID, bytes, scale, offset,
	)
	s.mu.Unlock()
	if err != nil {
		return ierrors.WrapDB(err)
	}
	s.mat.mu.Lock()
	s.mat.dirty = true
	s.mat.mu.Unlock()
	return nil
}

// UpdateChunkEnrichedText sets enriched_text, which re-indexes the FTS row
// for this chunk via the chunks_au trigger.
func (s *Store) UpdateChunkEnrichedText(id int64, text string) (bool, error) {
	s.mu.Lock()
	res, err := s.db.Exec(`UPDATE chunks SET enriched_text = ? WHERE id = ?`, text, id)
	s.mu.Unlock()
	if err != nil {
		return false, ierrors.WrapDB(err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetChunk fetches a chunk by id.
func (s *Store) GetChunk(id int64) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(chunkSelectSQL+` WHERE id = ?`, id)
	return scanChunk(row)
}

// GetChunksForDocument returns every chunk belonging to a document, ordered
// by chunk_index.
func (s *Store) GetChunksForDocument(docID int64) ([]*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(chunkSelectSQL+` WHERE doc_id = ? ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, ierrors.WrapDB(err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ChunksWithoutEmbedding returns up to limit level-1 chunks with no stored
// embedding, oldest first — the batch source for Distill's embed phase.
func (s *Store) ChunksWithoutEmbedding(limit int) ([]*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT c.id, c.doc_id, c.parent_chunk_id, c.text, c.enriched_text, c.chunk_index, c.char_start, c.char_end, c.level, c.metadata_json, c.created_at
		 FROM chunks c LEFT JOIN chunk_embeddings ce ON c.id = ce.chunk_id
		 WHERE ce.chunk_id IS NULL AND c.level = 1 ORDER BY c.created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, ierrors.WrapDB(err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ChunksWithoutEnrichment returns up to limit level-1 chunks with no
// enriched_text yet, oldest first — the batch source for Distill's enrich
// phase.
func (s *Store) ChunksWithoutEnrichment(limit int) ([]*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(chunkSelectSQL+` WHERE enriched_text IS NULL AND level = 1 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, ierrors.WrapDB(err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

const chunkSelectSQL = `SELECT id, doc_id, parent_chunk_id, text, enriched_text, chunk_index, char_start, char_end, level, metadata_json, created_at FROM chunks`

func scanChunk(row *sql.Row) (*Chunk, error) {
	var c Chunk
	var parent sql.NullInt64
	var enriched, metaJSON sql.NullString
	var charStart, charEnd sql.NullInt64
	if err := row.Scan(&c.ID, &c.DocID, &parent, &c.Text, &enriched, &c.ChunkIndex, &charStart, &charEnd, &c.Level, &metaJSON, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, ierrors.WrapDB(err)
	}
	applyChunkNullables(&c, parent, enriched, metaJSON, charStart, charEnd)
	return &c, nil
}

func scanChunks(rows *sql.Rows) ([]*Chunk, error) {
	var out []*Chunk
	for rows.Next() {
		var c Chunk
		var parent sql.NullInt64
		var enriched, metaJSON sql.NullString
		var charStart, charEnd sql.NullInt64
		if err := rows.Scan(&c.ID, &c.DocID, &parent, &c.Text, &enriched, &c.ChunkIndex, &charStart, &charEnd, &c.Level, &metaJSON, &c.CreatedAt); err != nil {
			return nil, ierrors.WrapDB(err)
		}
		applyChunkNullables(&c, parent, enriched, metaJSON, charStart, charEnd)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, ierrors.WrapDB(err)
	}
	return out, nil
}

func applyChunkNullables(c *Chunk, parent sql.NullInt64, enriched, metaJSON sql.NullString, charStart, charEnd sql.NullInt64) {
	if parent.Valid {
		v := parent.Int64
		c.ParentChunkID = &v
	}
	if enriched.Valid {
		v := enriched.String
		c.EnrichedText = &v
	}
	if metaJSON.Valid {
		c.Metadata = json.RawMessage(metaJSON.String)
	}
	if charStart.Valid {
		v := int(charStart.Int64)
		c.CharStart = &v
	}
	if charEnd.Valid {
		v := int(charEnd.Int64)
		c.CharEnd = &v
	}
}

// ---------------------------------------------------------------------
// Embedding matrix lifecycle
// ---------------------------------------------------------------------

// loadMatrix rebuilds the normalized matrix from storage: every embedding
// whose chunk is level 1 is dequantized, stacked, and each row normalized
// (a zero-norm row is left as zeros).
func (s *Store) loadMatrix() error {
	s.mu.Lock()
	rows, err := s.db.Query(
		`SELECT ce.chunk_id, ce.embedding, ce.scale, ce.offset_val
		 FROM chunk_embeddings ce JOIN chunks c ON c.id = ce.chunk_id
		 WHERE c.level = 1`)
	s.mu.Unlock()
	if err != nil {
		return ierrors.WrapDB(err)
	}
	defer rows.Close()

	var ids []int64
	var mat [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		var scale, offset float64
		if err := rows.Scan(&id, &blob, &scale, &offset); err != nil {
			return ierrors.WrapDB(err)
		}
		v := dequantize(blob, float32(scale), float32(offset))
		normalizeInPlace(v)
		ids = append(ids, id)
		mat = append(mat, v)
	}
	if err := rows.Err(); err != nil {
		return ierrors.WrapDB(err)
	}

	s.mat.mu.Lock()
	s.mat.rows = mat
	s.mat.chunkIDs = ids
	s.mat.dirty = false
	s.mat.mu.Unlock()
	return nil
}

func (s *Store) ensureMatrixLoaded() error {
	s.mat.mu.RLock()
	dirty := s.mat.dirty
	s.mat.mu.RUnlock()
	if dirty {
		return s.loadMatrix()
	}
	return nil
}

// AppendToMatrix normalizes vector and stores it as chunkID's row: the row
// is replaced when the matrix already holds one for that chunk, and
// appended otherwise. A dirty matrix is first rebuilt from storage, so the
// call skips the full rebuild only when the matrix is clean; after
// AddChunkEmbedding (which marks it dirty) it rebuilds. A zero-norm vector
// is skipped (not stored).
func (s *Store) AppendToMatrix(chunkID int64, vector []float32) error {
	if err := s.ensureMatrixLoaded(); err != nil {
		return err
	}
	norm := l2norm(vector)
	if norm < 1e-9 {
		return nil
	}
	normalized := make([]float32, len(vector))
	for i, x := range vector {
		normalized[i] = x / norm
	}

	s.mat.mu.Lock()
	defer s.mat.mu.Unlock()
	s.mat.dirty = false
	for i, id := range s.mat.chunkIDs {
		if id == chunkID {
			s.mat.rows[i] = normalized
			return nil
		}
	}
	s.mat.rows = append(s.mat.rows, normalized)
	s.mat.chunkIDs = append(s.mat.chunkIDs, chunkID)
	return nil
}

func l2norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

func normalizeInPlace(v []float32) {
	norm := l2norm(v)
	if norm < 1e-9 {
		return
	}
	for i := range v {
		v[i] /= norm
	}
}

// ---------------------------------------------------------------------
// BM25 search
// ---------------------------------------------------------------------

// sanitizeFTSQuery splits on whitespace, drops empties, strips embedded
// double quotes, wraps each token in quotes, and joins with OR. An empty
// query sanitizes to "".
func sanitizeFTSQuery(query string) string {
	fields := strings.Fields(query)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		tokens = append(tokens, `"`+f+`"`)
	}
	return strings.Join(tokens, " OR ")
}

// BM25Search runs a sanitized full-text MATCH restricted to level, returning
// hits ordered by BM25 rank with a positive-score convention (higher is
// better). An empty (post-sanitization) query returns no results without
// touching the index.
func (s *Store) BM25Search(query string, level, topK int) ([]SearchHit, error) {
	ftsQuery := sanitizeFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	s.mu.Lock()
	rows, err := s.db.Query(
		`SELECT c.id, c.doc_id, c.text, chunks_fts.rank AS bm25_score, c.level, c.metadata_json, c.enriched_text, c.parent_chunk_id, c.chunk_index, c.char_start, c.char_end
		 FROM chunks_fts JOIN chunks c ON c.id = chunks_fts.rowid
		 WHERE chunks_fts MATCH ? AND c.level = ?
		 ORDER BY chunks_fts.rank LIMIT ?`, ftsQuery, level, topK)
	s.mu.Unlock()
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindSearch, err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var bm25Score float64
		var metaJSON, enriched sql.NullString
		var parent sql.NullInt64
		var charStart, charEnd sql.NullInt64
		if err := rows.Scan(&h.ChunkID, &h.DocID, &h.Text, &bm25Score, &h.Level, &metaJSON, &enriched, &parent, &h.ChunkIndex, &charStart, &charEnd); err != nil {
			return nil, ierrors.Wrap(ierrors.KindSearch, err)
		}
		h.Score = -bm25Score
		applyHitNullables(&h, metaJSON, enriched, parent, charStart, charEnd)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, ierrors.Wrap(ierrors.KindSearch, err)
	}
	return hits, nil
}

func applyHitNullables(h *SearchHit, metaJSON, enriched sql.NullString, parent sql.NullInt64, charStart, charEnd sql.NullInt64) {
	if metaJSON.Valid {
		h.Metadata = json.RawMessage(metaJSON.String)
	}
	if enriched.Valid {
		v := enriched.String
		h.EnrichedText = &v
	}
	if parent.Valid {
		v := parent.Int64
		h.ParentChunkID = &v
	}
	if charStart.Valid {
		v := int(charStart.Int64)
		h.CharStart = &v
	}
	if charEnd.Valid {
		v := int(charEnd.Int64)
		h.CharEnd = &v
	}
}

// ---------------------------------------------------------------------
// Vector search
// ---------------------------------------------------------------------

// VectorSearch L2-normalizes queryVector, computes matrix·q over the
// normalized embedding matrix, and hydrates the top-k chunk ids into hits.
// level is accepted for contract parity; only level-1 chunks ever populate
// the matrix, so it has no further effect.
func (s *Store) VectorSearch(queryVector []float32, level, topK int) ([]SearchHit, error) {
	if err := s.ensureMatrixLoaded(); err != nil {
		return nil, err
	}

	s.mat.mu.RLock()
	n := len(s.mat.rows)
	if n == 0 {
		s.mat.mu.RUnlock()
		return nil, nil
	}
	qNorm := l2norm(queryVector)
	if qNorm < 1e-9 {
		s.mat.mu.RUnlock()
		return nil, nil
	}
	q := make([]float32, len(queryVector))
	for i, x := range queryVector {
		q[i] = x / qNorm
	}

	type scored struct {
		idx   int
		score float32
	}
	sims := make([]scored, n)
	for i, row := range s.mat.rows {
		var dot float32
		for j := 0; j < len(row) && j < len(q); j++ {
			dot += row[j] * q[j]
		}
		sims[i] = scored{i, dot}
	}
	ids := s.mat.chunkIDs
	s.mat.mu.RUnlock()

	sort.Slice(sims, func(a, b int) bool { return sims[a].score > sims[b].score })
	if topK < len(sims) {
		sims = sims[:topK]
	}

	hits := make([]SearchHit, 0, len(sims))
	for _, sc := range sims {
		chunkID := ids[sc.idx]
		c, err := s.GetChunk(chunkID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		hits = append(hits, SearchHit{
			ChunkID: c.ID, DocID: c.DocID, Text: c.Text, Score: float64(sc.score),
			Level: c.Level, Metadata: c.Metadata, EnrichedText: c.EnrichedText,
			ParentChunkID: c.ParentChunkID, ChunkIndex: c.ChunkIndex,
			CharStart: c.CharStart, CharEnd: c.CharEnd,
		})
	}
	return hits, nil
}

// ---------------------------------------------------------------------
// Hybrid search (RRF)
// ---------------------------------------------------------------------

// DefaultRRFConstant is the default k in 1/(k+rank+1).
const DefaultRRFConstant = 60

// ReciprocalRankFusion fuses two independently ranked hit lists. Each hit at
// zero-based rank r contributes 1/(k+r+1) to its chunk's fused score;
// scores are summed across lists, and the chunk's hit fields are taken from
// the first list to mention it. Ties keep the accumulation (insertion)
// order they were first seen in.
func ReciprocalRankFusion(bm25Hits, vectorHits []SearchHit, k int) []SearchHit {
	scores := map[int64]float64{}
	first := map[int64]SearchHit{}
	var order []int64

	accumulate := func(hits []SearchHit) {
		for rank, h := range hits {
			if _, seen := first[h.ChunkID]; !seen {
				first[h.ChunkID] = h
				order = append(order, h.ChunkID)
			}
			scores[h.ChunkID] += 1.0 / float64(k+rank+1)
		}
	}
	accumulate(bm25Hits)
	accumulate(vectorHits)

	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	out := make([]SearchHit, 0, len(order))
	for _, id := range order {
		h := first[id]
		h.Score = scores[id]
		out = append(out, h)
	}
	return out
}

// HybridSearch runs BM25 and vector branches independently and fuses them
// with RRF.
func (s *Store) HybridSearch(query string, queryVector []float32, level, bm25K, vectorK, rrfK int) ([]SearchHit, error) {
	bm25Hits, err := s.BM25Search(query, level, bm25K)
	if err != nil {
		return nil, err
	}
	vectorHits, err := s.VectorSearch(queryVector, level, vectorK)
	if err != nil {
		return nil, err
	}
	return ReciprocalRankFusion(bm25Hits, vectorHits, rrfK), nil
}

// ---------------------------------------------------------------------
// Consolidation primitives
// ---------------------------------------------------------------------

// PruneOrphanChunks deletes chunks whose document is absent, then the FTS
// rows and embeddings whose chunk is absent, in that order.
func (s *Store) PruneOrphanChunks() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM chunks WHERE doc_id NOT IN (SELECT id FROM documents)`)
	if err != nil {
		return 0, ierrors.WrapDB(err)
	}
	n, _ := res.RowsAffected()

	if _, err := s.db.Exec(`DELETE FROM chunks_fts WHERE rowid NOT IN (SELECT id FROM chunks)`); err != nil {
		return n, ierrors.WrapDB(err)
	}
	if _, err := s.db.Exec(`DELETE FROM chunk_embeddings WHERE chunk_id NOT IN (SELECT id FROM chunks)`); err != nil {
		return n, ierrors.WrapDB(err)
	}
	return n, nil
}

// RemoveDuplicateDocuments removes all but the newest-id row per non-null
// hash with multiplicity > 1, then prunes orphans.
func (s *Store) RemoveDuplicateDocuments() (int64, error) {
	s.mu.Lock()
	res, err := s.db.Exec(`DELETE FROM documents WHERE id NOT IN (
		SELECT MAX(id) FROM documents WHERE content_hash IS NOT NULL GROUP BY content_hash
	) AND content_hash IS NOT NULL AND content_hash IN (
		SELECT content_hash FROM documents WHERE content_hash IS NOT NULL
		GROUP BY content_hash HAVING COUNT(*) > 1
	)`)
	s.mu.Unlock()
	if err != nil {
		return 0, ierrors.WrapDB(err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		if _, err := s.PruneOrphanChunks(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// EvictOldestDocuments deletes the n documents with the smallest created_at
// timestamps, then prunes orphans.
func (s *Store) EvictOldestDocuments(n int) (int64, error) {
	s.mu.Lock()
	res, err := s.db.Exec(`DELETE FROM documents WHERE id IN (
		SELECT id FROM documents ORDER BY created_at ASC LIMIT ?
	)`, n)
	s.mu.Unlock()
	if err != nil {
		return 0, ierrors.WrapDB(err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		if _, err := s.PruneOrphanChunks(); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// CountDocuments returns the total number of documents.
func (s *Store) CountDocuments() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, ierrors.WrapDB(err)
	}
	return n, nil
}

// CountChunks returns the number of chunks, optionally filtered by level
// (pass nil for no filter).
func (s *Store) CountChunks(level *int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	var err error
	if level != nil {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE level = ?`, *level).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n)
	}
	if err != nil {
		return 0, ierrors.WrapDB(err)
	}
	return n, nil
}

// GetStats aggregates document/chunk/embedding counts, on-disk size, and
// matrix state.
func (s *Store) GetStats() (Stats, error) {
	docCount, err := s.CountDocuments()
	if err != nil {
		return Stats{}, err
	}
	chunkCount, err := s.CountChunks(nil)
	if err != nil {
		return Stats{}, err
	}
	section := LevelSection
	sectionCount, err := s.CountChunks(&section)
	if err != nil {
		return Stats{}, err
	}
	para := LevelParagraph
	paraCount, err := s.CountChunks(&para)
	if err != nil {
		return Stats{}, err
	}

	s.mu.Lock()
	var embCount int64
	err = s.db.QueryRow(`SELECT COUNT(*) FROM chunk_embeddings`).Scan(&embCount)
	s.mu.Unlock()
	if err != nil {
		return Stats{}, ierrors.WrapDB(err)
	}

	var dbSize int64
	if fi, err := os.Stat(s.dbPath); err == nil {
		dbSize = fi.Size()
	}

	s.mat.mu.RLock()
	rows := len(s.mat.rows)
	s.mat.mu.RUnlock()

	return Stats{
		TotalDocuments:     docCount,
		TotalChunks:        chunkCount,
		SectionChunks:      sectionCount,
		ParagraphChunks:    paraCount,
		EmbeddingsStored:   embCount,
		EmbeddingDimension: s.dim,
		DBPath:             s.dbPath,
		DBSizeMB:           float64(dbSize) / (1024.0 * 1024.0),
		MatrixLoaded:       rows > 0,
		MatrixRows:         rows,
	}, nil
}

// --- small nullable helpers ---

func nullableStrPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableIntPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableInt64Ptr(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
