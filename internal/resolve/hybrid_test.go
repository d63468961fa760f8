package resolve

import (
	"context"
	"testing"

	"github.com/inkwell-kb/inkwell/internal/store"
	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	bm25   []store.SearchHit
	vector []store.SearchHit
	hybrid []store.SearchHit
}

func (f *fakeStore) BM25Search(query string, level, topK int) ([]store.SearchHit, error) {
	return f.bm25, nil
}

func (f *fakeStore) VectorSearch(queryVector []float32, level, topK int) ([]store.SearchHit, error) {
	return f.vector, nil
}

func (f *fakeStore) HybridSearch(query string, queryVector []float32, level, bm25K, vectorK, rrfK int) ([]store.SearchHit, error) {
	return f.hybrid, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func TestSelectKindByTier(t *testing.T) {
	assert.Equal(t, Keyword, SelectKind(0))
	assert.Equal(t, Hybrid, SelectKind(1))
	assert.Equal(t, Hybrid, SelectKind(3))
}

func TestKeywordResolveWithData(t *testing.T) {
	fs := &fakeStore{bm25: []store.SearchHit{{ChunkID: 1, DocID: 1, Text: "hello world", Score: 2.0}}}
	res, err := ResolveAs(context.Background(), fs, nil, Query{Text: "hello", TopK: 10}, Keyword)
	assert.NoError(t, err)
	assert.Equal(t, Keyword, res.Strategy)
	assert.Len(t, res.Items, 1)
}

func TestEntityResolveBoostsMatchingHits(t *testing.T) {
	fs := &fakeStore{bm25: []store.SearchHit{
		{ChunkID: 1, DocID: 1, Text: "golang concurrency patterns", Score: 1.0},
		{ChunkID: 2, DocID: 1, Text: "unrelated text about cooking", Score: 1.0},
	}}
	res, err := entityResolve(fs, Query{Text: "golang concurrency"}, 10)
	assert.NoError(t, err)
	assert.Equal(t, Entity, res.Strategy)
	assert.Greater(t, res.Items[0].Score, res.Items[1].Score)
	assert.Equal(t, int64(1), res.Items[0].ChunkID)
}

func TestHybridResolveFusesViaStore(t *testing.T) {
	fs := &fakeStore{hybrid: []store.SearchHit{{ChunkID: 5, DocID: 1, Text: "fused hit", Score: 0.9}}}
	res, err := ResolveAs(context.Background(), fs, fakeEmbedder{}, Query{Text: "query", TopK: 10}, Hybrid)
	assert.NoError(t, err)
	assert.Equal(t, Hybrid, res.Strategy)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, int64(5), res.Items[0].ChunkID)
}

func TestHybridResolveDegradesToKeywordWithoutEmbedder(t *testing.T) {
	fs := &fakeStore{bm25: []store.SearchHit{{ChunkID: 7, DocID: 1, Text: "keyword fallback", Score: 1.0}}}
	res, err := ResolveAs(context.Background(), fs, nil, Query{Text: "query", TopK: 10}, Hybrid)
	assert.NoError(t, err)
	assert.Equal(t, Keyword, res.Strategy)
	assert.Len(t, res.Items, 1)
}
