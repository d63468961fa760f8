package resolve

import (
	"context"
	"strings"

	"github.com/inkwell-kb/inkwell/internal/capabilities"
	"github.com/inkwell-kb/inkwell/internal/store"
)

// entityBoost scales how much a hit's score is increased per fraction of
// matched query terms its text contains.
const entityBoost = 0.15

const defaultBM25K = 50
const defaultVectorK = 50
const defaultRRFK = store.DefaultRRFConstant

// retriever is the subset of *store.Store a resolver needs; narrowing to an
// interface keeps this package testable against a fake.
type retriever interface {
	BM25Search(query string, level, topK int) ([]store.SearchHit, error)
	VectorSearch(queryVector []float32, level, topK int) ([]store.SearchHit, error)
	HybridSearch(query string, queryVector []float32, level, bm25K, vectorK, rrfK int) ([]store.SearchHit, error)
}

// embedder is the subset of embed.Embedder a resolver needs to turn a query
// into a vector for hybrid/vector resolution.
type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Resolve picks a strategy for tier and runs it against st, embedding the
// query with emb when the strategy needs a vector. emb may be nil, in which
// case Hybrid degrades to Keyword.
func Resolve(ctx context.Context, st retriever, emb embedder, q Query, tier capabilities.Tier) (Result, error) {
	return ResolveAs(ctx, st, emb, q, SelectKind(tier))
}

// ResolveAs runs a specific resolution strategy regardless of tier.
func ResolveAs(ctx context.Context, st retriever, emb embedder, q Query, kind Kind) (Result, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = 10
	}

	switch kind {
	case Entity:
		return entityResolve(st, q, topK)
	case Hybrid:
		if emb == nil {
			return keywordResolve(st, q, topK)
		}
		return hybridResolve(ctx, st, emb, q, topK)
	default:
		return keywordResolve(st, q, topK)
	}
}

func keywordResolve(st retriever, q Query, topK int) (Result, error) {
	hits, err := st.BM25Search(q.Text, store.LevelParagraph, topK)
	if err != nil {
		return Result{}, err
	}
	return Result{Strategy: Keyword, Items: toItems(hits)}, nil
}

func hybridResolve(ctx context.Context, st retriever, emb embedder, q Query, topK int) (Result, error) {
	vec, err := emb.Embed(ctx, q.Text)
	if err != nil {
		return Result{}, err
	}
	hits, err := st.HybridSearch(q.Text, vec, store.LevelParagraph, defaultBM25K, defaultVectorK, defaultRRFK)
	if err != nil {
		return Result{}, err
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return Result{Strategy: Hybrid, Items: toItems(hits)}, nil
}

// entityResolve runs keyword search, then boosts every hit whose text
// contains one of the query's own terms by entityBoost scaled by the
// fraction of terms matched, and re-sorts by the boosted score.
func entityResolve(st retriever, q Query, topK int) (Result, error) {
	hits, err := st.BM25Search(q.Text, store.LevelParagraph, topK)
	if err != nil {
		return Result{}, err
	}

	terms := queryTerms(q.Text)
	items := toItems(hits)
	for i := range items {
		if len(terms) == 0 {
			continue
		}
		matched := 0
		lower := strings.ToLower(items[i].Text)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matched++
			}
		}
		if matched > 0 {
			items[i].Score += entityBoost * float64(matched) / float64(len(terms))
		}
	}

	sortByScoreDesc(items)
	return Result{Strategy: Entity, Items: items}, nil
}

func queryTerms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func sortByScoreDesc(items []Item) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Score > items[j-1].Score; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func toItems(hits []store.SearchHit) []Item {
	items := make([]Item, len(hits))
	for i, h := range hits {
		items[i] = Item{
			ChunkID:      h.ChunkID,
			DocID:        h.DocID,
			Text:         h.Text,
			Score:        h.Score,
			EnrichedText: h.EnrichedText,
			Metadata:     h.Metadata,
		}
	}
	return items
}
