package rag

import (
	"context"
	"sort"
	"strings"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/embeddings"
	"go.uber.org/zap"
)

const (
	// Blend weights for reranking. They must sum to 1.0 so a reranked
	// score never exceeds the base score range.
	vectorWeight  = 0.7
	lexicalWeight = 0.3
)

// HybridRetriever blends vector similarity with lexical term overlap.
// Pure vector search misses exact-term matches that matter in banking
// text (account types, product names); the lexical boost is a recall
// safety net that keeps the semantic ranking in charge.
type HybridRetriever struct {
	embedder       embeddings.Embedder
	index          Index
	topK           int
	scoreThreshold float32
	logger         *zap.Logger
}

func NewHybridRetriever(embedder embeddings.Embedder, index Index, topK int, scoreThreshold float64, logger *zap.Logger) *HybridRetriever {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HybridRetriever{
		embedder:       embedder,
		index:          index,
		topK:           topK,
		scoreThreshold: float32(scoreThreshold),
		logger:         logger,
	}
}

// Retrieve returns up to topK reranked documents, best-first. Any
// collaborator failure degrades to an empty result; retrieval must never
// abort the conversation.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, topK int) []Document {
	if topK <= 0 {
		topK = r.topK
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		r.logger.Warn("query embedding failed", zap.Error(err))
		return nil
	}

	candidates, err := r.index.Search(ctx, vectors[0], topK*2, r.scoreThreshold)
	if err != nil {
		r.logger.Warn("vector search failed", zap.Error(err))
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	reranked := rerank(query, candidates)
	if len(reranked) > topK {
		reranked = reranked[:topK]
	}

	r.logger.Debug("retrieved documents",
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(reranked)))

	return reranked
}

// rerank blends each candidate's vector score with the fraction of
// distinct query terms present in its text, then stable-sorts best-first.
// It returns new Document values; the input slice is left untouched.
func rerank(query string, documents []Document) []Document {
	terms := make(map[string]struct{})
	for _, term := range strings.Fields(strings.ToLower(query)) {
		terms[term] = struct{}{}
	}

	reranked := make([]Document, len(documents))
	for i, doc := range documents {
		textLower := strings.ToLower(doc.Text)

		matches := 0
		for term := range terms {
			if strings.Contains(textLower, term) {
				matches++
			}
		}

		boost := 0.0
		if len(terms) > 0 {
			boost = float64(matches) / float64(len(terms))
		}

		doc.Score = doc.Score*vectorWeight + boost*lexicalWeight
		reranked[i] = doc
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	return reranked
}
