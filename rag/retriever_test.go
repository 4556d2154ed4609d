package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/embeddings"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
}

var _ embeddings.Embedder = (*stubEmbedder)(nil)

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.vectors != nil {
		return s.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type stubIndex struct {
	documents []rag.Document
	err       error

	gotLimit     int
	gotThreshold float32
}

var _ rag.Index = (*stubIndex)(nil)

func (s *stubIndex) Search(_ context.Context, _ []float32, limit int, scoreThreshold float32) ([]rag.Document, error) {
	s.gotLimit = limit
	s.gotThreshold = scoreThreshold
	if s.err != nil {
		return nil, s.err
	}
	return s.documents, nil
}

func (s *stubIndex) Upsert(_ context.Context, _ []rag.Point) error {
	return nil
}

func TestRetrieveRerankBoostsLexicalMatches(t *testing.T) {
	index := &stubIndex{documents: []rag.Document{
		{ID: "a", Text: "Unrelated content about mortgages.", Score: 0.8},
		{ID: "b", Text: "Wire transfer fees for domestic transfers.", Score: 0.8},
	}}
	retriever := rag.NewHybridRetriever(&stubEmbedder{}, index, 5, 0.7, nil)

	docs := retriever.Retrieve(context.Background(), "wire transfer fees", 5)
	require.Len(t, docs, 2)

	// Equal base scores: the document matching the query terms must win.
	assert.Equal(t, "b", docs[0].ID)
	assert.Greater(t, docs[0].Score, docs[1].Score)
}

func TestRetrieveQueriesTwiceTopKCandidates(t *testing.T) {
	index := &stubIndex{}
	retriever := rag.NewHybridRetriever(&stubEmbedder{}, index, 5, 0.7, nil)

	retriever.Retrieve(context.Background(), "savings accounts", 3)

	assert.Equal(t, 6, index.gotLimit)
	assert.InDelta(t, 0.7, float64(index.gotThreshold), 1e-6)
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	var documents []rag.Document
	for i := 0; i < 6; i++ {
		documents = append(documents, rag.Document{ID: string(rune('a' + i)), Text: "checking account", Score: 0.9})
	}
	index := &stubIndex{documents: documents}
	retriever := rag.NewHybridRetriever(&stubEmbedder{}, index, 5, 0.7, nil)

	docs := retriever.Retrieve(context.Background(), "checking account", 2)
	assert.Len(t, docs, 2)
}

func TestRetrieveDefaultTopK(t *testing.T) {
	index := &stubIndex{}
	retriever := rag.NewHybridRetriever(&stubEmbedder{}, index, 4, 0.7, nil)

	retriever.Retrieve(context.Background(), "overdraft", 0)
	assert.Equal(t, 8, index.gotLimit)
}

func TestRetrieveDegradesOnEmbedderError(t *testing.T) {
	retriever := rag.NewHybridRetriever(
		&stubEmbedder{err: errors.New("embedding service down")},
		&stubIndex{documents: []rag.Document{{ID: "a", Text: "x", Score: 0.9}}},
		5, 0.7, nil)

	assert.Nil(t, retriever.Retrieve(context.Background(), "fees", 5))
}

func TestRetrieveDegradesOnIndexError(t *testing.T) {
	retriever := rag.NewHybridRetriever(
		&stubEmbedder{},
		&stubIndex{err: errors.New("index unavailable")},
		5, 0.7, nil)

	assert.Nil(t, retriever.Retrieve(context.Background(), "fees", 5))
}

func TestRetrieveEmptyIndex(t *testing.T) {
	retriever := rag.NewHybridRetriever(&stubEmbedder{}, &stubIndex{}, 5, 0.7, nil)

	assert.Nil(t, retriever.Retrieve(context.Background(), "fees", 5))
}

func TestRerankLeavesInputUntouched(t *testing.T) {
	index := &stubIndex{documents: []rag.Document{
		{ID: "a", Text: "no match here", Score: 0.5},
		{ID: "b", Text: "wire transfer", Score: 0.5},
	}}
	retriever := rag.NewHybridRetriever(&stubEmbedder{}, index, 5, 0.7, nil)

	retriever.Retrieve(context.Background(), "wire transfer", 5)

	assert.Equal(t, 0.5, index.documents[0].Score)
	assert.Equal(t, 0.5, index.documents[1].Score)
}
