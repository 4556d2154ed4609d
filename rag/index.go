// Package rag implements knowledge-base retrieval: sentence-aware
// chunking, vector search, and hybrid reranking.
package rag

import "context"

// Document is a scored candidate returned by the vector index.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Source returns the document's source name, if recorded.
func (d Document) Source() string {
	return d.Metadata["source"]
}

// Point is one entry to store in the vector index.
type Point struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Index is the vector similarity store. Search returns candidates
// best-first, only entries scoring at or above the threshold.
type Index interface {
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]Document, error)
	Upsert(ctx context.Context, points []Point) error
}
