// Package embeddings turns text into fixed-dimension vectors for the
// vector index.
package embeddings

import (
	"context"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/config"
)

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

func NewEmbedder(cfg config.Config) (Embedder, error) {
	apiKey := cfg.EmbeddingAPIKey
	if apiKey == "" {
		apiKey = cfg.GroqAPIKey
	}

	return NewOpenAIEmbedder(Options{
		APIKey:    apiKey,
		BaseURL:   cfg.EmbeddingBaseURL,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
	}), nil
}
