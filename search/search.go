// Package search provides live web search for current banking
// information.
package search

import "context"

// Result is a single web search hit. Provider ordering is preserved.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Options tune a single search request.
type Options struct {
	MaxResults     int
	Depth          string // "basic" or "advanced"
	IncludeDomains []string
	ExcludeDomains []string
}

// Client is the web search collaborator.
type Client interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
	// SearchBankingInfo runs a basic search and keeps only results with
	// enough content to be useful as evidence.
	SearchBankingInfo(ctx context.Context, query string) ([]Result, error)
}
