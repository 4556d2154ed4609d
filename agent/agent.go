// Package agent orchestrates query handling: route, gather evidence,
// assemble the prompt, generate a grounded answer.
package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/llm"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/rag"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/router"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/search"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/session"
	"go.uber.org/zap"
)

// Method values reported in a Result. The *_no_results variants are
// observable states a caller must be able to tell apart from a generated
// answer.
const (
	MethodRAG             = "rag"
	MethodRAGNoResults    = "rag_no_results"
	MethodSearch          = "search"
	MethodSearchNoResults = "search_no_results"
	MethodHybrid          = "hybrid"
	MethodHybridNoResults = "hybrid_no_results"
	MethodEscalation      = "escalation"
	MethodError           = "error"
)

// Fixed escalation messages keyed by routing reason.
const (
	msgSensitive  = "Can't handle passwords/PINs. Call 1-800-555-BANK."
	msgAccount    = "Need to transfer you to access your account."
	msgSpecialist = "Need a specialist for this."
	msgError      = "Error occurred."

	msgNoInfo    = "No info found."
	msgNoResults = "No results found."
)

// Context and history budgets.
const (
	historyWindow     = 4
	historyCharLimit  = 500
	contextCharLimit  = 400
	hybridCharLimit   = 300
	contextDocLimit   = 3
	hybridDocTopK     = 2
	hybridWebLimit    = 2
	rewriteTokenLimit = 5
)

// Source is one citation record: an internal document name, or a web
// result's title and URL.
type Source struct {
	Source string `json:"source,omitempty"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Result is the terminal artifact of one orchestration call. Every code
// path, including failures, produces a complete Result.
type Result struct {
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Method   string   `json:"method"`
	Escalate bool     `json:"escalate"`
	Reason   string   `json:"reason,omitempty"`
	Err      string   `json:"error,omitempty"`
}

// Retriever is the internal knowledge-base collaborator. A failed
// retrieval surfaces as an empty slice.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) []rag.Document
}

// QueryRouter classifies a query into a handling route.
type QueryRouter interface {
	Route(query string, sctx router.Context) router.Decision
}

// Agent dispatches each query to the strategy its route demands.
type Agent struct {
	llm       llm.Client
	retriever Retriever
	search    search.Client
	router    QueryRouter
	logger    *zap.Logger
}

func New(llmClient llm.Client, retriever Retriever, searchClient search.Client, queryRouter QueryRouter, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queryRouter == nil {
		queryRouter = router.New(logger)
	}

	return &Agent{
		llm:       llmClient,
		retriever: retriever,
		search:    searchClient,
		router:    queryRouter,
		logger:    logger,
	}
}

// Process answers one query against the given conversation history. It
// never returns an error: failures with no safe fallback become a
// terminal Result with a generic message and an error marker.
func (a *Agent) Process(ctx context.Context, query string, history []session.Turn) Result {
	decision := a.router.Route(query, router.Context{})

	var (
		result Result
		err    error
	)

	switch decision.Route {
	case router.RouteEscalate:
		result = a.handleEscalation(decision.Reason)
	case router.RouteRAG:
		result, err = a.handleRAG(ctx, query, history)
	case router.RouteSearch:
		result, err = a.handleSearch(ctx, query, history)
	default:
		// Hybrid, and also form-filling: there is no dedicated
		// multi-step form flow, those queries get the hybrid treatment.
		result, err = a.handleHybrid(ctx, query, history)
	}

	if err != nil {
		a.logger.Error("query processing failed", zap.Error(err))
		return Result{Answer: msgError, Method: MethodError, Err: err.Error()}
	}

	return result
}

func (a *Agent) handleEscalation(reason string) Result {
	msg := msgSpecialist
	switch reason {
	case router.ReasonSensitiveInformation:
		msg = msgSensitive
	case router.ReasonAccountAccess:
		msg = msgAccount
	}

	return Result{
		Answer:   msg,
		Sources:  []Source{},
		Method:   MethodEscalation,
		Escalate: true,
		Reason:   reason,
	}
}

// handleRAG answers from the internal knowledge base only. The raw query
// is used for retrieval; follow-up rewriting applies to web search alone.
func (a *Agent) handleRAG(ctx context.Context, query string, history []session.Turn) (Result, error) {
	docs := a.retriever.Retrieve(ctx, query, 0)
	if len(docs) == 0 {
		return Result{Answer: msgNoInfo, Sources: []Source{}, Method: MethodRAGNoResults}, nil
	}

	if len(docs) > contextDocLimit {
		docs = docs[:contextDocLimit]
	}

	parts := make([]string, 0, len(docs))
	sources := make([]Source, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, "["+doc.Source()+"]\n"+truncate(doc.Text, contextCharLimit))
		sources = append(sources, Source{Source: doc.Source()})
	}

	userContent := "Documents:\n" + strings.Join(parts, "\n\n") + "\n\nQuestion: " + query
	answer, err := a.llm.Generate(ctx, a.buildMessages(history, userContent))
	if err != nil {
		return Result{}, err
	}

	return Result{Answer: answer, Sources: sources, Method: MethodRAG}, nil
}

func (a *Agent) handleSearch(ctx context.Context, query string, history []session.Turn) (Result, error) {
	results := a.searchWeb(ctx, a.rewriteQuery(query, history))
	if len(results) == 0 {
		return Result{Answer: msgNoResults, Sources: []Source{}, Method: MethodSearchNoResults}, nil
	}

	if len(results) > contextDocLimit {
		results = results[:contextDocLimit]
	}

	parts := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		parts = append(parts, "["+r.Title+"]\n"+truncate(r.Content, contextCharLimit))
		sources = append(sources, Source{Title: r.Title, URL: r.URL})
	}

	userContent := "Web results:\n" + strings.Join(parts, "\n\n") + "\n\nQuestion: " + query
	answer, err := a.llm.Generate(ctx, a.buildMessages(history, userContent))
	if err != nil {
		return Result{}, err
	}

	return Result{Answer: answer, Sources: sources, Method: MethodSearch}, nil
}

// handleHybrid gathers internal documents and web results concurrently;
// the two reads are independent, so one side failing or coming back empty
// never blocks the other.
func (a *Agent) handleHybrid(ctx context.Context, query string, history []session.Turn) (Result, error) {
	var (
		docs    []rag.Document
		results []search.Result
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		docs = a.retriever.Retrieve(ctx, query, hybridDocTopK)
	}()
	go func() {
		defer wg.Done()
		results = a.searchWeb(ctx, a.rewriteQuery(query, history))
	}()
	wg.Wait()

	if len(results) > hybridWebLimit {
		results = results[:hybridWebLimit]
	}

	var contexts []string
	if len(docs) > 0 {
		parts := make([]string, 0, len(docs))
		for _, doc := range docs {
			parts = append(parts, truncate(doc.Text, hybridCharLimit))
		}
		contexts = append(contexts, "Internal:\n"+strings.Join(parts, "\n"))
	}
	if len(results) > 0 {
		parts := make([]string, 0, len(results))
		for _, r := range results {
			parts = append(parts, truncate(r.Content, hybridCharLimit))
		}
		contexts = append(contexts, "Web:\n"+strings.Join(parts, "\n"))
	}

	if len(contexts) == 0 {
		return Result{Answer: msgNoInfo, Sources: []Source{}, Method: MethodHybridNoResults}, nil
	}

	userContent := strings.Join(contexts, "\n") + "\n\nQuestion: " + query
	answer, err := a.llm.Generate(ctx, a.buildMessages(history, userContent))
	if err != nil {
		return Result{}, err
	}

	sources := make([]Source, 0, len(docs)+len(results))
	for _, doc := range docs {
		sources = append(sources, Source{Source: doc.Source()})
	}
	for _, r := range results {
		sources = append(sources, Source{Title: r.Title, URL: r.URL})
	}

	return Result{Answer: answer, Sources: sources, Method: MethodHybrid}, nil
}

// searchWeb degrades a failed web search to an empty result set.
func (a *Agent) searchWeb(ctx context.Context, query string) []search.Result {
	if a.search == nil {
		return nil
	}

	results, err := a.search.SearchBankingInfo(ctx, query)
	if err != nil {
		a.logger.Warn("web search failed", zap.Error(err))
		return nil
	}
	return results
}

// rewriteQuery resolves short follow-up queries ("and savings?") by
// prepending the most recent user question. Only web searches use the
// rewritten form; the vector index always sees the raw query.
func (a *Agent) rewriteQuery(query string, history []session.Turn) string {
	if len(history) < 2 || len(strings.Fields(query)) > rewriteTokenLimit {
		return query
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser && history[i].Content != "" {
			rewritten := history[i].Content + " " + query
			a.logger.Debug("rewrote follow-up query", zap.String("query", rewritten))
			return rewritten
		}
	}
	return query
}

// buildMessages assembles the generation prompt: system persona, the
// suffix of the history window in chronological order, then the evidence
// and question.
func (a *Agent) buildMessages(history []session.Turn, userContent string) []llm.Message {
	messages := make([]llm.Message, 0, historyWindow+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: llm.SystemPrompt})

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	for _, turn := range recent {
		messages = append(messages, llm.Message{
			Role:    turn.Role,
			Content: truncate(turn.Content, historyCharLimit),
		})
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userContent})
	return messages
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
