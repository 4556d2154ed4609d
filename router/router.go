// Package router classifies incoming queries into handling routes.
package router

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Route is the handling strategy assigned to a query.
type Route string

const (
	RouteRAG      Route = "rag"
	RouteSearch   Route = "search"
	RouteHybrid   Route = "hybrid"
	RouteForm     Route = "form"
	RouteEscalate Route = "escalate"
)

// Escalation reasons.
const (
	ReasonSensitiveInformation = "sensitive_information"
	ReasonAccountAccess        = "account_access_required"
)

// Decision is the routing outcome for one query. Reason is set for
// escalations; Confidence only for the default hybrid route.
type Decision struct {
	Route      Route
	Reason     string
	Confidence float64
}

// Context carries lightweight session state into routing.
type Context struct {
	// ActiveForm is true while a multi-turn form-filling dialog is in
	// progress for the session.
	ActiveForm bool
}

var (
	sensitiveKeywords = []string{"password", "pin", "account number", "ssn", "transfer money"}
	formKeywords      = []string{"fill out", "application", "apply for", "form"}
	temporalKeywords  = []string{"current", "latest", "today", "2024", "2025", "recent"}

	accountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`my account`),
		regexp.MustCompile(`my balance`),
		regexp.MustCompile(`my transactions`),
	}
)

// rule pairs a predicate with its outcome. Rules are evaluated in order
// and the first match wins; the order is observable behavior, not an
// implementation detail. In particular a query containing both a
// sensitive keyword and an account-specific pattern escalates with
// reason sensitive_information.
type rule struct {
	match  func(query string, sctx Context) bool
	decide func() Decision
}

// Router maps queries to routes via an ordered keyword/pattern rule
// table. It is stateless; the same inputs always produce the same
// decision.
type Router struct {
	rules  []rule
	logger *zap.Logger
}

func New(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules := []rule{
		{
			match:  func(_ string, sctx Context) bool { return sctx.ActiveForm },
			decide: func() Decision { return Decision{Route: RouteForm} },
		},
		{
			match:  func(q string, _ Context) bool { return containsAny(q, sensitiveKeywords) },
			decide: func() Decision { return Decision{Route: RouteEscalate, Reason: ReasonSensitiveInformation} },
		},
		{
			match:  func(q string, _ Context) bool { return containsAny(q, formKeywords) },
			decide: func() Decision { return Decision{Route: RouteForm} },
		},
		{
			match:  func(q string, _ Context) bool { return containsAny(q, temporalKeywords) },
			decide: func() Decision { return Decision{Route: RouteSearch} },
		},
		{
			match:  func(q string, _ Context) bool { return matchesAny(q, accountPatterns) },
			decide: func() Decision { return Decision{Route: RouteEscalate, Reason: ReasonAccountAccess} },
		},
	}

	return &Router{rules: rules, logger: logger}
}

// Route classifies a query. Every query terminates in exactly one route;
// with no strong signal either way the decision defaults to hybrid with
// a fixed confidence.
func (r *Router) Route(query string, sctx Context) Decision {
	queryLower := strings.ToLower(query)

	for _, rule := range r.rules {
		if rule.match(queryLower, sctx) {
			decision := rule.decide()
			r.logger.Info("routed query",
				zap.String("route", string(decision.Route)),
				zap.String("reason", decision.Reason))
			return decision
		}
	}

	r.logger.Info("routed query", zap.String("route", string(RouteHybrid)))
	return Decision{Route: RouteHybrid, Confidence: 0.8}
}

func containsAny(query string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

func matchesAny(query string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}
