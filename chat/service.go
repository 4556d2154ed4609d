// Package chat ties conversation sessions to the orchestration agent.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/agent"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/llm"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// agentHistoryTurns is how much history the agent sees per turn.
	agentHistoryTurns = 6
	// fullHistoryTurns is how much the history endpoint returns.
	fullHistoryTurns = 50
)

// Processor answers one query against prior conversation turns.
type Processor interface {
	Process(ctx context.Context, query string, history []session.Turn) agent.Result
}

// Response is one completed chat exchange.
type Response struct {
	Answer    string         `json:"answer"`
	Sources   []agent.Source `json:"sources"`
	Method    string         `json:"method"`
	SessionID string         `json:"session_id"`
	Escalate  bool           `json:"escalate"`
}

// Service owns the per-session conversation flow: read history, process
// the message, record the exchange.
type Service struct {
	agent    Processor
	sessions session.Store
	logger   *zap.Logger
}

func NewService(processor Processor, sessions session.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		agent:    processor,
		sessions: sessions,
		logger:   logger,
	}
}

// ProcessMessage handles one user message. An empty sessionID starts a
// new session. The user and assistant turns are appended after
// processing so the agent sees only prior turns as history.
func (s *Service) ProcessMessage(ctx context.Context, message, sessionID string) (Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Response{}, fmt.Errorf("message cannot be empty")
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
		s.logger.Info("new session", zap.String("session_id", sessionID))
	}

	history, err := s.sessions.History(ctx, sessionID, agentHistoryTurns)
	if err != nil {
		s.logger.Warn("history read failed", zap.String("session_id", sessionID), zap.Error(err))
		history = nil
	}

	result := s.agent.Process(ctx, message, history)

	if err := s.sessions.Append(ctx, sessionID, llm.RoleUser, message); err != nil {
		s.logger.Warn("append user turn failed", zap.Error(err))
	}
	if err := s.sessions.Append(ctx, sessionID, llm.RoleAssistant, result.Answer); err != nil {
		s.logger.Warn("append assistant turn failed", zap.Error(err))
	}

	s.logger.Info("processed message",
		zap.String("session_id", sessionID),
		zap.String("method", result.Method))

	return Response{
		Answer:    result.Answer,
		Sources:   result.Sources,
		Method:    result.Method,
		SessionID: sessionID,
		Escalate:  result.Escalate,
	}, nil
}

// History returns the retained conversation suffix, oldest-first.
func (s *Service) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	return s.sessions.History(ctx, sessionID, fullHistoryTurns)
}

// ClearSession removes all recorded turns for a session.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}
