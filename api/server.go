// Package api exposes the chat service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/chat"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/session"
	"go.uber.org/zap"
)

const maxMessageLength = 2000

// Server handles the HTTP API. Collaborators are injected at
// construction; handlers hold no per-request state.
type Server struct {
	svc     *chat.Service
	logger  *zap.Logger
	handler http.Handler
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	History   []session.Turn `json:"history"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(svc *chat.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{svc: svc, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /v1/chat/history/{session}", s.handleHistory)
	mux.HandleFunc("DELETE /v1/chat/session/{session}", s.handleClearSession)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	}
	if len(req.Message) > maxMessageLength {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("message exceeds %d characters", maxMessageLength))
		return
	}

	resp, err := s.svc.ProcessMessage(r.Context(), req.Message, req.SessionID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("process message: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")

	history, err := s.svc.History(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("read history: %w", err))
		return
	}
	if len(history) == 0 {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session %s not found", sessionID))
		return
	}

	s.writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, History: history})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")

	if err := s.svc.ClearSession(r.Context(), sessionID); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("clear session: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("session %s cleared", sessionID)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("api error", zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, server *Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpServer := &http.Server{Addr: addr, Handler: server}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
