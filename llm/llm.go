package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client generates a completion from an ordered list of messages.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// StreamClient is implemented by clients that can stream incremental output.
type StreamClient interface {
	GenerateStream(ctx context.Context, messages []Message, fn func(chunk string) error) error
}

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResponse is either plain text or a set of tool calls.
type ToolResponse struct {
	Type      string     `json:"type"` // "text" or "tool_call"
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolClient is implemented by clients that support tool calling and
// structured JSON output.
type ToolClient interface {
	GenerateWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (*ToolResponse, error)
	GenerateStructured(ctx context.Context, messages []Message, schema json.RawMessage) (json.RawMessage, error)
}

// ToolDefinition describes a function the model may call.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewClient builds the Groq-backed client from application config. Groq
// exposes an OpenAI-compatible endpoint, so the OpenAI SDK with a base URL
// override is all that is needed.
func NewClient(cfg config.Config) (Client, error) {
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}

	return NewOpenAIClient(Options{
		APIKey:      cfg.GroqAPIKey,
		BaseURL:     cfg.GroqBaseURL,
		Model:       cfg.GroqModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}), nil
}
