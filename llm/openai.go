package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIClient(opts Options) Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &openAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

func (c *openAIClient) request(messages []Message) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	req.Messages = make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return req
}

func (c *openAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(messages))
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) GenerateStream(ctx context.Context, messages []Message, fn func(chunk string) error) error {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(messages))
	if err != nil {
		return fmt.Errorf("create chat completion stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			return nil
		}
		if recvErr != nil {
			return fmt.Errorf("receive stream chunk: %w", recvErr)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
}

func (c *openAIClient) GenerateWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (*ToolResponse, error) {
	req := c.request(messages)
	req.Tools = make([]openai.Tool, len(tools))
	for i, tool := range tools {
		req.Tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create chat completion with tools: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return &ToolResponse{Type: "text", Content: choice.Message.Content}, nil
	}

	calls := make([]ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	return &ToolResponse{Type: "tool_call", ToolCalls: calls}, nil
}

func (c *openAIClient) GenerateStructured(ctx context.Context, messages []Message, schema json.RawMessage) (json.RawMessage, error) {
	system := Message{
		Role:    RoleSystem,
		Content: fmt.Sprintf("You must respond with valid JSON matching this schema: %s", string(schema)),
	}

	full := append([]Message{system}, messages...)

	answer, err := c.Generate(ctx, full)
	if err != nil {
		return nil, err
	}

	return ExtractJSON(answer)
}

// ExtractJSON parses raw as JSON, falling back to content inside markdown
// code fences when the model wraps its output.
func ExtractJSON(raw string) (json.RawMessage, error) {
	candidate := strings.TrimSpace(raw)
	if json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate), nil
	}

	for _, marker := range []string{"```json", "```"} {
		if idx := strings.Index(candidate, marker); idx >= 0 {
			rest := candidate[idx+len(marker):]
			if end := strings.Index(rest, "```"); end >= 0 {
				fenced := strings.TrimSpace(rest[:end])
				if json.Valid([]byte(fenced)) {
					return json.RawMessage(fenced), nil
				}
			}
		}
	}

	return nil, fmt.Errorf("could not parse JSON from model response")
}

var (
	_ Client       = (*openAIClient)(nil)
	_ StreamClient = (*openAIClient)(nil)
	_ ToolClient   = (*openAIClient)(nil)
)
