package chat_test

import (
	"context"
	"testing"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/agent"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/chat"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	result    agent.Result
	queries   []string
	histories [][]session.Turn
}

var _ chat.Processor = (*stubProcessor)(nil)

func (s *stubProcessor) Process(_ context.Context, query string, history []session.Turn) agent.Result {
	s.queries = append(s.queries, query)
	s.histories = append(s.histories, history)
	return s.result
}

func TestProcessMessageAllocatesSessionID(t *testing.T) {
	processor := &stubProcessor{result: agent.Result{Answer: "hi", Method: agent.MethodHybrid}}
	svc := chat.NewService(processor, session.NewMemoryStore(), nil)

	resp, err := svc.ProcessMessage(context.Background(), "hello", "")
	require.NoError(t, err)

	require.NotEmpty(t, resp.SessionID)
	_, err = uuid.Parse(resp.SessionID)
	assert.NoError(t, err, "allocated session id must be a UUID")
	assert.Equal(t, "hi", resp.Answer)
	assert.Equal(t, agent.MethodHybrid, resp.Method)
}

func TestProcessMessageKeepsExplicitSessionID(t *testing.T) {
	processor := &stubProcessor{result: agent.Result{Answer: "hi"}}
	svc := chat.NewService(processor, session.NewMemoryStore(), nil)

	resp, err := svc.ProcessMessage(context.Background(), "hello", "my-session")
	require.NoError(t, err)
	assert.Equal(t, "my-session", resp.SessionID)
}

func TestProcessMessageRejectsEmptyMessage(t *testing.T) {
	svc := chat.NewService(&stubProcessor{}, session.NewMemoryStore(), nil)

	_, err := svc.ProcessMessage(context.Background(), "   ", "s1")
	assert.Error(t, err)
}

func TestProcessMessageRecordsExchange(t *testing.T) {
	processor := &stubProcessor{result: agent.Result{Answer: "the answer"}}
	store := session.NewMemoryStore()
	svc := chat.NewService(processor, store, nil)

	_, err := svc.ProcessMessage(context.Background(), "a question", "s1")
	require.NoError(t, err)

	turns, err := store.History(context.Background(), "s1", 50)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "a question", turns[0].Content)
	assert.Equal(t, "assistant", turns[1].Role)
	assert.Equal(t, "the answer", turns[1].Content)
}

func TestProcessMessageAgentSeesOnlyPriorTurns(t *testing.T) {
	processor := &stubProcessor{result: agent.Result{Answer: "a"}}
	store := session.NewMemoryStore()
	svc := chat.NewService(processor, store, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "first question", "s1")
	require.NoError(t, err)
	_, err = svc.ProcessMessage(ctx, "second question", "s1")
	require.NoError(t, err)

	require.Len(t, processor.histories, 2)
	assert.Empty(t, processor.histories[0], "first turn has no prior history")
	require.Len(t, processor.histories[1], 2)
	assert.Equal(t, "first question", processor.histories[1][0].Content)
}

func TestClearSession(t *testing.T) {
	processor := &stubProcessor{result: agent.Result{Answer: "a"}}
	store := session.NewMemoryStore()
	svc := chat.NewService(processor, store, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "hello", "s1")
	require.NoError(t, err)
	require.NoError(t, svc.ClearSession(ctx, "s1"))

	turns, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
