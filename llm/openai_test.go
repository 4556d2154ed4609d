package llm_test

import (
	"testing"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/config"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"route": "rag"}`,
			want: `{"route": "rag"}`,
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  {\"route\": \"rag\"}  \n",
			want: `{"route": "rag"}`,
		},
		{
			name: "json fence",
			raw:  "Here you go:\n```json\n{\"route\": \"rag\"}\n```\nanything else?",
			want: `{"route": "rag"}`,
		},
		{
			name: "plain fence",
			raw:  "```\n[1, 2, 3]\n```",
			want: `[1, 2, 3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.ExtractJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExtractJSONRejectsNonJSON(t *testing.T) {
	for _, raw := range []string{
		"no json here",
		"```json\nnot valid\n```",
		"```\nunclosed fence",
	} {
		_, err := llm.ExtractJSON(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := llm.NewClient(config.Config{})
	assert.Error(t, err)

	client, err := llm.NewClient(config.Config{GroqAPIKey: "key", GroqModel: "llama-3.3-70b-versatile"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}
