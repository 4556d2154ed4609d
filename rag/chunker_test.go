package rag_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentence builds a sentence of exactly n words ending in a period.
func sentence(id, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d_%d", id, i)
	}
	return strings.Join(words, " ") + "."
}

func TestChunkTextEmptyInput(t *testing.T) {
	c := rag.NewChunker(512, 50, nil)

	assert.Empty(t, c.ChunkText("", nil))
	assert.Empty(t, c.ChunkText("   \n\t  ", nil))
}

func TestChunkTextRespectsChunkSize(t *testing.T) {
	c := rag.NewChunker(10, 0, nil)

	var sb strings.Builder
	for i := 0; i < 6; i++ {
		sb.WriteString(sentence(i, 4))
		sb.WriteString(" ")
	}

	chunks := c.ChunkText(sb.String(), nil)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(chunk.Text)), 10)
	}
}

func TestChunkTextOverlap(t *testing.T) {
	c := rag.NewChunker(10, 3, nil)

	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(sentence(i, 3))
		sb.WriteString(" ")
	}

	chunks := c.ChunkText(sb.String(), nil)
	require.Len(t, chunks, 2)

	// The second chunk re-opens with the closing sentence of the first.
	assert.Equal(t, sentence(0, 3)+" "+sentence(1, 3)+" "+sentence(2, 3), chunks[0].Text)
	assert.True(t, strings.HasPrefix(chunks[1].Text, sentence(2, 3)),
		"second chunk should start with the last sentence of the first")
}

func TestChunkTextNeverSplitsSentences(t *testing.T) {
	c := rag.NewChunker(10, 3, nil)

	// A single sentence far beyond the chunk size stays whole.
	long := sentence(0, 40)
	chunks := c.ChunkText(long, nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0].Text)

	c = rag.NewChunker(512, 50, nil)
	long = sentence(0, 600)
	chunks = c.ChunkText(long, nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0].Text)
}

func TestChunkTextDeterministic(t *testing.T) {
	c := rag.NewChunker(512, 50, nil)

	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString(sentence(i, 10))
		sb.WriteString(" ")
	}

	first := c.ChunkText(sb.String(), nil)
	second := c.ChunkText(sb.String(), nil)
	assert.Equal(t, first, second)
}

func TestChunkTextCleansInput(t *testing.T) {
	c := rag.NewChunker(512, 50, nil)

	chunks := c.ChunkText("Fees   apply\n\tto wire transfers. See §12 for details*.", nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Fees apply to wire transfers. See 12 for details.", chunks[0].Text)
}

func TestChunkDocumentMetadata(t *testing.T) {
	c := rag.NewChunker(10, 3, nil)

	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(sentence(i, 3))
		sb.WriteString(" ")
	}

	chunks := c.ChunkDocument(sb.String(), "fees.md", "")
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, "fees.md", chunk.Metadata["source"])
		assert.Equal(t, "policy", chunk.Metadata["doc_type"])
	}

	// Each chunk owns its metadata map.
	chunks[0].Metadata["source"] = "mutated"
	assert.Equal(t, "fees.md", chunks[1].Metadata["source"])
}
