package rag

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

// Chunk is one sentence-aligned segment of a source document, sized for
// retrieval.
type Chunk struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Chunker splits documents into overlapping, sentence-bounded segments.
// Sizes are measured in words; a sentence is never split across chunks,
// even when it alone exceeds the chunk size.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

func NewChunker(chunkSize, chunkOverlap int, logger *zap.Logger) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^\w\s.,!?;:'"()-]`)
)

// ChunkText splits text into overlapping chunks carrying the given
// metadata. Empty input yields no chunks.
func (c *Chunker) ChunkText(text string, metadata map[string]string) []Chunk {
	text = cleanText(text)
	sentences := splitSentences(text)

	var chunks []Chunk
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := len(strings.Fields(sentence))

		if currentLen+sentenceLen > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, Chunk{
				Text:     strings.Join(current, " "),
				Metadata: cloneMetadata(metadata),
			})

			// Seed the next buffer with the tail of the previous one,
			// up to chunkOverlap words.
			var overlap []string
			overlapLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				sLen := len(strings.Fields(current[i]))
				if overlapLen+sLen > c.chunkOverlap {
					break
				}
				overlap = append([]string{current[i]}, overlap...)
				overlapLen += sLen
			}

			current = overlap
			currentLen = overlapLen
		}

		current = append(current, sentence)
		currentLen += sentenceLen
	}

	if len(current) > 0 {
		chunks = append(chunks, Chunk{
			Text:     strings.Join(current, " "),
			Metadata: cloneMetadata(metadata),
		})
	}

	c.logger.Debug("chunked text",
		zap.Int("sentences", len(sentences)),
		zap.Int("chunks", len(chunks)))

	return chunks
}

// ChunkDocument chunks a complete document, tagging each chunk with its
// source name and document type.
func (c *Chunker) ChunkDocument(document, source, docType string) []Chunk {
	if docType == "" {
		docType = "policy"
	}
	return c.ChunkText(document, map[string]string{
		"source":   source,
		"doc_type": docType,
	})
}

func cleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// splitSentences splits after sentence-terminal punctuation followed by
// whitespace.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)

	start := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

func cloneMetadata(metadata map[string]string) map[string]string {
	cloned := make(map[string]string, len(metadata))
	for k, v := range metadata {
		cloned[k] = v
	}
	return cloned
}
