// Package ingestion prepares the knowledge base: it parses documents,
// chunks them, and indexes chunk embeddings.
package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/embeddings"
	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/rag"
	"github.com/google/uuid"
	pdf "github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Service walks a directory of documents and indexes their chunks.
type Service struct {
	chunker  *rag.Chunker
	embedder embeddings.Embedder
	index    rag.Index
	logger   *zap.Logger
}

func NewService(chunker *rag.Chunker, embedder embeddings.Embedder, index rag.Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// IngestDirectory ingests every supported file under dir. A file that
// fails to ingest is logged and skipped; the walk continues.
func (s *Service) IngestDirectory(ctx context.Context, dir, docType string) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("embedder not configured")
	}
	if s.index == nil {
		return 0, fmt.Errorf("vector index not configured")
	}

	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("data directory: %w", err)
	}

	var entries []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".md", ".txt", ".pdf":
			entries = append(entries, path)
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("walk data directory: %w", err)
	}

	if len(entries) == 0 {
		s.logger.Warn("no documents found", zap.String("dir", dir))
		return 0, nil
	}

	total := 0
	for _, path := range entries {
		count, err := s.IngestFile(ctx, path, docType)
		if err != nil {
			s.logger.Error("ingest failed", zap.String("path", path), zap.Error(err))
			continue
		}
		total += count
	}

	return total, nil
}

// IngestFile chunks, embeds, and indexes a single document. It returns
// the number of chunks indexed.
func (s *Service) IngestFile(ctx context.Context, path, docType string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	content, err := extractText(path, data)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	chunks := s.chunker.ChunkDocument(content, source, docType)
	if len(chunks) == 0 {
		s.logger.Warn("skip empty document", zap.String("path", path))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(chunks), len(vectors))
	}

	points := make([]rag.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = rag.Point{
			ID:       uuid.New().String(),
			Vector:   vectors[i],
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		}
	}

	if err := s.index.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}

	s.logger.Info("ingested document",
		zap.String("source", source),
		zap.Int("chunks", len(points)))

	return len(points), nil
}

func extractText(path string, data []byte) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return string(data), nil
	}

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}
