package rag

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// QdrantConfig configures the Qdrant-backed Index.
type QdrantConfig struct {
	Host       string
	Port       int // gRPC port, 6334 by default (not the 6333 REST port)
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
}

// QdrantIndex stores chunk vectors in a Qdrant collection with cosine
// distance. Chunk text lives in the payload under "text"; all other
// payload keys are treated as metadata.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     *zap.Logger
}

func NewQdrantIndex(cfg QdrantConfig, logger *zap.Logger) (*QdrantIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive")
	}

	qdrantCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}
	if !cfg.UseTLS {
		qdrantCfg.GrpcOptions = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		}
	}

	client, err := qdrant.NewClient(qdrantCfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     logger.With(zap.String("component", "qdrant_index")),
	}, nil
}

// EnsureCollection creates the collection if it does not already exist.
// The vector dimension is fixed at creation.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	_, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("get collection info: %w", err)
	}

	q.logger.Info("creating collection",
		zap.String("collection", q.collection),
		zap.Int("dimension", q.dimension))

	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// DropCollection removes the collection and every stored chunk.
func (q *QdrantIndex) DropCollection(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, point := range points {
		if len(point.Vector) != q.dimension {
			return fmt.Errorf("point %s: vector dimension mismatch: expected %d, got %d", point.ID, q.dimension, len(point.Vector))
		}

		payload := map[string]*qdrant.Value{
			"text": {Kind: &qdrant.Value_StringValue{StringValue: point.Text}},
		}
		for k, v := range point.Metadata {
			if k == "text" {
				continue
			}
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}

		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: payload,
		}
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         qdrantPoints,
	}); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}

	q.logger.Debug("upserted points", zap.Int("count", len(points)))
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]Document, error) {
	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(scoreThreshold),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	documents := make([]Document, 0, len(results))
	for _, result := range results {
		doc := Document{
			ID:       pointID(result.Id),
			Score:    float64(result.Score),
			Metadata: make(map[string]string, len(result.Payload)),
		}
		for k, v := range result.Payload {
			if k == "text" {
				doc.Text = v.GetStringValue()
				continue
			}
			doc.Metadata[k] = v.GetStringValue()
		}
		documents = append(documents, doc)
	}

	q.logger.Debug("vector search", zap.Int("candidates", len(documents)))
	return documents, nil
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

var _ Index = (*QdrantIndex)(nil)
